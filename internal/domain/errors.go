package domain

import "errors"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrArtifactNotFound  = errors.New("conversion artifact not found")
	ErrNoTransactions    = errors.New("conversion produced no transactions")
	ErrSourceFetch       = errors.New("source fetch failed")
	ErrConfigDecode      = errors.New("import configuration cannot be decoded")
	ErrTerminalPhase     = errors.New("job phase is terminal")
	ErrUnknownDelimiter  = errors.New("unknown delimiter")
	ErrUnsupportedSource = errors.New("unsupported source flow")
)
