package config

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerfeed/importer/internal/domain"
)

// Flow identifies where an import job reads its raw records from.
type Flow string

const (
	FlowFile     Flow = "file"
	FlowSaltEdge Flow = "saltedge"
	FlowNordigen Flow = "nordigen"
)

// Delimiter names, matching the paired configuration files on disk.
const (
	DelimiterComma     = "comma"
	DelimiterSemicolon = "semicolon"
	DelimiterTab       = "tab"
)

// Duplicate detection methods for the submission phase.
const (
	DedupNone    = "none"
	DedupClassic = "classic"
	DedupCell    = "cell"
)

// Targets for the cell method's idempotency cue.
const (
	CellTypeExternalID        = "external-id"
	CellTypeInternalReference = "internal-reference"
)

// ImportConfig is the collaborator-supplied configuration that pairs with an
// importable source. It is decoded from JSON; a decode failure aborts the
// whole job before conversion starts.
type ImportConfig struct {
	Flow Flow `json:"flow"`

	// Delimited-file settings.
	Delimiter  string   `json:"delimiter,omitempty"`
	Headers    bool     `json:"headers,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Specifics  []string `json:"specifics,omitempty"`
	DateFormat string   `json:"date_format,omitempty"`

	// Aggregator settings.
	Connection string   `json:"connection,omitempty"`
	Accounts   []string `json:"accounts,omitempty"`

	// Closed date window; empty means unbounded on that side. Layout is
	// 2006-01-02.
	DateNotBefore string `json:"date_not_before,omitempty"`
	DateNotAfter  string `json:"date_not_after,omitempty"`

	// Defaults injected into the transform pipeline.
	DefaultAccountID  int64 `json:"default_account"`
	DefaultCurrencyID int64 `json:"default_currency"`

	// Duplicate detection.
	DuplicateDetectionMethod string `json:"duplicate_detection_method,omitempty"`
	UniqueColumnIndex        int    `json:"unique_column_index,omitempty"`
	UniqueColumnType         string `json:"unique_column_type,omitempty"`

	IgnoreDuplicateLines bool `json:"ignore_duplicate_lines,omitempty"`
}

// ParseImportConfig decodes and validates a paired JSON configuration.
func ParseImportConfig(data []byte) (*ImportConfig, error) {
	cfg := &ImportConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigDecode, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ImportConfig) Validate() error {
	switch c.Flow {
	case FlowFile, FlowSaltEdge, FlowNordigen:
	default:
		return fmt.Errorf("%w: flow %q", domain.ErrConfigDecode, c.Flow)
	}

	if c.Flow == FlowFile {
		switch c.Delimiter {
		case DelimiterComma, DelimiterSemicolon, DelimiterTab:
		default:
			return fmt.Errorf("%w: delimiter %q", domain.ErrConfigDecode, c.Delimiter)
		}
	}

	switch c.DuplicateDetectionMethod {
	case "", DedupNone, DedupClassic, DedupCell:
	default:
		return fmt.Errorf("%w: duplicate detection method %q", domain.ErrConfigDecode, c.DuplicateDetectionMethod)
	}

	if c.DuplicateDetectionMethod == DedupCell {
		switch c.UniqueColumnType {
		case "", CellTypeExternalID, CellTypeInternalReference:
		default:
			return fmt.Errorf("%w: unique column type %q", domain.ErrConfigDecode, c.UniqueColumnType)
		}
	}

	return nil
}

// DelimiterRune maps the configured delimiter name to its rune.
func (c *ImportConfig) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case DelimiterComma:
		return ',', nil
	case DelimiterSemicolon:
		return ';', nil
	case DelimiterTab:
		return '\t', nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownDelimiter, c.Delimiter)
}
