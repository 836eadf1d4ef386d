package domain

import "context"

// StatusStore persists job status records. Implementations must replace the
// whole record atomically on write so concurrent pollers never observe a
// half-written record.
type StatusStore interface {
	// StartOrFind returns the existing record for the identifier or creates
	// one in the not-started phase. Creation is idempotent.
	StartOrFind(ctx context.Context, identifier string) (*JobStatus, error)

	// Find returns the record for the identifier, or ErrJobNotFound.
	Find(ctx context.Context, identifier string) (*JobStatus, error)

	// SetPhase transitions the record's phase. The identifier must already
	// exist; terminal phases do not transition further.
	SetPhase(ctx context.Context, identifier string, phase JobPhase) error

	AddMessage(ctx context.Context, identifier string, index int, message string) error
	AddWarning(ctx context.Context, identifier string, index int, warning string) error
	AddError(ctx context.Context, identifier string, index int, errMsg string) error
}

// ArtifactStore is the hand-off boundary between the conversion and
// submission phases: a JSON array of transaction groups keyed by job
// identifier, written once and stable under re-reads.
type ArtifactStore interface {
	Write(ctx context.Context, identifier string, groups []TransactionGroup) error
	Read(ctx context.Context, identifier string) ([]TransactionGroup, error)
}
