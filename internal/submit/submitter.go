package submit

import (
	"context"
	"fmt"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/internal/ledger"
	"github.com/ledgerfeed/importer/internal/match"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// API is the slice of the ledger client the engine needs.
type API interface {
	AccountTypes(ctx context.Context) (map[int64]domain.AccountRole, error)
	ListAccounts(ctx context.Context, role domain.AccountRole) ([]domain.LedgerAccount, error)
	SubmitGroup(ctx context.Context, group domain.TransactionGroup, opts ledger.SubmitOptions) (ledger.SubmitResult, error)
}

// Engine reads the conversion artifact for a job and pushes every
// transaction group to the ledger, one call per group. One group's failure
// never aborts the batch; only job-level failures mark the job errored.
type Engine struct {
	api       API
	artifacts domain.ArtifactStore
	status    domain.StatusStore
	matcher   *match.Matcher
	logger    *logger.Logger
}

func NewEngine(api API, artifacts domain.ArtifactStore, status domain.StatusStore, matcher *match.Matcher, log *logger.Logger) *Engine {
	return &Engine{
		api:       api,
		artifacts: artifacts,
		status:    status,
		matcher:   matcher,
		logger:    log,
	}
}

// Run executes the submission phase for one job identifier.
func (e *Engine) Run(ctx context.Context, identifier string, cfg *config.ImportConfig) error {
	ctx = logger.WithJobID(ctx, identifier)

	if _, err := e.status.StartOrFind(ctx, identifier); err != nil {
		return fmt.Errorf("start submission status: %w", err)
	}

	groups, err := e.artifacts.Read(ctx, identifier)
	if err != nil {
		return e.failJob(ctx, identifier, fmt.Sprintf("Cannot read conversion artifact: %v", err), err)
	}
	if len(groups) == 0 {
		return e.failJob(ctx, identifier, "Conversion produced zero transactions, nothing to submit.", domain.ErrNoTransactions)
	}

	// Account-type metadata and the matching universe are resolved once and
	// cached for the job's lifetime.
	accountTypes, err := e.api.AccountTypes(ctx)
	if err != nil {
		return e.failJob(ctx, identifier, fmt.Sprintf("Cannot collect account types from the ledger: %v", err), err)
	}
	e.logger.Debug(ctx, "Collected account type metadata",
		"accounts", len(accountTypes),
	)

	known, err := e.knownAccounts(ctx)
	if err != nil {
		return e.failJob(ctx, identifier, fmt.Sprintf("Cannot collect accounts from the ledger: %v", err), err)
	}

	if err := e.status.SetPhase(ctx, identifier, domain.JobPhaseRunning); err != nil {
		return fmt.Errorf("set submission phase: %w", err)
	}

	opts := ledger.SubmitOptions{
		DetectDuplicates: cfg.DuplicateDetectionMethod != config.DedupNone,
	}

	e.logger.Info(ctx, "Starting submission",
		"groups", len(groups),
		"duplicate_detection", cfg.DuplicateDetectionMethod,
	)

	for index, group := range groups {
		group = e.resolveEndpoints(ctx, group, known)

		result, err := e.api.SubmitGroup(ctx, group, opts)
		if err != nil {
			e.logger.Error(ctx, "Group submission failed",
				"index", index,
				"error", err,
			)
			e.record(ctx, e.status.AddError, identifier, index, fmt.Sprintf("Submission failed: %v", err))
			continue
		}

		switch result.Outcome {
		case ledger.OutcomeSuccess:
			if result.Message != "" {
				e.record(ctx, e.status.AddMessage, identifier, index, result.Message)
			}
		case ledger.OutcomeDuplicate:
			e.logger.Warn(ctx, "Ledger flagged group as duplicate",
				"index", index,
				"message", result.Message,
			)
			e.record(ctx, e.status.AddWarning, identifier, index, result.Message)
		case ledger.OutcomeRejected:
			e.logger.Error(ctx, "Ledger rejected group",
				"index", index,
				"message", result.Message,
			)
			e.record(ctx, e.status.AddError, identifier, index, result.Message)
		}
	}

	if err := e.status.SetPhase(ctx, identifier, domain.JobPhaseDone); err != nil {
		return fmt.Errorf("set submission phase: %w", err)
	}

	e.logger.Info(ctx, "Submission finished",
		"groups", len(groups),
	)

	return nil
}

// resolveEndpoints fills in missing source/destination account ids when the
// matcher binds an IBAN to exactly one known ledger account.
func (e *Engine) resolveEndpoints(ctx context.Context, group domain.TransactionGroup, known []domain.LedgerAccount) domain.TransactionGroup {
	for i := range group.Transactions {
		tx := &group.Transactions[i]
		if tx.SourceID == 0 && tx.SourceIBAN != "" {
			if id, ok := e.resolveIBAN(ctx, tx.SourceIBAN, known); ok {
				tx.SourceID = id
			}
		}
		if tx.DestinationID == 0 && tx.DestinationIBAN != "" {
			if id, ok := e.resolveIBAN(ctx, tx.DestinationIBAN, known); ok {
				tx.DestinationID = id
			}
		}
	}
	return group
}

func (e *Engine) resolveIBAN(ctx context.Context, iban string, known []domain.LedgerAccount) (int64, bool) {
	matches := e.matcher.Match(ctx, []domain.ExternalAccount{{IBAN: iban}}, known)
	if len(matches) != 1 || len(matches[0].Candidates) != 1 {
		return 0, false
	}
	// The universe fallback is not a real binding.
	candidate := matches[0].Candidates[0]
	if candidate.IBAN != iban && candidate.Number != iban {
		return 0, false
	}
	return candidate.ID, true
}

func (e *Engine) knownAccounts(ctx context.Context) ([]domain.LedgerAccount, error) {
	assets, err := e.api.ListAccounts(ctx, domain.AccountRoleAsset)
	if err != nil {
		return nil, err
	}
	liabilities, err := e.api.ListAccounts(ctx, domain.AccountRoleLiability)
	if err != nil {
		return nil, err
	}
	return append(assets, liabilities...), nil
}

// failJob marks the submission errored at the job level; the error lands on
// record index 0 because there is no natural record position.
func (e *Engine) failJob(ctx context.Context, identifier, message string, cause error) error {
	e.logger.Error(ctx, "Submission failed at job level",
		"error", cause,
	)
	e.record(ctx, e.status.AddError, identifier, 0, message)
	if err := e.status.SetPhase(ctx, identifier, domain.JobPhaseErrored); err != nil {
		e.logger.Warn(ctx, "Could not mark submission errored",
			"error", err,
		)
	}
	return cause
}

type recordFunc func(ctx context.Context, identifier string, index int, entry string) error

func (e *Engine) record(ctx context.Context, fn recordFunc, identifier string, index int, entry string) {
	if err := fn(ctx, identifier, index, entry); err != nil {
		e.logger.Warn(ctx, "Could not record status entry",
			"index", index,
			"error", err,
		)
	}
}
