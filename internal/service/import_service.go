package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/internal/match"
	"github.com/ledgerfeed/importer/internal/transform"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// LedgerAPI is the slice of the ledger client the import service needs.
type LedgerAPI interface {
	FindAccount(ctx context.Context, id int64) (domain.LedgerAccount, error)
	ListAccounts(ctx context.Context, role domain.AccountRole) ([]domain.LedgerAccount, error)
}

// SubmissionEngine runs the submission phase for one job.
type SubmissionEngine interface {
	Run(ctx context.Context, identifier string, cfg *config.ImportConfig) error
}

// ImportPreview is the configuration-time view of a delimited file: its
// column headers and a handful of example values per column.
type ImportPreview struct {
	Columns  []string         `json:"columns"`
	Examples map[int][]string `json:"examples"`
}

type ImportService interface {
	// StartConversion runs the conversion phase end to end and returns the
	// job identifier. The identifier is valid for status polling even when
	// the conversion itself failed.
	StartConversion(ctx context.Context, content []byte, configData []byte) (string, error)

	// StartSubmission pushes a finished conversion's artifact to the ledger.
	StartSubmission(ctx context.Context, identifier string, configData []byte) error

	ConversionStatus(ctx context.Context, identifier string) (*domain.JobStatus, error)
	SubmissionStatus(ctx context.Context, identifier string) (*domain.JobStatus, error)

	// MatchAccounts pairs the configuration's aggregator accounts with
	// candidate ledger accounts.
	MatchAccounts(ctx context.Context, configData []byte) ([]domain.AccountMatch, error)

	// Preview parses a delimited file far enough to drive a column-mapping
	// UI.
	Preview(ctx context.Context, content []byte, configData []byte) (*ImportPreview, error)
}

type importService struct {
	conversions domain.StatusStore
	submissions domain.StatusStore
	artifacts   domain.ArtifactStore
	ledger      LedgerAPI
	engine      SubmissionEngine
	factory     AdapterFactory
	matcher     *match.Matcher
	logger      *logger.Logger
}

func NewImportService(
	conversions domain.StatusStore,
	submissions domain.StatusStore,
	artifacts domain.ArtifactStore,
	ledgerAPI LedgerAPI,
	engine SubmissionEngine,
	factory AdapterFactory,
	matcher *match.Matcher,
	log *logger.Logger,
) ImportService {
	return &importService{
		conversions: conversions,
		submissions: submissions,
		artifacts:   artifacts,
		ledger:      ledgerAPI,
		engine:      engine,
		factory:     factory,
		matcher:     matcher,
		logger:      log,
	}
}

func (s *importService) StartConversion(ctx context.Context, content []byte, configData []byte) (string, error) {
	identifier := uuid.New().String()
	ctx = logger.WithJobID(ctx, identifier)

	s.logger.Info(ctx, "Starting conversion")

	if _, err := s.conversions.StartOrFind(ctx, identifier); err != nil {
		return "", fmt.Errorf("start conversion status: %w", err)
	}

	cfg, err := config.ParseImportConfig(configData)
	if err != nil {
		return identifier, s.failConversion(ctx, identifier, fmt.Sprintf("Cannot decode import configuration: %v", err), err)
	}

	adapter, err := s.factory.Adapter(cfg, content)
	if err != nil {
		return identifier, s.failConversion(ctx, identifier, fmt.Sprintf("Unsupported import flow: %v", err), err)
	}

	if err := s.conversions.SetPhase(ctx, identifier, domain.JobPhaseRunning); err != nil {
		return identifier, fmt.Errorf("set conversion phase: %w", err)
	}

	// The default account feeds the empty-account transform. Looking it up is
	// best effort: a bare id still works, it just lacks name and IBAN.
	defaultAccount := domain.LedgerAccount{ID: cfg.DefaultAccountID}
	if cfg.DefaultAccountID > 0 {
		account, err := s.ledger.FindAccount(ctx, cfg.DefaultAccountID)
		if err != nil {
			s.logger.Warn(ctx, "Cannot resolve default account, continuing with bare id",
				"account_id", cfg.DefaultAccountID,
				"error", err,
			)
			s.record(ctx, s.conversions.AddWarning, identifier, 0,
				fmt.Sprintf("Cannot resolve default account %d from the ledger.", cfg.DefaultAccountID))
		} else {
			defaultAccount = account
		}
	}

	groups, err := adapter.Fetch(ctx)
	if err != nil {
		return identifier, s.failConversion(ctx, identifier, fmt.Sprintf("Source fetch failed: %v", err), err)
	}

	pipeline := transform.NewPipeline(defaultAccount, cfg.DefaultCurrencyID, s.logger)
	groups = pipeline.Run(ctx, groups)

	if err := s.artifacts.Write(ctx, identifier, groups); err != nil {
		return identifier, s.failConversion(ctx, identifier, fmt.Sprintf("Cannot persist conversion artifact: %v", err), err)
	}

	s.record(ctx, s.conversions.AddMessage, identifier, 0,
		fmt.Sprintf("Converted %d transaction groups.", len(groups)))

	if err := s.conversions.SetPhase(ctx, identifier, domain.JobPhaseDone); err != nil {
		return identifier, fmt.Errorf("set conversion phase: %w", err)
	}

	s.logger.Info(ctx, "Conversion finished",
		"groups", len(groups),
	)

	return identifier, nil
}

func (s *importService) StartSubmission(ctx context.Context, identifier string, configData []byte) error {
	cfg, err := config.ParseImportConfig(configData)
	if err != nil {
		return err
	}
	return s.engine.Run(ctx, identifier, cfg)
}

func (s *importService) ConversionStatus(ctx context.Context, identifier string) (*domain.JobStatus, error) {
	return s.conversions.Find(ctx, identifier)
}

func (s *importService) SubmissionStatus(ctx context.Context, identifier string) (*domain.JobStatus, error) {
	return s.submissions.Find(ctx, identifier)
}

func (s *importService) MatchAccounts(ctx context.Context, configData []byte) ([]domain.AccountMatch, error) {
	cfg, err := config.ParseImportConfig(configData)
	if err != nil {
		return nil, err
	}

	src, err := s.factory.AccountSource(cfg)
	if err != nil {
		return nil, err
	}

	external, err := src.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	known, err := s.knownAccounts(ctx)
	if err != nil {
		return nil, err
	}

	return s.matcher.Match(ctx, external, known), nil
}

func (s *importService) Preview(ctx context.Context, content []byte, configData []byte) (*ImportPreview, error) {
	cfg, err := config.ParseImportConfig(configData)
	if err != nil {
		return nil, err
	}
	if cfg.Flow != config.FlowFile {
		return nil, fmt.Errorf("%w: flow %q has no file preview", domain.ErrUnsupportedSource, cfg.Flow)
	}

	adapter, err := s.factory.Adapter(cfg, content)
	if err != nil {
		return nil, err
	}
	file, ok := adapter.(interface {
		Columns(ctx context.Context) ([]string, error)
		ExampleData(ctx context.Context) (map[int][]string, error)
	})
	if !ok {
		return nil, fmt.Errorf("%w: flow %q has no file preview", domain.ErrUnsupportedSource, cfg.Flow)
	}

	columns, err := file.Columns(ctx)
	if err != nil {
		return nil, err
	}
	examples, err := file.ExampleData(ctx)
	if err != nil {
		return nil, err
	}

	return &ImportPreview{Columns: columns, Examples: examples}, nil
}

func (s *importService) knownAccounts(ctx context.Context) ([]domain.LedgerAccount, error) {
	assets, err := s.ledger.ListAccounts(ctx, domain.AccountRoleAsset)
	if err != nil {
		return nil, err
	}
	liabilities, err := s.ledger.ListAccounts(ctx, domain.AccountRoleLiability)
	if err != nil {
		return nil, err
	}
	return append(assets, liabilities...), nil
}

// failConversion marks the conversion errored at the job level; the message
// lands on record index 0.
func (s *importService) failConversion(ctx context.Context, identifier, message string, cause error) error {
	s.logger.Error(ctx, "Conversion failed at job level",
		"error", cause,
	)
	s.record(ctx, s.conversions.AddError, identifier, 0, message)
	if err := s.conversions.SetPhase(ctx, identifier, domain.JobPhaseErrored); err != nil {
		s.logger.Warn(ctx, "Could not mark conversion errored",
			"error", err,
		)
	}
	return cause
}

type recordFunc func(ctx context.Context, identifier string, index int, entry string) error

func (s *importService) record(ctx context.Context, fn recordFunc, identifier string, index int, entry string) {
	if err := fn(ctx, identifier, index, entry); err != nil {
		s.logger.Warn(ctx, "Could not record status entry",
			"index", index,
			"error", err,
		)
	}
}
