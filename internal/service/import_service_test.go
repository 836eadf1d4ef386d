package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/importer/internal/artifact"
	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/internal/match"
	"github.com/ledgerfeed/importer/internal/source"
	"github.com/ledgerfeed/importer/internal/status"
	"github.com/ledgerfeed/importer/pkg/logger"
)

type fakeLedger struct {
	account    domain.LedgerAccount
	findErr    error
	byRole     map[domain.AccountRole][]domain.LedgerAccount
	listErr    error
	findCalled bool
}

func (f *fakeLedger) FindAccount(_ context.Context, _ int64) (domain.LedgerAccount, error) {
	f.findCalled = true
	return f.account, f.findErr
}

func (f *fakeLedger) ListAccounts(_ context.Context, role domain.AccountRole) ([]domain.LedgerAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byRole[role], nil
}

type fakeEngine struct {
	ran []string
	err error
}

func (f *fakeEngine) Run(_ context.Context, identifier string, _ *config.ImportConfig) error {
	f.ran = append(f.ran, identifier)
	return f.err
}

type fakeFactory struct {
	adapter  source.Adapter
	accounts AccountSource
	err      error
}

func (f *fakeFactory) Adapter(cfg *config.ImportConfig, content []byte) (source.Adapter, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.adapter != nil {
		return f.adapter, nil
	}
	return source.NewFileAdapter(content, cfg, logger.NewNop()), nil
}

func (f *fakeFactory) AccountSource(_ *config.ImportConfig) (AccountSource, error) {
	if f.accounts == nil {
		return nil, domain.ErrUnsupportedSource
	}
	return f.accounts, nil
}

type fakeAccountSource struct {
	accounts []domain.ExternalAccount
}

func (f *fakeAccountSource) Accounts(_ context.Context) ([]domain.ExternalAccount, error) {
	return f.accounts, nil
}

type failingAdapter struct{}

func (failingAdapter) Fetch(_ context.Context) ([]domain.TransactionGroup, error) {
	return nil, domain.ErrSourceFetch
}

type serviceFixture struct {
	service     ImportService
	conversions domain.StatusStore
	submissions domain.StatusStore
	artifacts   domain.ArtifactStore
	ledger      *fakeLedger
	engine      *fakeEngine
	factory     *fakeFactory
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	log := logger.NewNop()

	f := &serviceFixture{
		conversions: status.NewMemoryStore(log),
		submissions: status.NewMemoryStore(log),
		artifacts:   artifact.NewFileStore(t.TempDir(), log),
		ledger: &fakeLedger{
			account: domain.LedgerAccount{ID: 7, Name: "Main", Role: domain.AccountRoleAsset},
		},
		engine:  &fakeEngine{},
		factory: &fakeFactory{},
	}
	f.service = NewImportService(
		f.conversions, f.submissions, f.artifacts, f.ledger, f.engine, f.factory,
		match.NewMatcher(log), log,
	)
	return f
}

const fileConfig = `{
	"flow": "file",
	"delimiter": "comma",
	"headers": true,
	"roles": ["date", "description", "amount"],
	"default_account": 7,
	"default_currency": 12
}`

var fileContent = []byte("Date,Description,Amount\n" +
	"2023-01-10,Groceries,-12.50\n" +
	"2023-01-11,Salary,2500\n")

func TestStartConversion(t *testing.T) {
	f := newFixture(t)

	identifier, err := f.service.StartConversion(context.Background(), fileContent, []byte(fileConfig))
	require.NoError(t, err)
	require.NotEmpty(t, identifier)

	record, err := f.service.ConversionStatus(context.Background(), identifier)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPhaseDone, record.Phase)
	assert.Empty(t, record.Errors)
	assert.Contains(t, record.Messages[0][0], "2 transaction groups")

	groups, err := f.artifacts.Read(context.Background(), identifier)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, int64(12), groups[0].Transactions[0].CurrencyID)
	assert.True(t, f.ledger.findCalled)
}

func TestStartConversion_BadConfig(t *testing.T) {
	f := newFixture(t)

	identifier, err := f.service.StartConversion(context.Background(), fileContent, []byte(`{"flow":"carrier-pigeon"}`))
	assert.ErrorIs(t, err, domain.ErrConfigDecode)
	require.NotEmpty(t, identifier)

	record, findErr := f.service.ConversionStatus(context.Background(), identifier)
	require.NoError(t, findErr)
	assert.Equal(t, domain.JobPhaseErrored, record.Phase)
	assert.NotEmpty(t, record.Errors[0])
}

func TestStartConversion_FetchFailure(t *testing.T) {
	f := newFixture(t)
	f.factory.adapter = failingAdapter{}

	identifier, err := f.service.StartConversion(context.Background(), nil, []byte(fileConfig))
	assert.ErrorIs(t, err, domain.ErrSourceFetch)

	record, findErr := f.service.ConversionStatus(context.Background(), identifier)
	require.NoError(t, findErr)
	assert.Equal(t, domain.JobPhaseErrored, record.Phase)
}

func TestStartConversion_DefaultAccountLookupIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.ledger.findErr = errors.New("ledger down")

	identifier, err := f.service.StartConversion(context.Background(), fileContent, []byte(fileConfig))
	require.NoError(t, err)

	record, findErr := f.service.ConversionStatus(context.Background(), identifier)
	require.NoError(t, findErr)
	assert.Equal(t, domain.JobPhaseDone, record.Phase)
	assert.NotEmpty(t, record.Warnings[0])
}

func TestStartSubmission(t *testing.T) {
	f := newFixture(t)

	err := f.service.StartSubmission(context.Background(), "job-1", []byte(fileConfig))
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, f.engine.ran)
}

func TestStartSubmission_BadConfig(t *testing.T) {
	f := newFixture(t)

	err := f.service.StartSubmission(context.Background(), "job-1", []byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrConfigDecode)
	assert.Empty(t, f.engine.ran)
}

func TestStatus_UnknownJob(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ConversionStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = f.service.SubmissionStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestMatchAccounts(t *testing.T) {
	f := newFixture(t)
	f.factory.accounts = &fakeAccountSource{
		accounts: []domain.ExternalAccount{
			{Identifier: "acct-1", IBAN: "NL91ABNA0417164300"},
		},
	}
	f.ledger.byRole = map[domain.AccountRole][]domain.LedgerAccount{
		domain.AccountRoleAsset: {
			{ID: 1, IBAN: "NL91ABNA0417164300", Role: domain.AccountRoleAsset},
			{ID: 2, IBAN: "GB82WEST12345698765432", Role: domain.AccountRoleAsset},
		},
	}

	matches, err := f.service.MatchAccounts(context.Background(), []byte(`{"flow":"nordigen"}`))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Len(t, matches[0].Candidates, 1)
	assert.Equal(t, int64(1), matches[0].Candidates[0].ID)
}

func TestMatchAccounts_FileFlowUnsupported(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.MatchAccounts(context.Background(), []byte(fileConfig))
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)

	preview, err := f.service.Preview(context.Background(), fileContent, []byte(fileConfig))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, preview.Columns)
	assert.Contains(t, preview.Examples[1], "Groceries")
}

func TestPreview_AggregatorFlowUnsupported(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Preview(context.Background(), nil, []byte(`{"flow":"nordigen"}`))
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}
