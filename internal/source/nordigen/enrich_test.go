package nordigen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

type fakeEnrichClient struct {
	detail      AccountDetail
	detailErr   error
	balances    []Balance
	balancesErr error
	meta        AccountMeta
	metaErr     error
}

func (f *fakeEnrichClient) AccountDetails(_ context.Context, _ string) (AccountDetail, error) {
	return f.detail, f.detailErr
}

func (f *fakeEnrichClient) AccountBalances(_ context.Context, _ string) ([]Balance, error) {
	return f.balances, f.balancesErr
}

func (f *fakeEnrichClient) AccountBasic(_ context.Context, _ string) (AccountMeta, error) {
	return f.meta, f.metaErr
}

func TestEnrich_Full(t *testing.T) {
	client := &fakeEnrichClient{
		detail: AccountDetail{
			IBAN:      "NL91ABNA0417164300",
			Name:      "Checking",
			OwnerName: "J. Doe",
			Currency:  "EUR",
		},
		balances: []Balance{
			{BalanceAmount: Amount{Amount: "100.25", Currency: "EUR"}, BalanceType: "interimAvailable"},
		},
	}

	enricher := NewEnricher(client, 1, logger.NewNop())
	account, state := enricher.Enrich(context.Background(), "acct-1")

	assert.Equal(t, domain.AccountState(""), state)
	assert.Equal(t, "Checking", account.Name)
	assert.Equal(t, "J. Doe", account.DisplayName)
	assert.Equal(t, "NL91ABNA0417164300", account.IBAN)
	assert.Len(t, account.Balances, 1)
	assert.Equal(t, "100.25", account.Balances[0].Amount)
}

func TestEnrich_DetailsRefused(t *testing.T) {
	client := &fakeEnrichClient{
		detailErr: errors.New("403"),
		meta:      AccountMeta{ID: "acct-1", IBAN: "NL91ABNA0417164300"},
		balances: []Balance{
			{BalanceAmount: Amount{Amount: "5", Currency: "EUR"}},
		},
	}

	enricher := NewEnricher(client, 1, logger.NewNop())
	account, state := enricher.Enrich(context.Background(), "acct-1")

	assert.Equal(t, domain.AccountStateNoInfo, state)
	assert.Equal(t, UnknownAccountName, account.Name)
	assert.Equal(t, "NL91ABNA0417164300", account.IBAN)
	assert.Len(t, account.Balances, 1)
}

func TestEnrich_DetailsAndBalancesRefused(t *testing.T) {
	// A balance failure on top of a details failure promotes the state to
	// nothing even when the metadata endpoint still answers.
	client := &fakeEnrichClient{
		detailErr:   errors.New("403"),
		balancesErr: errors.New("403"),
		meta:        AccountMeta{ID: "acct-1", IBAN: "NL91ABNA0417164300"},
	}

	enricher := NewEnricher(client, 1, logger.NewNop())
	account, state := enricher.Enrich(context.Background(), "acct-1")

	assert.Equal(t, domain.AccountStateNothing, state)
	assert.Equal(t, UnknownAccountName, account.Name)
	assert.Equal(t, "NL91ABNA0417164300", account.IBAN)
	assert.Empty(t, account.Balances)
}

func TestEnrich_EverythingRefused(t *testing.T) {
	client := &fakeEnrichClient{
		detailErr:   errors.New("403"),
		metaErr:     errors.New("403"),
		balancesErr: errors.New("403"),
	}

	enricher := NewEnricher(client, 1, logger.NewNop())
	account, state := enricher.Enrich(context.Background(), "acct-1")

	assert.Equal(t, domain.AccountStateNothing, state)
	assert.Equal(t, UnknownAccountName, account.Name)
	assert.Empty(t, account.IBAN)
	assert.Empty(t, account.Balances)
}

func TestEnrich_OnlyBalancesRefused(t *testing.T) {
	client := &fakeEnrichClient{
		detail:      AccountDetail{Name: "Checking", IBAN: "NL91ABNA0417164300"},
		balancesErr: errors.New("429"),
	}

	enricher := NewEnricher(client, 1, logger.NewNop())
	account, state := enricher.Enrich(context.Background(), "acct-1")

	assert.Equal(t, domain.AccountStateNoBalance, state)
	assert.Equal(t, "Checking", account.Name)
	assert.Empty(t, account.Balances)
}

func TestEnrich_MetadataBackfillsIBANAfterHealthyDetails(t *testing.T) {
	// Some banks serve details without an IBAN; the metadata record fills the
	// gap without touching the state.
	client := &fakeEnrichClient{
		detail: AccountDetail{Name: "Checking", Currency: "EUR"},
		meta:   AccountMeta{ID: "acct-1", IBAN: "NL91ABNA0417164300"},
		balances: []Balance{
			{BalanceAmount: Amount{Amount: "5", Currency: "EUR"}},
		},
	}

	enricher := NewEnricher(client, 1, logger.NewNop())
	account, state := enricher.Enrich(context.Background(), "acct-1")

	assert.Equal(t, domain.AccountState(""), state)
	assert.Equal(t, "Checking", account.Name)
	assert.Equal(t, "NL91ABNA0417164300", account.IBAN)
}

func TestEnrich_MetadataFailureNeverDowngrades(t *testing.T) {
	client := &fakeEnrichClient{
		detail:  AccountDetail{Name: "Checking", Currency: "EUR"},
		metaErr: errors.New("403"),
		balances: []Balance{
			{BalanceAmount: Amount{Amount: "5", Currency: "EUR"}},
		},
	}

	enricher := NewEnricher(client, 1, logger.NewNop())
	_, state := enricher.Enrich(context.Background(), "acct-1")

	assert.Equal(t, domain.AccountState(""), state)
}
