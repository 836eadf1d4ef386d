package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

var knownAccounts = []domain.LedgerAccount{
	{ID: 1, Name: "Checking", IBAN: "NL91ABNA0417164300", CurrencyCode: "EUR", Role: domain.AccountRoleAsset},
	{ID: 2, Name: "Savings", IBAN: "DE89370400440532013000", CurrencyCode: "EUR", Role: domain.AccountRoleAsset},
	{ID: 3, Name: "Mortgage", Number: "889900", CurrencyCode: "USD", Role: domain.AccountRoleLiability},
	{ID: 4, Name: "Groceries", CurrencyCode: "EUR", Role: domain.AccountRoleExpense},
	{ID: 5, Name: "Salary", CurrencyCode: "EUR", Role: domain.AccountRoleRevenue},
}

func match(t *testing.T, external domain.ExternalAccount) domain.AccountMatch {
	t.Helper()
	m := NewMatcher(logger.NewNop())
	matches := m.Match(context.Background(), []domain.ExternalAccount{external}, knownAccounts)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestMatch_ExactIBAN(t *testing.T) {
	result := match(t, domain.ExternalAccount{
		Identifier: "ext-1",
		IBAN:       "NL91ABNA0417164300",
	})

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, int64(1), result.Candidates[0].ID)
}

func TestMatch_CrossFieldNumber(t *testing.T) {
	// External IBAN field holds what the ledger stored as an account number.
	result := match(t, domain.ExternalAccount{
		Identifier: "ext-2",
		IBAN:       "889900",
	})

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, int64(3), result.Candidates[0].ID)
}

func TestMatch_DuplicateIBANFallsThroughToCurrency(t *testing.T) {
	duplicated := append([]domain.LedgerAccount{}, knownAccounts...)
	duplicated = append(duplicated, domain.LedgerAccount{
		ID: 9, Name: "Checking copy", IBAN: "NL91ABNA0417164300", CurrencyCode: "EUR", Role: domain.AccountRoleAsset,
	})

	m := NewMatcher(logger.NewNop())
	matches := m.Match(context.Background(), []domain.ExternalAccount{
		{Identifier: "ext-3", IBAN: "NL91ABNA0417164300", CurrencyCode: "EUR"},
	}, duplicated)

	require.Len(t, matches, 1)
	// Two accounts share the IBAN, so identity no longer binds 1:1 and the
	// currency tier takes over.
	ids := candidateIDs(matches[0])
	assert.ElementsMatch(t, []int64{1, 2, 9}, ids)
}

func TestMatch_EmptyIBANSkipsIdentityTier(t *testing.T) {
	result := match(t, domain.ExternalAccount{
		Identifier:   "ext-4",
		CurrencyCode: "USD",
	})

	ids := candidateIDs(result)
	assert.Equal(t, []int64{3}, ids)
}

func TestMatch_NoCurrencyFallsBackToUniverse(t *testing.T) {
	result := match(t, domain.ExternalAccount{
		Identifier:   "ext-5",
		CurrencyCode: "JPY",
	})

	// Asset and liability accounts only; expense and revenue are excluded.
	ids := candidateIDs(result)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestMatch_EmptyCurrencyFallsBackToUniverse(t *testing.T) {
	result := match(t, domain.ExternalAccount{Identifier: "ext-6"})

	ids := candidateIDs(result)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestMatch_MultipleExternalAccounts(t *testing.T) {
	m := NewMatcher(logger.NewNop())
	matches := m.Match(context.Background(), []domain.ExternalAccount{
		{Identifier: "a", IBAN: "NL91ABNA0417164300"},
		{Identifier: "b", CurrencyCode: "EUR"},
	}, knownAccounts)

	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].External.Identifier)
	assert.Len(t, matches[0].Candidates, 1)
	assert.Equal(t, "b", matches[1].External.Identifier)
	assert.ElementsMatch(t, []int64{1, 2}, candidateIDs(matches[1]))
}

func candidateIDs(m domain.AccountMatch) []int64 {
	ids := make([]int64, 0, len(m.Candidates))
	for _, c := range m.Candidates {
		ids = append(ids, c.ID)
	}
	return ids
}
