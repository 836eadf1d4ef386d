package match

import (
	"context"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// Matcher reconciles aggregator-reported accounts against the ledger's own
// accounts under a tiered fallback strategy:
//
//  1. identity: IBAN or account number matches, cross-field included. Binds
//     1:1 only when exactly one ledger account qualifies.
//  2. currency: all asset and liability accounts in the same currency.
//  3. universe: all asset and liability accounts; the caller disambiguates.
//
// Expense and revenue accounts never enter the candidate pool but remain
// valid submission targets once a caller picks one explicitly.
type Matcher struct {
	logger *logger.Logger
}

func NewMatcher(log *logger.Logger) *Matcher {
	return &Matcher{logger: log}
}

func (m *Matcher) Match(ctx context.Context, external []domain.ExternalAccount, known []domain.LedgerAccount) []domain.AccountMatch {
	universe := filterRoles(known)
	matches := make([]domain.AccountMatch, 0, len(external))

	for _, account := range external {
		m.logger.Debug(ctx, "Matching external account",
			"identifier", account.Identifier,
			"iban", account.IBAN,
			"number", account.Number,
		)

		entry := domain.AccountMatch{External: account}

		byIdentity := filterByIdentity(universe, account.IBAN, account.Number)
		if len(byIdentity) == 1 {
			m.logger.Debug(ctx, "External account has a single ledger counterpart",
				"identifier", account.Identifier,
				"ledger_account_id", byIdentity[0].ID,
			)
			entry.Candidates = byIdentity
			matches = append(matches, entry)
			continue
		}

		byCurrency := filterByCurrency(universe, account.CurrencyCode)
		if len(byCurrency) > 0 {
			m.logger.Debug(ctx, "Falling back to currency match",
				"identifier", account.Identifier,
				"candidates", len(byCurrency),
			)
			entry.Candidates = byCurrency
			matches = append(matches, entry)
			continue
		}

		m.logger.Debug(ctx, "No filtered match, returning full account universe",
			"identifier", account.Identifier,
		)
		entry.Candidates = universe
		matches = append(matches, entry)
	}

	return matches
}

// filterRoles restricts the candidate universe to asset and liability
// accounts.
func filterRoles(known []domain.LedgerAccount) []domain.LedgerAccount {
	result := make([]domain.LedgerAccount, 0, len(known))
	for _, account := range known {
		if account.Role == domain.AccountRoleAsset || account.Role == domain.AccountRoleLiability {
			result = append(result, account)
		}
	}
	return result
}

// filterByIdentity also cross-matches IBAN against account number, which
// catches ledger accounts stored with the fields swapped. An empty external
// IBAN short-circuits the tier.
func filterByIdentity(universe []domain.LedgerAccount, iban, number string) []domain.LedgerAccount {
	if iban == "" {
		return nil
	}
	var result []domain.LedgerAccount
	for _, account := range universe {
		if iban == account.IBAN || (number != "" && number == account.Number) ||
			iban == account.Number || (number != "" && number == account.IBAN) {
			result = append(result, account)
		}
	}
	return result
}

func filterByCurrency(universe []domain.LedgerAccount, currency string) []domain.LedgerAccount {
	if currency == "" {
		return nil
	}
	var result []domain.LedgerAccount
	for _, account := range universe {
		if currency == account.CurrencyCode {
			result = append(result, account)
		}
	}
	return result
}
