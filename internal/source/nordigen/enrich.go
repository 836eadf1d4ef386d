package nordigen

import (
	"context"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
	"github.com/ledgerfeed/importer/pkg/retry"
)

// UnknownAccountName replaces the account name when the aggregator refuses
// the detail endpoint.
const UnknownAccountName = "Unknown account"

type enrichClient interface {
	AccountDetails(ctx context.Context, accountID string) (AccountDetail, error)
	AccountBalances(ctx context.Context, accountID string) ([]Balance, error)
	AccountBasic(ctx context.Context, accountID string) (AccountMeta, error)
}

// Enricher assembles one external account from up to three aggregator
// endpoints. Every step is best-effort: a failure downgrades the result
// instead of failing the caller.
type Enricher struct {
	client     enrichClient
	maxRetries int
	logger     *logger.Logger
}

func NewEnricher(client enrichClient, maxRetries int, log *logger.Logger) *Enricher {
	return &Enricher{
		client:     client,
		maxRetries: maxRetries,
		logger:     log,
	}
}

// Enrich builds the richest external account the aggregator will serve. The
// returned state is empty for a fully enriched account; a refused detail call
// makes it no-info, a refused balance call then promotes no-info to nothing
// (or sets no-balance on an otherwise healthy account). The closing metadata
// call only backfills an empty IBAN and never downgrades.
func (e *Enricher) Enrich(ctx context.Context, accountID string) (domain.ExternalAccount, domain.AccountState) {
	account := domain.ExternalAccount{Identifier: accountID}
	var state domain.AccountState

	var detail AccountDetail
	err := retry.Do(ctx, func() error {
		var err error
		detail, err = e.client.AccountDetails(ctx, accountID)
		return err
	}, retry.WithMaxAttempts(e.maxRetries))
	if err == nil {
		account.Name = detail.Name
		account.DisplayName = detail.OwnerName
		account.IBAN = detail.IBAN
		account.CurrencyCode = detail.Currency
		account.Status = detail.Status
	} else {
		state = domain.AccountStateNoInfo
		account.Name = UnknownAccountName
		e.logger.Warn(ctx, "Account details unavailable",
			"account_id", accountID,
			"error", err,
		)
	}

	var balances []Balance
	err = retry.Do(ctx, func() error {
		var err error
		balances, err = e.client.AccountBalances(ctx, accountID)
		return err
	}, retry.WithMaxAttempts(e.maxRetries))
	if err != nil {
		if state == domain.AccountStateNoInfo {
			state = domain.AccountStateNothing
		} else {
			state = domain.AccountStateNoBalance
		}
		e.logger.Warn(ctx, "Account balances unavailable",
			"account_id", accountID,
			"error", err,
		)
	} else {
		for _, balance := range balances {
			account.Balances = append(account.Balances, domain.Balance{
				Type:     balance.BalanceType,
				Amount:   balance.BalanceAmount.Amount,
				Currency: balance.BalanceAmount.Currency,
			})
		}
	}

	if account.IBAN == "" {
		meta, err := e.client.AccountBasic(ctx, accountID)
		if err != nil {
			e.logger.Warn(ctx, "Account metadata unavailable",
				"account_id", accountID,
				"error", err,
			)
		} else {
			account.IBAN = meta.IBAN
		}
	}

	return account, state
}
