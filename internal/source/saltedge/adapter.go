package saltedge

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/internal/source"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// api is the slice of the aggregator client the adapter needs.
type api interface {
	RefreshConnection(ctx context.Context, connectionID string) error
	ListAccounts(ctx context.Context, connectionID string) ([]Account, error)
	ListTransactions(ctx context.Context, connectionID, accountID string) ([]Transaction, error)
}

// Adapter fetches transactions through a Salt Edge-style aggregator and maps
// them to canonical transaction groups.
type Adapter struct {
	client api
	cfg    *config.ImportConfig
	logger *logger.Logger
}

func NewAdapter(client api, cfg *config.ImportConfig, log *logger.Logger) *Adapter {
	return &Adapter{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}

// Fetch refreshes the configured connection, lists transactions for every
// configured account and maps them to single-leg groups. A refresh failure is
// logged but never aborts the fetch.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.TransactionGroup, error) {
	window, err := source.WindowFromConfig(a.cfg)
	if err != nil {
		return nil, err
	}

	if err := a.client.RefreshConnection(ctx, a.cfg.Connection); err != nil {
		a.logger.Warn(ctx, "Connection refresh failed, continuing with possibly stale data",
			"connection_id", a.cfg.Connection,
			"error", err,
		)
	}

	var groups []domain.TransactionGroup
	for _, accountID := range a.cfg.Accounts {
		transactions, err := a.client.ListTransactions(ctx, a.cfg.Connection, accountID)
		if err != nil {
			return nil, fmt.Errorf("%w: account %s: %v", domain.ErrSourceFetch, accountID, err)
		}

		kept := 0
		for _, tx := range transactions {
			date, err := tx.BusinessDate()
			if err != nil {
				return nil, fmt.Errorf("%w: transaction %s: bad date %q", domain.ErrSourceFetch, tx.ID, tx.MadeOn)
			}
			if !window.Contains(date) {
				continue
			}
			groups = append(groups, a.mapTransaction(tx, date))
			kept++
		}

		a.logger.Info(ctx, "Fetched aggregator transactions",
			"account_id", accountID,
			"total", len(transactions),
			"kept", kept,
		)
	}
	return groups, nil
}

// Accounts lists the accounts under the configured connection in the
// canonical external-account shape.
func (a *Adapter) Accounts(ctx context.Context) ([]domain.ExternalAccount, error) {
	accounts, err := a.client.ListAccounts(ctx, a.cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFetch, err)
	}

	external := make([]domain.ExternalAccount, 0, len(accounts))
	for _, account := range accounts {
		external = append(external, account.External())
	}
	return external, nil
}

func (a *Adapter) mapTransaction(tx Transaction, date time.Time) domain.TransactionGroup {
	leg := domain.Transaction{
		Date:         date,
		CurrencyCode: tx.CurrencyCode,
		Description:  tx.CleanDescription(),
		ExternalID:   tx.ID,
		Meta: domain.TransactionMeta{
			Category: tx.Category,
		},
	}

	amount, err := decimal.NewFromString(string(tx.Amount))
	if err != nil {
		amount = decimal.Zero
	}

	if amount.IsNegative() {
		leg.Type = domain.TransactionTypeWithdrawal
		leg.SourceID = a.cfg.DefaultAccountID
		leg.DestinationName = tx.Payee("destination")
	} else {
		leg.Type = domain.TransactionTypeDeposit
		leg.DestinationID = a.cfg.DefaultAccountID
		leg.SourceName = tx.Payee("source")
	}
	leg.Amount = amount.Abs().String()

	return domain.TransactionGroup{
		GroupTitle:   leg.Description,
		Transactions: []domain.Transaction{leg},
	}
}
