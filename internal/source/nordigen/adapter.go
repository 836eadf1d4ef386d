package nordigen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/internal/source"
	"github.com/ledgerfeed/importer/pkg/logger"
	"github.com/ledgerfeed/importer/pkg/retry"
)

type api interface {
	enrichClient
	ListAccountIDs(ctx context.Context, requisitionID string) ([]string, error)
	ListTransactions(ctx context.Context, accountID string) ([]Transaction, error)
}

// Adapter fetches transactions through a Nordigen-style aggregator. Accounts
// are downloaded concurrently by a bounded worker pool.
type Adapter struct {
	client   api
	cfg      *config.ImportConfig
	enricher *Enricher
	workers  int
	retries  int
	logger   *logger.Logger
}

func NewAdapter(client api, cfg *config.ImportConfig, fetch config.FetchConfig, log *logger.Logger) *Adapter {
	workers := fetch.WorkerCount
	if workers < 1 {
		workers = 1
	}
	return &Adapter{
		client:   client,
		cfg:      cfg,
		enricher: NewEnricher(client, fetch.MaxRetries, log),
		workers:  workers,
		retries:  fetch.MaxRetries,
		logger:   log,
	}
}

// Fetch downloads the booked transactions of every configured account and
// maps them to single-leg groups. Results keep the configured account order
// regardless of which worker finished first.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.TransactionGroup, error) {
	window, err := source.WindowFromConfig(a.cfg)
	if err != nil {
		return nil, err
	}

	accountIDs, err := a.accountIDs(ctx)
	if err != nil {
		return nil, err
	}

	type result struct {
		groups []domain.TransactionGroup
		err    error
	}
	results := make([]result, len(accountIDs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				groups, err := a.fetchAccount(ctx, accountIDs[i], window)
				results[i] = result{groups: groups, err: err}
			}
		}()
	}
	for i := range accountIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var groups []domain.TransactionGroup
	for i, res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("%w: account %s: %v", domain.ErrSourceFetch, accountIDs[i], res.err)
		}
		groups = append(groups, res.groups...)
	}
	return groups, nil
}

// Accounts enriches every configured account for matching against the
// ledger's own accounts.
func (a *Adapter) Accounts(ctx context.Context) ([]domain.ExternalAccount, error) {
	accountIDs, err := a.accountIDs(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.ExternalAccount, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		account, state := a.enricher.Enrich(ctx, accountID)
		if state != "" {
			a.logger.Info(ctx, "Account enrichment degraded",
				"account_id", accountID,
				"state", string(state),
			)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (a *Adapter) accountIDs(ctx context.Context) ([]string, error) {
	if len(a.cfg.Accounts) > 0 {
		return a.cfg.Accounts, nil
	}

	ids, err := a.client.ListAccountIDs(ctx, a.cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: requisition %s: %v", domain.ErrSourceFetch, a.cfg.Connection, err)
	}
	return ids, nil
}

func (a *Adapter) fetchAccount(ctx context.Context, accountID string, window source.DateWindow) ([]domain.TransactionGroup, error) {
	var transactions []Transaction
	err := retry.Do(ctx, func() error {
		var err error
		transactions, err = a.client.ListTransactions(ctx, accountID)
		return err
	}, retry.WithMaxAttempts(a.retries))
	if err != nil {
		return nil, err
	}

	var groups []domain.TransactionGroup
	for _, tx := range transactions {
		date, err := tx.BusinessDate()
		if err != nil {
			return nil, fmt.Errorf("transaction %s: bad booking date %q", tx.TransactionID, tx.BookingDate)
		}
		if !window.Contains(date) {
			continue
		}
		groups = append(groups, a.mapTransaction(tx, date))
	}

	a.logger.Info(ctx, "Fetched aggregator transactions",
		"account_id", accountID,
		"total", len(transactions),
		"kept", len(groups),
	)
	return groups, nil
}

func (a *Adapter) mapTransaction(tx Transaction, date time.Time) domain.TransactionGroup {
	description := tx.RemittanceInformationUnstructured
	if description == "" {
		description = "(no description)"
	}

	leg := domain.Transaction{
		Date:         date,
		CurrencyCode: tx.TransactionAmount.Currency,
		Description:  description,
		ExternalID:   tx.TransactionID,
	}

	amount, err := decimal.NewFromString(tx.TransactionAmount.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	if amount.IsNegative() {
		leg.Type = domain.TransactionTypeWithdrawal
		leg.SourceID = a.cfg.DefaultAccountID
		leg.DestinationName = tx.CreditorName
		leg.DestinationIBAN = tx.CreditorAccount.IBAN
		if leg.DestinationName == "" && leg.DestinationIBAN == "" {
			leg.DestinationName = "(unknown destination account)"
		}
	} else {
		leg.Type = domain.TransactionTypeDeposit
		leg.DestinationID = a.cfg.DefaultAccountID
		leg.SourceName = tx.DebtorName
		leg.SourceIBAN = tx.DebtorAccount.IBAN
		if leg.SourceName == "" && leg.SourceIBAN == "" {
			leg.SourceName = "(unknown source account)"
		}
	}
	leg.Amount = amount.Abs().String()

	return domain.TransactionGroup{
		GroupTitle:   leg.Description,
		Transactions: []domain.Transaction{leg},
	}
}
