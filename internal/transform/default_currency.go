package transform

import "github.com/ledgerfeed/importer/internal/domain"

// DefaultCurrency assigns the injected default currency id to transactions
// that carry neither a currency id nor a currency code.
type DefaultCurrency struct {
	currencyID int64
}

func (t *DefaultCurrency) Apply(group domain.TransactionGroup) domain.TransactionGroup {
	transactions := make([]domain.Transaction, len(group.Transactions))
	copy(transactions, group.Transactions)

	for i := range transactions {
		tx := &transactions[i]
		if tx.CurrencyID == 0 && tx.CurrencyCode == "" {
			tx.CurrencyID = t.currencyID
			tx.CurrencyCode = ""
		}
	}

	group.Transactions = transactions
	return group
}

func (t *DefaultCurrency) NeedsDefaultAccount() bool {
	return false
}

func (t *DefaultCurrency) NeedsCurrency() bool {
	return true
}

func (t *DefaultCurrency) SetDefaultCurrency(currencyID int64) {
	t.currencyID = currencyID
}
