package transform

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/importer/internal/domain"
)

// PositiveAmount makes sure every amount is a non-negative decimal string.
// Direction is carried by the transaction type, never by the sign.
type PositiveAmount struct{}

func (t *PositiveAmount) Apply(group domain.TransactionGroup) domain.TransactionGroup {
	transactions := make([]domain.Transaction, len(group.Transactions))
	copy(transactions, group.Transactions)

	for i := range transactions {
		if transactions[i].Amount == "" {
			transactions[i].Amount = "0"
		}
		d, err := decimal.NewFromString(transactions[i].Amount)
		if err != nil {
			transactions[i].Amount = "0"
			continue
		}
		transactions[i].Amount = d.Abs().String()
	}

	group.Transactions = transactions
	return group
}

func (t *PositiveAmount) NeedsDefaultAccount() bool {
	return false
}

func (t *PositiveAmount) NeedsCurrency() bool {
	return false
}
