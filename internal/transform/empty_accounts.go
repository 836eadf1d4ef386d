package transform

import "github.com/ledgerfeed/importer/internal/domain"

// NoNamePlaceholder is filled in when a counterparty has no name, no id and
// no IBAN at all.
const NoNamePlaceholder = "(no name)"

// EmptyAccounts gives a withdrawal without any destination, or a deposit
// without any source, a placeholder counterparty name. Transfers are left
// alone.
type EmptyAccounts struct {
	// Held for resolving placeholder counterparties against the owning
	// account; Apply does not read it yet.
	defaultAccount domain.LedgerAccount
}

func (t *EmptyAccounts) Apply(group domain.TransactionGroup) domain.TransactionGroup {
	transactions := make([]domain.Transaction, len(group.Transactions))
	copy(transactions, group.Transactions)

	for i := range transactions {
		tx := &transactions[i]
		switch tx.Type {
		case domain.TransactionTypeWithdrawal:
			if tx.DestinationName == "" && tx.DestinationID == 0 && tx.DestinationIBAN == "" {
				tx.DestinationName = NoNamePlaceholder
			}
		case domain.TransactionTypeDeposit:
			if tx.SourceName == "" && tx.SourceID == 0 && tx.SourceIBAN == "" {
				tx.SourceName = NoNamePlaceholder
			}
		}
	}

	group.Transactions = transactions
	return group
}

func (t *EmptyAccounts) NeedsDefaultAccount() bool {
	return true
}

func (t *EmptyAccounts) NeedsCurrency() bool {
	return false
}

func (t *EmptyAccounts) SetDefaultAccount(account domain.LedgerAccount) {
	t.defaultAccount = account
}
