package nordigen

import "time"

// AccountDetail is the full detail record for one account. Not every bank
// fills every field.
type AccountDetail struct {
	IBAN      string `json:"iban"`
	Name      string `json:"name"`
	OwnerName string `json:"ownerName"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

// AccountMeta is the basic metadata record, available even when the detail
// endpoint is refused.
type AccountMeta struct {
	ID     string `json:"id"`
	IBAN   string `json:"iban"`
	Status string `json:"status"`
}

type Balance struct {
	BalanceAmount Amount `json:"balanceAmount"`
	BalanceType   string `json:"balanceType"`
}

type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Transaction is one booked transaction as the aggregator reports it.
type Transaction struct {
	TransactionID                     string      `json:"transactionId"`
	BookingDate                       string      `json:"bookingDate"`
	TransactionAmount                 Amount      `json:"transactionAmount"`
	CreditorName                      string      `json:"creditorName"`
	CreditorAccount                   BankAccount `json:"creditorAccount"`
	DebtorName                        string      `json:"debtorName"`
	DebtorAccount                     BankAccount `json:"debtorAccount"`
	RemittanceInformationUnstructured string      `json:"remittanceInformationUnstructured"`
}

type BankAccount struct {
	IBAN string `json:"iban"`
}

// BusinessDate parses the transaction's booking date.
func (t Transaction) BusinessDate() (time.Time, error) {
	return time.Parse("2006-01-02", t.BookingDate)
}
