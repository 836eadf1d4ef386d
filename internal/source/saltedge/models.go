package saltedge

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ledgerfeed/importer/internal/domain"
)

// DecimalString carries a decimal value as its exact wire text. The
// aggregator serves amounts as JSON numbers, older payloads as strings;
// both decode without losing precision.
type DecimalString string

func (d *DecimalString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DecimalString(s)
		return nil
	}
	*d = DecimalString(data)
	return nil
}

// Transaction is one aggregator-reported transaction. Amounts arrive as
// JSON numbers but are carried as strings to keep full precision.
type Transaction struct {
	ID           string           `json:"id"`
	Mode         string           `json:"mode"`
	Status       string           `json:"status"`
	MadeOn       string           `json:"made_on"`
	Amount       DecimalString    `json:"amount"`
	CurrencyCode string           `json:"currency_code"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	Duplicated   bool             `json:"duplicated"`
	AccountID    string           `json:"account_id"`
	Extra        TransactionExtra `json:"extra"`
}

type TransactionExtra struct {
	Payee            string `json:"payee,omitempty"`
	PayeeInformation string `json:"payee_information,omitempty"`
	AdditionalInfo   string `json:"additional,omitempty"`
}

// BusinessDate parses the transaction's made-on date.
func (t Transaction) BusinessDate() (time.Time, error) {
	return time.Parse("2006-01-02", t.MadeOn)
}

// CleanDescription trims the description, appends any additional info and
// falls back to a placeholder when both are empty.
func (t Transaction) CleanDescription() string {
	description := strings.TrimSpace(t.Description)
	if description == "" {
		description = "(no description)"
	}
	if additional := strings.TrimSpace(t.Extra.AdditionalInfo); additional != "" {
		description = strings.TrimSpace(description + " " + additional)
	}
	return description
}

// Payee names the counterparty for the given direction, with a placeholder
// when the aggregator reported none.
func (t Transaction) Payee(direction string) string {
	if t.Extra.Payee != "" {
		return t.Extra.Payee
	}
	if t.Extra.PayeeInformation != "" {
		return t.Extra.PayeeInformation
	}
	return "(unknown " + direction + " account)"
}

// Account is an aggregator-reported account.
type Account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Nature       string        `json:"nature"`
	Balance      DecimalString `json:"balance"`
	CurrencyCode string        `json:"currency_code"`
	Extra        AccountExtra  `json:"extra"`
}

type AccountExtra struct {
	IBAN          string `json:"iban,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	Status        string `json:"status,omitempty"`
}

// External converts the account to the canonical external-account shape.
func (a Account) External() domain.ExternalAccount {
	account := domain.ExternalAccount{
		Identifier:   a.ID,
		Name:         a.Name,
		IBAN:         a.Extra.IBAN,
		Number:       a.Extra.AccountNumber,
		CurrencyCode: a.CurrencyCode,
		Status:       a.Extra.Status,
	}
	if a.Balance != "" {
		account.Balances = []domain.Balance{
			{Type: "current", Amount: string(a.Balance), Currency: a.CurrencyCode},
		}
	}
	return account
}
