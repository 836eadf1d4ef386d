package ledger

import "github.com/ledgerfeed/importer/internal/domain"

// Outcome classifies one transaction-group submission.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
)

// SubmitResult carries the classified outcome plus any server-returned
// informational message.
type SubmitResult struct {
	Outcome Outcome
	Message string
}

// SubmitOptions selects the duplicate detection strategy for one call.
type SubmitOptions struct {
	// DetectDuplicates asks the ledger to reject groups it has seen before
	// (the "classic" description+date+amount heuristic). The "cell" method
	// additionally relies on per-transaction external ids already present
	// on the group.
	DetectDuplicates bool
}

type accountPage struct {
	Data []accountEntry `json:"data"`
	Meta pageMeta       `json:"meta"`
}

type accountEntry struct {
	ID         string            `json:"id"`
	Attributes accountAttributes `json:"attributes"`
}

type accountAttributes struct {
	Name          string `json:"name"`
	IBAN          string `json:"iban"`
	AccountNumber string `json:"account_number"`
	CurrencyCode  string `json:"currency_code"`
	Type          string `json:"type"`
}

type pageMeta struct {
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type submitRequest struct {
	GroupTitle           string              `json:"group_title,omitempty"`
	ErrorIfDuplicateHash bool                `json:"error_if_duplicate_hash"`
	Transactions         []submitTransaction `json:"transactions"`
}

type submitTransaction struct {
	Type              string   `json:"type"`
	Date              string   `json:"date"`
	Amount            string   `json:"amount"`
	CurrencyID        int64    `json:"currency_id,omitempty"`
	CurrencyCode      string   `json:"currency_code,omitempty"`
	Description       string   `json:"description"`
	SourceID          int64    `json:"source_id,omitempty"`
	SourceName        string   `json:"source_name,omitempty"`
	SourceIBAN        string   `json:"source_iban,omitempty"`
	DestinationID     int64    `json:"destination_id,omitempty"`
	DestinationName   string   `json:"destination_name,omitempty"`
	DestinationIBAN   string   `json:"destination_iban,omitempty"`
	ExternalID        string   `json:"external_id,omitempty"`
	InternalReference string   `json:"internal_reference,omitempty"`
	Category          string   `json:"category_name,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

type submitResponse struct {
	Message string `json:"message"`
}

func roleFromType(accountType string) domain.AccountRole {
	switch accountType {
	case "asset":
		return domain.AccountRoleAsset
	case "liabilities", "liability":
		return domain.AccountRoleLiability
	case "expense":
		return domain.AccountRoleExpense
	case "revenue":
		return domain.AccountRoleRevenue
	}
	return domain.AccountRole(accountType)
}
