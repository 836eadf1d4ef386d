package domain

import "time"

type TransactionType string

const (
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeTransfer   TransactionType = "transfer"
)

// Transaction is one leg of a transaction group, normalized to the shape the
// ledger API accepts. Amounts stay decimal strings end to end; the sign is
// carried by Type, not by the amount.
type Transaction struct {
	Type         TransactionType `json:"type"`
	Date         time.Time       `json:"date"`
	Amount       string          `json:"amount"`
	CurrencyID   int64           `json:"currency_id,omitempty"`
	CurrencyCode string          `json:"currency_code,omitempty"`
	Description  string          `json:"description"`

	// Source and destination are each one of ID, name or IBAN; when more
	// than one is set the ledger resolves ID over name over IBAN.
	SourceID        int64  `json:"source_id,omitempty"`
	SourceName      string `json:"source_name,omitempty"`
	SourceIBAN      string `json:"source_iban,omitempty"`
	DestinationID   int64  `json:"destination_id,omitempty"`
	DestinationName string `json:"destination_name,omitempty"`
	DestinationIBAN string `json:"destination_iban,omitempty"`

	// ExternalID and InternalReference are the idempotency cues under the
	// "cell" duplicate detection method; the configured cell type decides
	// which one the cue lands in.
	ExternalID        string `json:"external_id,omitempty"`
	InternalReference string `json:"internal_reference,omitempty"`

	// Meta is carried opaquely from source to submission.
	Meta TransactionMeta `json:"meta,omitempty"`
}

// TransactionMeta is free-form metadata that rides along with a transaction
// without the pipeline ever interpreting it.
type TransactionMeta struct {
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// TransactionGroup is an ordered set of legs sharing one user-visible title
// (split transaction support). A group always has at least one transaction.
type TransactionGroup struct {
	GroupTitle   string        `json:"group_title"`
	Transactions []Transaction `json:"transactions"`
}

// AccountState is the degradation tag set by best-effort account enrichment.
type AccountState string

const (
	AccountStateNoInfo    AccountState = "no-info"
	AccountStateNothing   AccountState = "nothing"
	AccountStateNoBalance AccountState = "no-balance"
)

type Balance struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// ExternalAccount is an account as reported by an aggregator. Enrichment may
// progressively fill Name and IBAN; everything else is fixed at creation.
type ExternalAccount struct {
	Identifier   string    `json:"identifier"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name,omitempty"`
	IBAN         string    `json:"iban,omitempty"`
	Number       string    `json:"number,omitempty"`
	CurrencyCode string    `json:"currency_code,omitempty"`
	Status       string    `json:"status,omitempty"`
	Balances     []Balance `json:"balances,omitempty"`
}

type AccountRole string

const (
	AccountRoleAsset     AccountRole = "asset"
	AccountRoleLiability AccountRole = "liability"
	AccountRoleExpense   AccountRole = "expense"
	AccountRoleRevenue   AccountRole = "revenue"
)

// LedgerAccount is owned by the ledger API and read-only here.
type LedgerAccount struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	IBAN         string      `json:"iban,omitempty"`
	Number       string      `json:"number,omitempty"`
	CurrencyCode string      `json:"currency_code,omitempty"`
	Role         AccountRole `json:"role"`
}

// AccountMatch pairs one external account with its candidate ledger
// accounts. Zero or multiple candidates means the caller must disambiguate.
type AccountMatch struct {
	External   ExternalAccount `json:"external"`
	Candidates []LedgerAccount `json:"candidates"`
}

type JobPhase string

const (
	JobPhaseNotStarted JobPhase = "not-started"
	JobPhaseRunning    JobPhase = "running"
	JobPhaseDone       JobPhase = "done"
	JobPhaseErrored    JobPhase = "errored"
)

// JobStatus tracks one phase (conversion or submission) of an import job.
// The message, warning and error collections are keyed by the zero-based
// record index they originate from; job-level entries land on index 0.
type JobStatus struct {
	Identifier string           `json:"identifier"`
	Phase      JobPhase         `json:"phase"`
	Messages   map[int][]string `json:"messages"`
	Warnings   map[int][]string `json:"warnings"`
	Errors     map[int][]string `json:"errors"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewJobStatus(identifier string) *JobStatus {
	now := time.Now()
	return &JobStatus{
		Identifier: identifier,
		Phase:      JobPhaseNotStarted,
		Messages:   make(map[int][]string),
		Warnings:   make(map[int][]string),
		Errors:     make(map[int][]string),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Terminal reports whether the phase accepts no further transitions.
func (p JobPhase) Terminal() bool {
	return p == JobPhaseDone || p == JobPhaseErrored
}
