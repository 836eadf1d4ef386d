package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// Client talks to the external ledger API: account listings and one
// transaction-group submission per call. Timeouts apply per outbound call,
// never to a whole job.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logger.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// ListAccounts returns every ledger account of the given role, walking the
// API's pagination.
func (c *Client) ListAccounts(ctx context.Context, role domain.AccountRole) ([]domain.LedgerAccount, error) {
	apiType := string(role)
	if role == domain.AccountRoleLiability {
		apiType = "liabilities"
	}

	var accounts []domain.LedgerAccount
	page := 1
	for {
		endpoint := fmt.Sprintf("%s/v1/accounts?type=%s&page=%d", c.baseURL, url.QueryEscape(apiType), page)

		var result accountPage
		if err := c.get(ctx, endpoint, &result); err != nil {
			return nil, fmt.Errorf("list %s accounts: %w", role, err)
		}

		for _, entry := range result.Data {
			id, err := strconv.ParseInt(entry.ID, 10, 64)
			if err != nil {
				c.logger.Warn(ctx, "Skipping ledger account with non-numeric id",
					"id", entry.ID,
				)
				continue
			}
			accounts = append(accounts, domain.LedgerAccount{
				ID:           id,
				Name:         entry.Attributes.Name,
				IBAN:         entry.Attributes.IBAN,
				Number:       entry.Attributes.AccountNumber,
				CurrencyCode: entry.Attributes.CurrencyCode,
				Role:         roleFromType(entry.Attributes.Type),
			})
		}

		if result.Meta.Pagination.CurrentPage >= result.Meta.Pagination.TotalPages {
			break
		}
		page++
	}

	return accounts, nil
}

// AccountTypes resolves the role of every asset and liability account,
// keyed by account id. The submission engine caches this per job.
func (c *Client) AccountTypes(ctx context.Context) (map[int64]domain.AccountRole, error) {
	types := make(map[int64]domain.AccountRole)
	for _, role := range []domain.AccountRole{
		domain.AccountRoleAsset,
		domain.AccountRoleLiability,
		domain.AccountRoleExpense,
		domain.AccountRoleRevenue,
	} {
		accounts, err := c.ListAccounts(ctx, role)
		if err != nil {
			return nil, err
		}
		for _, account := range accounts {
			types[account.ID] = account.Role
		}
	}
	return types, nil
}

// FindAccount returns one ledger account by id.
func (c *Client) FindAccount(ctx context.Context, id int64) (domain.LedgerAccount, error) {
	endpoint := fmt.Sprintf("%s/v1/accounts/%d", c.baseURL, id)

	var result struct {
		Data accountEntry `json:"data"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return domain.LedgerAccount{}, fmt.Errorf("find account %d: %w", id, err)
	}

	return domain.LedgerAccount{
		ID:           id,
		Name:         result.Data.Attributes.Name,
		IBAN:         result.Data.Attributes.IBAN,
		Number:       result.Data.Attributes.AccountNumber,
		CurrencyCode: result.Data.Attributes.CurrencyCode,
		Role:         roleFromType(result.Data.Attributes.Type),
	}, nil
}

// SubmitGroup pushes one transaction group and classifies the response as
// success, duplicate or rejection. Transport failures are returned as
// errors; the caller decides whether they abort the batch.
func (c *Client) SubmitGroup(ctx context.Context, group domain.TransactionGroup, opts SubmitOptions) (SubmitResult, error) {
	payload := submitRequest{
		ErrorIfDuplicateHash: opts.DetectDuplicates,
		Transactions:         make([]submitTransaction, 0, len(group.Transactions)),
	}
	if len(group.Transactions) > 1 {
		payload.GroupTitle = group.GroupTitle
	}

	for _, tx := range group.Transactions {
		payload.Transactions = append(payload.Transactions, submitTransaction{
			Type:              string(tx.Type),
			Date:              tx.Date.Format("2006-01-02"),
			Amount:            tx.Amount,
			CurrencyID:        tx.CurrencyID,
			CurrencyCode:      tx.CurrencyCode,
			Description:       tx.Description,
			SourceID:          tx.SourceID,
			SourceName:        tx.SourceName,
			SourceIBAN:        tx.SourceIBAN,
			DestinationID:     tx.DestinationID,
			DestinationName:   tx.DestinationName,
			DestinationIBAN:   tx.DestinationIBAN,
			ExternalID:        tx.ExternalID,
			InternalReference: tx.InternalReference,
			Category:          tx.Meta.Category,
			Tags:              tx.Meta.Tags,
			Notes:             tx.Meta.Notes,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode transaction group: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("build submit request: %w", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit transaction group: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("read submit response: %w", err)
	}

	var decoded submitResponse
	// The body may not be JSON on hard failures; the status code decides.
	_ = json.Unmarshal(data, &decoded)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return SubmitResult{Outcome: OutcomeSuccess, Message: decoded.Message}, nil
	case resp.StatusCode == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(decoded.Message), "duplicate"):
		return SubmitResult{Outcome: OutcomeDuplicate, Message: decoded.Message}, nil
	default:
		message := decoded.Message
		if message == "" {
			message = strings.TrimSpace(string(data))
		}
		return SubmitResult{
			Outcome: OutcomeRejected,
			Message: fmt.Sprintf("ledger rejected group (HTTP %d): %s", resp.StatusCode, message),
		}, nil
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}
}
