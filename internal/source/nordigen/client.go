package nordigen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledgerfeed/importer/pkg/logger"
)

// Client talks to a Nordigen-style aggregator using a bearer token obtained
// out of band.
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

// ListAccountIDs returns the account identifiers under one requisition.
func (c *Client) ListAccountIDs(ctx context.Context, requisitionID string) ([]string, error) {
	var out struct {
		Accounts []string `json:"accounts"`
	}
	endpoint := fmt.Sprintf("%s/requisitions/%s/", c.baseURL, url.PathEscape(requisitionID))
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("list requisition accounts: %w", err)
	}
	return out.Accounts, nil
}

// AccountDetails fetches the full detail record for one account.
func (c *Client) AccountDetails(ctx context.Context, accountID string) (AccountDetail, error) {
	var out struct {
		Account AccountDetail `json:"account"`
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/details/", c.baseURL, url.PathEscape(accountID))
	if err := c.get(ctx, endpoint, &out); err != nil {
		return AccountDetail{}, fmt.Errorf("account details: %w", err)
	}
	return out.Account, nil
}

// AccountBalances fetches the balance set for one account.
func (c *Client) AccountBalances(ctx context.Context, accountID string) ([]Balance, error) {
	var out struct {
		Balances []Balance `json:"balances"`
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/balances/", c.baseURL, url.PathEscape(accountID))
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("account balances: %w", err)
	}
	return out.Balances, nil
}

// AccountBasic fetches the always-available metadata record.
func (c *Client) AccountBasic(ctx context.Context, accountID string) (AccountMeta, error) {
	var out AccountMeta
	endpoint := fmt.Sprintf("%s/accounts/%s/", c.baseURL, url.PathEscape(accountID))
	if err := c.get(ctx, endpoint, &out); err != nil {
		return AccountMeta{}, fmt.Errorf("account metadata: %w", err)
	}
	return out, nil
}

// ListTransactions returns the booked transactions of one account. Pending
// transactions are not imported.
func (c *Client) ListTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	var out struct {
		Transactions struct {
			Booked  []Transaction `json:"booked"`
			Pending []Transaction `json:"pending"`
		} `json:"transactions"`
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions/", c.baseURL, url.PathEscape(accountID))
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out.Transactions.Booked, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

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
