package saltedge

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

// AuthStatus classifies a credential check against the aggregator.
type AuthStatus string

const (
	AuthStatusNoData        AuthStatus = "no-data"
	AuthStatusError         AuthStatus = "error"
	AuthStatusAuthenticated AuthStatus = "authenticated"
)

// Client talks to a Salt Edge-style aggregator. Authentication is an app id
// plus secret pair obtained out of band.
type Client struct {
	baseURL string
	appID   string
	secret  string
	http    *http.Client
	logger  *logger.Logger
}

func NewClient(baseURL, appID, secret string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// Validate checks the configured credential by listing customers.
func (c *Client) Validate(ctx context.Context) AuthStatus {
	if c.appID == "" || c.secret == "" {
		return AuthStatusNoData
	}

	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, c.baseURL+"/customers", &out); err != nil {
		c.logger.Error(ctx, "Aggregator credential check failed",
			"error", err,
		)
		return AuthStatusError
	}
	return AuthStatusAuthenticated
}

// RefreshConnection asks the aggregator to refresh a connection's session.
func (c *Client) RefreshConnection(ctx context.Context, connectionID string) error {
	endpoint := fmt.Sprintf("%s/connections/%s/refresh", c.baseURL, url.PathEscape(connectionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("refresh connection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("refresh connection: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// ListAccounts returns the accounts under one connection.
func (c *Client) ListAccounts(ctx context.Context, connectionID string) ([]Account, error) {
	var accounts []Account
	fromID := ""
	for {
		endpoint := fmt.Sprintf("%s/accounts?connection_id=%s", c.baseURL, url.QueryEscape(connectionID))
		if fromID != "" {
			endpoint += "&from_id=" + url.QueryEscape(fromID)
		}

		var out struct {
			Data []Account `json:"data"`
			Meta struct {
				NextID string `json:"next_id"`
			} `json:"meta"`
		}
		if err := c.get(ctx, endpoint, &out); err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}

		accounts = append(accounts, out.Data...)
		if out.Meta.NextID == "" {
			break
		}
		fromID = out.Meta.NextID
	}
	return accounts, nil
}

// ListTransactions walks the aggregator's pagination for one account.
func (c *Client) ListTransactions(ctx context.Context, connectionID, accountID string) ([]Transaction, error) {
	var transactions []Transaction
	fromID := ""
	for {
		endpoint := fmt.Sprintf("%s/transactions?connection_id=%s&account_id=%s",
			c.baseURL, url.QueryEscape(connectionID), url.QueryEscape(accountID))
		if fromID != "" {
			endpoint += "&from_id=" + url.QueryEscape(fromID)
		}

		var out struct {
			Data []Transaction `json:"data"`
			Meta struct {
				NextID string `json:"next_id"`
			} `json:"meta"`
		}
		if err := c.get(ctx, endpoint, &out); err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}

		transactions = append(transactions, out.Data...)
		if out.Meta.NextID == "" {
			break
		}
		fromID = out.Meta.NextID
	}
	return transactions, nil
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
	req.Header.Set("App-Id", c.appID)
	req.Header.Set("Secret", c.secret)
	req.Header.Set("Accept", "application/json")
	if req.Method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
}
