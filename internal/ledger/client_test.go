package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, "token-1", time.Second, logger.NewNop())
}

func TestListAccounts_WalksPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "liabilities", r.URL.Query().Get("type"))

		page := r.URL.Query().Get("page")
		if page == "1" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"id": "3", "attributes": map[string]string{"name": "Loan", "type": "liabilities"}},
				},
				"meta": map[string]interface{}{
					"pagination": map[string]int{"current_page": 1, "total_pages": 2},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "4", "attributes": map[string]string{"name": "Mortgage", "type": "liabilities"}},
			},
			"meta": map[string]interface{}{
				"pagination": map[string]int{"current_page": 2, "total_pages": 2},
			},
		})
	}))
	defer srv.Close()

	accounts, err := newTestClient(srv).ListAccounts(context.Background(), domain.AccountRoleLiability)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(3), accounts[0].ID)
	assert.Equal(t, domain.AccountRoleLiability, accounts[0].Role)
	assert.Equal(t, "Mortgage", accounts[1].Name)
}

func TestListAccounts_SkipsNonNumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "abc", "attributes": map[string]string{"name": "Weird", "type": "asset"}},
				{"id": "5", "attributes": map[string]string{"name": "Main", "type": "asset"}},
			},
			"meta": map[string]interface{}{
				"pagination": map[string]int{"current_page": 1, "total_pages": 1},
			},
		})
	}))
	defer srv.Close()

	accounts, err := newTestClient(srv).ListAccounts(context.Background(), domain.AccountRoleAsset)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(5), accounts[0].ID)
}

func TestSubmitGroup_Success(t *testing.T) {
	var received submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "stored"})
	}))
	defer srv.Close()

	group := domain.TransactionGroup{
		GroupTitle: "Groceries",
		Transactions: []domain.Transaction{
			{
				Type:              domain.TransactionTypeWithdrawal,
				Amount:            "12.5",
				Description:       "Groceries",
				SourceID:          7,
				ExternalID:        "REF-001",
				InternalReference: "ROW-17",
			},
		},
	}

	result, err := newTestClient(srv).SubmitGroup(context.Background(), group, SubmitOptions{DetectDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "stored", result.Message)

	assert.True(t, received.ErrorIfDuplicateHash)
	// Single-leg groups carry no group title.
	assert.Empty(t, received.GroupTitle)
	require.Len(t, received.Transactions, 1)
	assert.Equal(t, "withdrawal", received.Transactions[0].Type)
	assert.Equal(t, "REF-001", received.Transactions[0].ExternalID)
	assert.Equal(t, "ROW-17", received.Transactions[0].InternalReference)
}

func TestSubmitGroup_MultiLegCarriesTitle(t *testing.T) {
	var received submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "stored"})
	}))
	defer srv.Close()

	group := domain.TransactionGroup{
		GroupTitle: "Split purchase",
		Transactions: []domain.Transaction{
			{Type: domain.TransactionTypeWithdrawal, Amount: "10", Description: "Part one"},
			{Type: domain.TransactionTypeWithdrawal, Amount: "5", Description: "Part two"},
		},
	}

	_, err := newTestClient(srv).SubmitGroup(context.Background(), group, SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Split purchase", received.GroupTitle)
}

func TestSubmitGroup_Duplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Duplicate of transaction #42."})
	}))
	defer srv.Close()

	result, err := newTestClient(srv).SubmitGroup(context.Background(), domain.TransactionGroup{
		Transactions: []domain.Transaction{{Type: domain.TransactionTypeDeposit, Amount: "1"}},
	}, SubmitOptions{DetectDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
}

func TestSubmitGroup_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid source account."})
	}))
	defer srv.Close()

	result, err := newTestClient(srv).SubmitGroup(context.Background(), domain.TransactionGroup{
		Transactions: []domain.Transaction{{Type: domain.TransactionTypeDeposit, Amount: "1"}},
	}, SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Contains(t, result.Message, "HTTP 422")
	assert.Contains(t, result.Message, "Invalid source account.")
}

func TestFindAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id": "7",
				"attributes": map[string]string{
					"name": "Main checking",
					"iban": "NL91ABNA0417164300",
					"type": "asset",
				},
			},
		})
	}))
	defer srv.Close()

	account, err := newTestClient(srv).FindAccount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.Equal(t, "Main checking", account.Name)
	assert.Equal(t, domain.AccountRoleAsset, account.Role)
}
