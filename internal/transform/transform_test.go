package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

func testPipeline() *Pipeline {
	account := domain.LedgerAccount{ID: 7, Name: "Checking", Role: domain.AccountRoleAsset}
	return NewPipeline(account, 1, logger.NewNop())
}

func group(txs ...domain.Transaction) domain.TransactionGroup {
	return domain.TransactionGroup{GroupTitle: "test group", Transactions: txs}
}

func TestPositiveAmount(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		want   string
	}{
		{"negative", "-12.34", "12.34"},
		{"positive", "12.34", "12.34"},
		{"missing", "", "0"},
		{"malformed", "abc", "0"},
		{"zero", "0", "0"},
		{"negative integer", "-500", "500"},
	}

	unit := &PositiveAmount{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := group(domain.Transaction{Type: domain.TransactionTypeWithdrawal, Amount: tc.amount})
			out := unit.Apply(in)
			assert.Equal(t, tc.want, out.Transactions[0].Amount)
		})
	}
}

func TestPositiveAmount_DoesNotMutateInput(t *testing.T) {
	in := group(domain.Transaction{Type: domain.TransactionTypeWithdrawal, Amount: "-1"})
	unit := &PositiveAmount{}
	_ = unit.Apply(in)
	assert.Equal(t, "-1", in.Transactions[0].Amount)
}

func TestEmptyAccounts_Withdrawal(t *testing.T) {
	unit := &EmptyAccounts{}

	out := unit.Apply(group(domain.Transaction{Type: domain.TransactionTypeWithdrawal}))
	assert.Equal(t, NoNamePlaceholder, out.Transactions[0].DestinationName)
	assert.Empty(t, out.Transactions[0].SourceName)

	// Any destination hint suppresses the placeholder.
	out = unit.Apply(group(domain.Transaction{
		Type:            domain.TransactionTypeWithdrawal,
		DestinationIBAN: "NL91ABNA0417164300",
	}))
	assert.Empty(t, out.Transactions[0].DestinationName)
}

func TestEmptyAccounts_Deposit(t *testing.T) {
	unit := &EmptyAccounts{}

	out := unit.Apply(group(domain.Transaction{Type: domain.TransactionTypeDeposit}))
	assert.Equal(t, NoNamePlaceholder, out.Transactions[0].SourceName)

	out = unit.Apply(group(domain.Transaction{
		Type:     domain.TransactionTypeDeposit,
		SourceID: 3,
	}))
	assert.Empty(t, out.Transactions[0].SourceName)
}

func TestEmptyAccounts_TransferUntouched(t *testing.T) {
	unit := &EmptyAccounts{}
	out := unit.Apply(group(domain.Transaction{Type: domain.TransactionTypeTransfer}))
	assert.Empty(t, out.Transactions[0].SourceName)
	assert.Empty(t, out.Transactions[0].DestinationName)
}

func TestDefaultCurrency(t *testing.T) {
	unit := &DefaultCurrency{}
	unit.SetDefaultCurrency(12)

	out := unit.Apply(group(domain.Transaction{Type: domain.TransactionTypeDeposit}))
	assert.Equal(t, int64(12), out.Transactions[0].CurrencyID)

	// An existing code wins over the default.
	out = unit.Apply(group(domain.Transaction{Type: domain.TransactionTypeDeposit, CurrencyCode: "USD"}))
	assert.Equal(t, int64(0), out.Transactions[0].CurrencyID)
	assert.Equal(t, "USD", out.Transactions[0].CurrencyCode)

	// An existing id wins too.
	out = unit.Apply(group(domain.Transaction{Type: domain.TransactionTypeDeposit, CurrencyID: 4}))
	assert.Equal(t, int64(4), out.Transactions[0].CurrencyID)
}

func TestPipeline_Run(t *testing.T) {
	p := testPipeline()
	ctx := context.Background()

	groups := []domain.TransactionGroup{
		group(
			domain.Transaction{Type: domain.TransactionTypeWithdrawal, Amount: "-10.50"},
			domain.Transaction{Type: domain.TransactionTypeDeposit, Amount: "", CurrencyCode: "EUR"},
		),
	}

	out := p.Run(ctx, groups)
	require.Len(t, out, 1)
	require.Len(t, out[0].Transactions, 2)

	first := out[0].Transactions[0]
	assert.Equal(t, "10.5", first.Amount)
	assert.Equal(t, NoNamePlaceholder, first.DestinationName)
	assert.Equal(t, int64(1), first.CurrencyID)

	second := out[0].Transactions[1]
	assert.Equal(t, "0", second.Amount)
	assert.Equal(t, NoNamePlaceholder, second.SourceName)
	assert.Equal(t, "EUR", second.CurrencyCode)
	assert.Equal(t, int64(0), second.CurrencyID)
}

func TestPipeline_AmountsNeverNegative(t *testing.T) {
	p := testPipeline()
	ctx := context.Background()

	groups := []domain.TransactionGroup{
		group(domain.Transaction{Type: domain.TransactionTypeWithdrawal, Amount: "-1.23"}),
		group(domain.Transaction{Type: domain.TransactionTypeDeposit, Amount: "-999"}),
		group(domain.Transaction{Type: domain.TransactionTypeTransfer, Amount: ""}),
	}

	for _, g := range p.Run(ctx, groups) {
		for _, tx := range g.Transactions {
			assert.NotContains(t, tx.Amount, "-")
		}
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	p := testPipeline()
	ctx := context.Background()

	groups := []domain.TransactionGroup{
		group(
			domain.Transaction{Type: domain.TransactionTypeWithdrawal, Amount: "-10.50"},
			domain.Transaction{Type: domain.TransactionTypeDeposit},
		),
	}

	once := p.Run(ctx, groups)
	twice := p.Run(ctx, once)
	assert.Equal(t, once, twice)
}
