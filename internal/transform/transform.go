package transform

import (
	"context"
	"fmt"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// Transform is one corrective unit in the conversion pipeline. Apply is a
// pure function over a group: it always returns a (possibly unchanged)
// group and defensively defaults malformed input instead of failing.
// Re-applying a transform to an already-normalized group is a no-op.
type Transform interface {
	Apply(group domain.TransactionGroup) domain.TransactionGroup

	// NeedsDefaultAccount and NeedsCurrency tell the pipeline which
	// defaults to inject before invocation.
	NeedsDefaultAccount() bool
	NeedsCurrency() bool
}

type accountAware interface {
	SetDefaultAccount(account domain.LedgerAccount)
}

type currencyAware interface {
	SetDefaultCurrency(currencyID int64)
}

// Pipeline applies a closed, ordered set of transforms to every group.
// Later units may rely on the normalization done by earlier ones, so the
// registration order is fixed.
type Pipeline struct {
	transforms        []Transform
	defaultAccount    domain.LedgerAccount
	defaultCurrencyID int64
	logger            *logger.Logger
}

func NewPipeline(defaultAccount domain.LedgerAccount, defaultCurrencyID int64, log *logger.Logger) *Pipeline {
	return &Pipeline{
		transforms: []Transform{
			&PositiveAmount{},
			&EmptyAccounts{},
			&DefaultCurrency{},
		},
		defaultAccount:    defaultAccount,
		defaultCurrencyID: defaultCurrencyID,
		logger:            log,
	}
}

// Run normalizes every group through the full transform chain.
func (p *Pipeline) Run(ctx context.Context, groups []domain.TransactionGroup) []domain.TransactionGroup {
	result := make([]domain.TransactionGroup, len(groups))
	copy(result, groups)

	for _, t := range p.transforms {
		if t.NeedsDefaultAccount() {
			if aware, ok := t.(accountAware); ok {
				aware.SetDefaultAccount(p.defaultAccount)
			}
		}
		if t.NeedsCurrency() {
			if aware, ok := t.(currencyAware); ok {
				aware.SetDefaultCurrency(p.defaultCurrencyID)
			}
		}

		p.logger.Debug(ctx, "Applying transform",
			"transform", fmt.Sprintf("%T", t),
			"groups", len(result),
		)

		for i := range result {
			result[i] = t.Apply(result[i])
		}
	}

	return result
}
