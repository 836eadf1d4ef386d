package source

import (
	"context"

	"github.com/ledgerfeed/importer/internal/domain"
)

// Adapter turns one raw source (delimited file, aggregator) into canonical
// transaction groups. A failed fetch aborts that adapter only, surfaced as
// an error wrapping domain.ErrSourceFetch.
type Adapter interface {
	Fetch(ctx context.Context) ([]domain.TransactionGroup, error)
}
