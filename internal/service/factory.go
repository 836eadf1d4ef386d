package service

import (
	"context"
	"fmt"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/internal/source"
	"github.com/ledgerfeed/importer/internal/source/nordigen"
	"github.com/ledgerfeed/importer/internal/source/saltedge"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// AccountSource lists the external accounts behind one import configuration.
// Only aggregator flows can do this; a delimited file has no account listing.
type AccountSource interface {
	Accounts(ctx context.Context) ([]domain.ExternalAccount, error)
}

// AdapterFactory builds the source adapter matching an import configuration's
// flow.
type AdapterFactory interface {
	Adapter(cfg *config.ImportConfig, content []byte) (source.Adapter, error)
	AccountSource(cfg *config.ImportConfig) (AccountSource, error)
}

type adapterFactory struct {
	saltedge *saltedge.Client
	nordigen *nordigen.Client
	fetch    config.FetchConfig
	logger   *logger.Logger
}

func NewAdapterFactory(se *saltedge.Client, ng *nordigen.Client, fetch config.FetchConfig, log *logger.Logger) AdapterFactory {
	return &adapterFactory{
		saltedge: se,
		nordigen: ng,
		fetch:    fetch,
		logger:   log,
	}
}

func (f *adapterFactory) Adapter(cfg *config.ImportConfig, content []byte) (source.Adapter, error) {
	switch cfg.Flow {
	case config.FlowFile:
		return source.NewFileAdapter(content, cfg, f.logger), nil
	case config.FlowSaltEdge:
		return saltedge.NewAdapter(f.saltedge, cfg, f.logger), nil
	case config.FlowNordigen:
		return nordigen.NewAdapter(f.nordigen, cfg, f.fetch, f.logger), nil
	}
	return nil, fmt.Errorf("%w: flow %q", domain.ErrUnsupportedSource, cfg.Flow)
}

func (f *adapterFactory) AccountSource(cfg *config.ImportConfig) (AccountSource, error) {
	switch cfg.Flow {
	case config.FlowSaltEdge:
		return saltedge.NewAdapter(f.saltedge, cfg, f.logger), nil
	case config.FlowNordigen:
		return nordigen.NewAdapter(f.nordigen, cfg, f.fetch, f.logger), nil
	}
	return nil, fmt.Errorf("%w: flow %q has no account listing", domain.ErrUnsupportedSource, cfg.Flow)
}
