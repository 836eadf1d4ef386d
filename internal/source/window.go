package source

import (
	"fmt"
	"time"

	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/domain"
)

// DateWindow is a closed date range with inclusive bounds: only dates
// strictly before NotBefore or strictly after NotAfter fall outside.
// A nil bound is unbounded on that side.
type DateWindow struct {
	NotBefore *time.Time
	NotAfter  *time.Time
}

// WindowFromConfig parses the configured bounds (layout 2006-01-02).
func WindowFromConfig(cfg *config.ImportConfig) (DateWindow, error) {
	window := DateWindow{}
	if cfg.DateNotBefore != "" {
		parsed, err := time.Parse("2006-01-02", cfg.DateNotBefore)
		if err != nil {
			return window, fmt.Errorf("%w: date_not_before %q", domain.ErrConfigDecode, cfg.DateNotBefore)
		}
		window.NotBefore = &parsed
	}
	if cfg.DateNotAfter != "" {
		parsed, err := time.Parse("2006-01-02", cfg.DateNotAfter)
		if err != nil {
			return window, fmt.Errorf("%w: date_not_after %q", domain.ErrConfigDecode, cfg.DateNotAfter)
		}
		window.NotAfter = &parsed
	}
	return window, nil
}

// Contains reports whether the business date falls inside the window. Ties
// on a boundary date are kept.
func (w DateWindow) Contains(date time.Time) bool {
	if w.NotBefore != nil && date.Before(*w.NotBefore) {
		return false
	}
	if w.NotAfter != nil && date.After(*w.NotAfter) {
		return false
	}
	return true
}
