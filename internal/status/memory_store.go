package status

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// MemoryStore is a StatusStore without persistence, handy in tests and for
// ephemeral deployments. Reads hand out deep copies so pollers never share
// state with in-progress writers.
type MemoryStore struct {
	records map[string]*domain.JobStatus
	mu      sync.RWMutex
	logger  *logger.Logger
}

func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*domain.JobStatus),
		logger:  log,
	}
}

func (s *MemoryStore) StartOrFind(ctx context.Context, identifier string) (*domain.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, exists := s.records[identifier]; exists {
		return copyRecord(record), nil
	}

	record := domain.NewJobStatus(identifier)
	s.records[identifier] = record
	return copyRecord(record), nil
}

func (s *MemoryStore) Find(ctx context.Context, identifier string) (*domain.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[identifier]
	if !exists {
		return nil, domain.ErrJobNotFound
	}
	return copyRecord(record), nil
}

func (s *MemoryStore) SetPhase(ctx context.Context, identifier string, phase domain.JobPhase) error {
	return s.mutate(ctx, identifier, func(record *domain.JobStatus) error {
		if record.Phase.Terminal() {
			s.logger.Warn(ctx, "Refusing phase transition from terminal state",
				"identifier", identifier,
				"phase", record.Phase,
				"requested", phase,
			)
			return domain.ErrTerminalPhase
		}
		record.Phase = phase
		return nil
	})
}

func (s *MemoryStore) AddMessage(ctx context.Context, identifier string, index int, message string) error {
	return s.mutate(ctx, identifier, func(record *domain.JobStatus) error {
		record.Messages[index] = append(record.Messages[index], message)
		return nil
	})
}

func (s *MemoryStore) AddWarning(ctx context.Context, identifier string, index int, warning string) error {
	return s.mutate(ctx, identifier, func(record *domain.JobStatus) error {
		record.Warnings[index] = append(record.Warnings[index], warning)
		return nil
	})
}

func (s *MemoryStore) AddError(ctx context.Context, identifier string, index int, errMsg string) error {
	return s.mutate(ctx, identifier, func(record *domain.JobStatus) error {
		record.Errors[index] = append(record.Errors[index], errMsg)
		return nil
	})
}

func (s *MemoryStore) mutate(ctx context.Context, identifier string, fn func(*domain.JobStatus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[identifier]
	if !exists {
		s.logger.Warn(ctx, "Status mutation for unknown identifier ignored",
			"identifier", identifier,
		)
		return domain.ErrJobNotFound
	}

	if err := fn(record); err != nil {
		return err
	}
	record.UpdatedAt = time.Now()
	return nil
}

func copyRecord(record *domain.JobStatus) *domain.JobStatus {
	clone := *record
	clone.Messages = copyIndexed(record.Messages)
	clone.Warnings = copyIndexed(record.Warnings)
	clone.Errors = copyIndexed(record.Errors)
	return &clone
}

func copyIndexed(m map[int][]string) map[int][]string {
	result := make(map[int][]string, len(m))
	for k, v := range m {
		result[k] = append([]string(nil), v...)
	}
	return result
}
