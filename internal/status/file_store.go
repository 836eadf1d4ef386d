package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// FileStore persists one JSON status record per job identifier. Records are
// replaced atomically (temp file plus rename) so a concurrent poller reads
// either the pre- or post-update record, never a torn one.
//
// Conversion and submission use separate FileStore instances rooted at
// separate directories, keyed by the same job identifier.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger *logger.Logger
}

func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{dir: dir, logger: log}
}

func (s *FileStore) StartOrFind(ctx context.Context, identifier string) (*domain.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load(identifier)
	if err == nil {
		return record, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("load status record: %w", err)
	}

	record = domain.NewJobStatus(identifier)
	if err := s.save(record); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "Created status record",
		"identifier", identifier,
	)

	return record, nil
}

func (s *FileStore) Find(ctx context.Context, identifier string) (*domain.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load(identifier)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("load status record: %w", err)
	}
	return record, nil
}

func (s *FileStore) SetPhase(ctx context.Context, identifier string, phase domain.JobPhase) error {
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

func (s *FileStore) AddMessage(ctx context.Context, identifier string, index int, message string) error {
	return s.mutate(ctx, identifier, func(record *domain.JobStatus) error {
		record.Messages[index] = append(record.Messages[index], message)
		return nil
	})
}

func (s *FileStore) AddWarning(ctx context.Context, identifier string, index int, warning string) error {
	return s.mutate(ctx, identifier, func(record *domain.JobStatus) error {
		record.Warnings[index] = append(record.Warnings[index], warning)
		return nil
	})
}

func (s *FileStore) AddError(ctx context.Context, identifier string, index int, errMsg string) error {
	return s.mutate(ctx, identifier, func(record *domain.JobStatus) error {
		record.Errors[index] = append(record.Errors[index], errMsg)
		return nil
	})
}

// mutate applies fn to an existing record and persists the result. Mutating
// an unknown identifier is a loud no-op: a warning is logged and
// ErrJobNotFound returned, the record is never created implicitly.
func (s *FileStore) mutate(ctx context.Context, identifier string, fn func(*domain.JobStatus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load(identifier)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn(ctx, "Status mutation for unknown identifier ignored",
				"identifier", identifier,
			)
			return domain.ErrJobNotFound
		}
		return fmt.Errorf("load status record: %w", err)
	}

	if err := fn(record); err != nil {
		return err
	}

	record.UpdatedAt = time.Now()
	return s.save(record)
}

func (s *FileStore) load(identifier string) (*domain.JobStatus, error) {
	data, err := os.ReadFile(s.path(identifier))
	if err != nil {
		return nil, err
	}
	record := &domain.JobStatus{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("decode status record: %w", err)
	}
	return record, nil
}

func (s *FileStore) save(record *domain.JobStatus) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode status record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "status-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp status file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write status record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close status record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(record.Identifier)); err != nil {
		return fmt.Errorf("publish status record: %w", err)
	}
	return nil
}

func (s *FileStore) path(identifier string) string {
	return filepath.Join(s.dir, filepath.Base(identifier)+".json")
}
