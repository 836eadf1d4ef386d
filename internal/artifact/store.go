package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgerfeed/importer/internal/domain"
	"github.com/ledgerfeed/importer/pkg/logger"
)

// FileStore keeps conversion artifacts as <jobId>.json files under one
// directory. Writes go through a temp file plus rename so a reader never
// sees a partially written artifact.
type FileStore struct {
	dir    string
	logger *logger.Logger
}

func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{dir: dir, logger: log}
}

func (s *FileStore) Write(ctx context.Context, identifier string, groups []domain.TransactionGroup) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	path := s.path(identifier)
	tmp, err := os.CreateTemp(s.dir, "artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}

	s.logger.Debug(ctx, "Conversion artifact written",
		"path", path,
		"groups", len(groups),
	)

	return nil
}

func (s *FileStore) Read(ctx context.Context, identifier string) ([]domain.TransactionGroup, error) {
	path := s.path(identifier)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrArtifactNotFound, err)
	}

	var groups []domain.TransactionGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrArtifactNotFound, path, err)
	}

	return groups, nil
}

// path derives the artifact filename. The identifier is reduced to its base
// name so it can never escape the storage directory.
func (s *FileStore) path(identifier string) string {
	return filepath.Join(s.dir, filepath.Base(identifier)+".json")
}
