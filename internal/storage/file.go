package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"nutrichef/internal/logger"
)

// FileStore keeps each collection in <dir>/<collection>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore, creating dir if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(c Collection) string {
	return filepath.Join(s.dir, string(c)+".json")
}

// Load reads a collection file. A missing file leaves dst untouched.
func (s *FileStore) Load(_ context.Context, c Collection, dst any) error {
	data, err := os.ReadFile(s.path(c))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("collection file missing", zap.String("collection", string(c)))
			return nil
		}
		return fmt.Errorf("read %s: %w", c, err)
	}

	logger.Debug("collection loaded", zap.String("collection", string(c)), zap.Int("bytes", len(data)))
	return decode(c, data, dst)
}

// Save rewrites a collection file. The data is written to a temporary file
// in the same directory and renamed over the old one.
func (s *FileStore) Save(_ context.Context, c Collection, records any) error {
	data, err := encode(records)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, string(c)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", c, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", c, err)
	}
	if err := os.Rename(tmpPath, s.path(c)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", c, err)
	}

	logger.Debug("collection saved", zap.String("collection", string(c)), zap.Int("bytes", len(data)))
	return nil
}

// Close is a no-op; files are not held open between calls.
func (s *FileStore) Close() error {
	return nil
}
