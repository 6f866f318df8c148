package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/afrominerals/atlas/internal/domain"
)

// FilesystemStore keeps the source files in a local data directory.
type FilesystemStore struct {
	dir string
}

// NewFilesystemStore creates a FilesystemStore, creating the directory if
// it does not exist.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FilesystemStore{dir: dir}, nil
}

// Dir returns the root directory holding the source files.
func (s *FilesystemStore) Dir() string {
	return s.dir
}

// Read returns the raw bytes of a canonical source.
func (s *FilesystemStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, name)
		}
		return nil, fmt.Errorf("failed to read source %s: %w", name, err)
	}
	return data, nil
}

// Write replaces a canonical source atomically: the bytes are written to a
// temporary file in the same directory and renamed over the target, so a
// crash mid-write never leaves a truncated source behind.
func (s *FilesystemStore) Write(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write source %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace source %s: %w", name, err)
	}
	return nil
}

var _ Store = (*FilesystemStore)(nil)
