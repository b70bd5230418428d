package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/semmidev/mongovault/internal/domain"
)

// LocalStorage is a directory on the local disk holding archives or dump
// folders. Names are relative to the base path.
type LocalStorage struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", basePath, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (l *LocalStorage) GetPath(name string) string {
	return filepath.Join(l.basePath, name)
}

func (l *LocalStorage) ReadFile(name string) ([]byte, error) {
	path := l.GetPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.FilesystemError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

func (l *LocalStorage) Delete(name string) error {
	path := l.GetPath(name)
	if err := os.Remove(path); err != nil {
		return &domain.FilesystemError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// RemoveAll deletes name and everything below it. A missing entry is not an
// error.
func (l *LocalStorage) RemoveAll(name string) error {
	path := l.GetPath(name)
	if err := os.RemoveAll(path); err != nil {
		return &domain.FilesystemError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
