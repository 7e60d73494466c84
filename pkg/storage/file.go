package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileBackend serves file:// URIs and bare local paths.
type FileBackend struct{}

// Open reads a local file.
func (fb *FileBackend) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	_, p, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Write stores data in a local file, creating parent directories as needed.
func (fb *FileBackend) Write(ctx context.Context, uri string, data io.Reader) error {
	_, p, err := ParseURI(uri)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
	}

	file, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
