// Package storage provides a local-disk implementation of the asset store.
// Files written here are served back by the static-file layer under the
// configured base URL.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	falaichat "github.com/laruss/falai-chat"
)

// Local saves assets under a directory and returns URLs rooted at baseURL.
type Local struct {
	dir     string
	baseURL string
}

var _ falaichat.Storage = (*Local)(nil)

// NewLocal creates a local asset store rooted at dir. baseURL is the public
// prefix the serving layer exposes the directory under (e.g. "/static").
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	return &Local{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SaveFile writes the asset atomically and returns its public URL.
func (l *Local) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(l.dir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create asset subdirectory: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset %s: %w", path, err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to commit asset %s: %w", path, err)
	}

	return l.baseURL + "/" + filepath.ToSlash(path), nil
}

// validatePath rejects absolute paths and traversal outside the store root.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("asset path cannot be empty")
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("asset path must be relative: %q", path)
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("asset path escapes the store root: %q", path)
	}
	return nil
}
