// Package storage persists uploaded files and hands back the URL stored
// on the owning row.  The default backend is the local disk; swapping in
// an object store only needs another Store implementation.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves uploaded files under a tenant prefix and returns the URL to
// persist on the owning row.
type Store interface {
	Save(ctx context.Context, tenantID uuid.UUID, filename string, r io.Reader) (string, error)
}

// Local writes files beneath Root and serves them under BaseURL.  Files
// are keyed by a fresh UUID so uploads never collide or overwrite.
type Local struct {
	Root    string // e.g. ./uploads
	BaseURL string // e.g. /uploads
}

// NewLocal builds a disk store rooted at root.
func NewLocal(root, baseURL string) *Local {
	return &Local{Root: root, BaseURL: baseURL}
}

// Save implements Store.  The original filename only contributes its
// extension; everything else is discarded so request input never reaches
// the filesystem path.
func (l *Local) Save(ctx context.Context, tenantID uuid.UUID, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(l.Root, tenantID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}
	name := uuid.New().String() + safeExt(filename)
	fpath := filepath.Join(dir, name)
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(fpath)
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close: %w", err)
	}
	return path.Join(l.BaseURL, tenantID.String(), name), nil
}

// safeExt keeps a short alphanumeric extension and drops anything else.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." || len(ext) > 8 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
