// Package workspace stages blob-store objects as local files for tools that
// only understand paths (ffmpeg, yt-dlp).
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/types"
)

type Dir struct {
	path  string
	store ports.BlobStore
}

// Open creates a fresh scratch directory under base (os.TempDir when empty).
func Open(base, pattern string, store ports.BlobStore) (*Dir, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, err
		}
	}
	p, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Dir{path: p, store: store}, nil
}

func (d *Dir) Path(name string) string { return filepath.Join(d.path, name) }

// Fetch copies a stored object to name inside the workspace.
func (d *Dir) Fetch(ctx context.Context, key, name string) (string, error) {
	b, err := d.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", key, err)
	}
	p := d.Path(name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	p := d.Path(name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// Upload stores the file at name under key.
func (d *Dir) Upload(ctx context.Context, name, key, contentType string) (types.BlobRef, error) {
	b, err := os.ReadFile(d.Path(name))
	if err != nil {
		return types.BlobRef{}, err
	}
	return d.store.Put(ctx, key, b, contentType)
}

func (d *Dir) Close() error { return os.RemoveAll(d.path) }
