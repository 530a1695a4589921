// Package localblob stores blobs as files under a root directory.
package localblob

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/reelcut/internal/types"
)

type Config struct {
	Root string
	// PublicURL, when set, prefixes keys in returned refs. Otherwise refs use
	// file:// URLs.
	PublicURL string
}

type Adapter struct {
	root      string
	publicURL string
}

func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, fmt.Errorf("%w: local store root is required", types.ErrInvalidInput)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Adapter{root: root, publicURL: strings.TrimRight(cfg.PublicURL, "/")}, nil
}

func (a *Adapter) Root() string { return a.root }

func (a *Adapter) Put(ctx context.Context, key string, data []byte, _ string) (types.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return types.BlobRef{}, err
	}
	p, err := a.path(key)
	if err != nil {
		return types.BlobRef{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return types.BlobRef{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return types.BlobRef{}, err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return types.BlobRef{}, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return types.BlobRef{}, err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return types.BlobRef{}, err
	}
	return a.ref(key, p), nil
}

func (a *Adapter) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := a.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// path maps key to a file under root, rejecting keys that escape it.
func (a *Adapter) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(key, "/")))
	if key == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: bad blob key %q", types.ErrInvalidInput, key)
	}
	return filepath.Join(a.root, clean), nil
}

func (a *Adapter) ref(key, p string) types.BlobRef {
	if a.publicURL != "" {
		return types.BlobRef{Key: key, URL: a.publicURL + "/" + strings.TrimLeft(key, "/")}
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return types.BlobRef{Key: key, URL: u.String()}
}
