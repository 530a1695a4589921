// Package memblob is an in-process BlobStore. It backs the "mock" storage
// mode and doubles as the store for unit tests.
package memblob

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/forPelevin/reelcut/internal/types"
)

type Adapter struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
}

// New returns an empty store. Refs are baseURL + "/" + key; baseURL may be
// empty, in which case refs carry a "mem://" URL.
func New(baseURL string) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: map[string]object{},
	}
}

func (a *Adapter) Put(ctx context.Context, key string, data []byte, contentType string) (types.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return types.BlobRef{}, err
	}
	if strings.TrimSpace(key) == "" {
		return types.BlobRef{}, fmt.Errorf("%w: empty blob key", types.ErrInvalidInput)
	}
	cp := append([]byte(nil), data...)
	a.mu.Lock()
	a.objects[key] = object{data: cp, contentType: contentType}
	a.mu.Unlock()
	return a.Ref(key), nil
}

func (a *Adapter) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	o, ok := a.objects[key]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, os.ErrNotExist)
	}
	return append([]byte(nil), o.data...), nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.objects, key)
	a.mu.Unlock()
	return nil
}

// Ref builds the reference a Put of key would return without storing
// anything.
func (a *Adapter) Ref(key string) types.BlobRef {
	base := a.baseURL
	if base == "" {
		base = "mem:/"
	}
	return types.BlobRef{Key: key, URL: base + "/" + key}
}

// Keys lists stored keys in sorted order.
func (a *Adapter) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.objects))
	for k := range a.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (a *Adapter) ContentType(key string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.objects[key].contentType
}
