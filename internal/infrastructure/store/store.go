package store

import (
	"context"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
)

var (
	// ErrNotFound is returned by Load for a key that was never saved
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned when a write would exceed the store's capacity
	ErrQuotaExceeded = errors.New("store quota exceeded")

	// ErrClosed is returned by operations on a closed store
	ErrClosed = errors.New("store is closed")

	// ErrInvalidKey is returned for keys a driver cannot represent
	ErrInvalidKey = errors.New("invalid key")
)

// Store is a key-value blob store
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Codec encodes values before they reach a store
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// JSON is the codec used for every persisted slot
var JSON Codec = sonic.ConfigStd

type prefixed struct {
	Store
	prefix string
}

// Prefixed namespaces every key of s with prefix. Keys returns only the
// keys carrying the prefix, with the prefix removed.
func Prefixed(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Load(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Load(ctx, p.prefix+key)
}

func (p *prefixed) Save(ctx context.Context, key string, data []byte) error {
	return p.Store.Save(ctx, p.prefix+key, data)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.Store.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Keys(ctx context.Context) ([]string, error) {
	all, err := p.Store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, p.prefix) {
			keys = append(keys, strings.TrimPrefix(k, p.prefix))
		}
	}
	return keys, nil
}

// ClearAll deletes every key of s and returns how many were removed
func ClearAll(ctx context.Context, s Store) (int, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}
