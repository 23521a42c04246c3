package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory(0) },
		"file": func(t *testing.T) Store {
			s, err := NewFile(t.TempDir(), FileOptions{Backups: 2}, nil)
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "store.db"))
			require.NoError(t, err)
			return s
		},
		"compressed": func(t *testing.T) Store {
			s, err := NewCompressed(NewMemory(0))
			require.NoError(t, err)
			return s
		},
		"prefixed": func(t *testing.T) Store { return Prefixed(NewMemory(0), "app_") },
		"guarded":  func(t *testing.T) Store { return NewGuard(NewMemory(0), GuardSettings{}) },
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, open := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			_, err := s.Load(ctx, "tree")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "tree", []byte(`{"v":1}`)))
			require.NoError(t, s.Save(ctx, "tree", []byte(`{"v":2}`)))
			require.NoError(t, s.Save(ctx, "settings/editor", []byte(`{}`)))

			data, err := s.Load(ctx, "tree")
			require.NoError(t, err)
			assert.Equal(t, `{"v":2}`, string(data))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"settings/editor", "tree"}, keys)

			require.NoError(t, s.Delete(ctx, "tree"))
			require.NoError(t, s.Delete(ctx, "tree"))
			_, err = s.Load(ctx, "tree")
			assert.ErrorIs(t, err, ErrNotFound)

			n, err := ClearAll(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestMemoryQuota(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(20)

	require.NoError(t, s.Save(ctx, "k", []byte("0123456789")))
	assert.Equal(t, 11, s.Used())

	err := s.Save(ctx, "other", []byte("0123456789"))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Replacing a value only counts the difference
	require.NoError(t, s.Save(ctx, "k", []byte("0123456789abcdefg")))
	assert.Equal(t, 18, s.Used())

	data, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdefg", string(data))

	require.NoError(t, s.Delete(ctx, "k"))
	assert.Zero(t, s.Used())
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(0)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Save(ctx, "k", nil), ErrClosed)
	_, err := s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPrefixedHidesOtherKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemory(0)
	require.NoError(t, base.Save(ctx, "unrelated", []byte("x")))

	s := Prefixed(base, "codepad_")
	require.NoError(t, s.Save(ctx, "tree", []byte("t")))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tree"}, keys)

	raw, err := base.Load(ctx, "codepad_tree")
	require.NoError(t, err)
	assert.Equal(t, "t", string(raw))

	_, err = ClearAll(ctx, s)
	require.NoError(t, err)
	_, err = base.Load(ctx, "unrelated")
	assert.NoError(t, err)

	assert.Same(t, base, Prefixed(base, "").(*Memory))
}
