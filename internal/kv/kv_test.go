// ABOUTME: Tests for the kv Store drivers and the Open factory
// ABOUTME: Runs the shared contract against memory and sqlite drivers

package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every driver must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// Missing key reads as absent
	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Set then Get round-trips
	require.NoError(t, store.Set(ctx, "chat_default_abc123", `[{"id":"1"}]`))
	value, ok, err := store.Get(ctx, "chat_default_abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, value)

	// Overwrite replaces
	require.NoError(t, store.Set(ctx, "chat_default_abc123", `[]`))
	value, _, err = store.Get(ctx, "chat_default_abc123")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	// Delete removes, and deleting again is not an error
	require.NoError(t, store.Delete(ctx, "chat_default_abc123"))
	_, ok, err = store.Get(ctx, "chat_default_abc123")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Delete(ctx, "chat_default_abc123"))
}

func TestMemoryStore_Contract(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	runStoreContract(t, store)
}

func TestSQLiteStore_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "parley.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "session_id", "a1b2c3d4"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a1b2c3d4", value)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "memory driver",
			cfg:  Config{Driver: DriverMemory},
		},
		{
			name: "sqlite driver",
			cfg:  Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "kv.db")},
		},
		{
			name: "empty driver defaults to sqlite",
			cfg:  Config{Path: filepath.Join(t.TempDir(), "kv2.db")},
		},
		{
			name:    "unknown driver",
			cfg:     Config{Driver: "etcd"},
			wantErr: ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			store.Close()
		})
	}
}
