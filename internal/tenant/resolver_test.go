// ABOUTME: Tests for tenant normalization, selection persistence, and catalog
// ABOUTME: Covers the public -> admin -> synthesized fallback chain

package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/kv"
)

// mockCatalogClient scripts catalog responses for resolver tests.
type mockCatalogClient struct {
	public      []backend.TenantOption
	publicErr   error
	admin       []backend.TenantOption
	adminErr    error
	hasAdmin    bool
	adminCalled bool
}

func (m *mockCatalogClient) ListTenants(ctx context.Context) ([]backend.TenantOption, error) {
	return m.public, m.publicErr
}

func (m *mockCatalogClient) ListTenantsAdmin(ctx context.Context) ([]backend.TenantOption, error) {
	m.adminCalled = true
	return m.admin, m.adminErr
}

func (m *mockCatalogClient) HasAdminCredential() bool {
	return m.hasAdmin
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "acme"},
		{"  acme  ", "acme"},
		{"", "default"},
		{"   ", "default"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestResolver_DefaultsWhenNothingPersisted(t *testing.T) {
	r, err := New(context.Background(), kv.NewMemoryStore(), &mockCatalogClient{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "default", r.TenantID())
}

func TestResolver_RestoresPersistedTenant(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "tenant_id", "acme"))

	r, err := New(ctx, store, &mockCatalogClient{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "acme", r.TenantID())
}

func TestResolver_SetTenantID_NormalizesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	r, err := New(ctx, store, &mockCatalogClient{}, nil)
	require.NoError(t, err)

	require.NoError(t, r.SetTenantID(ctx, "   "))
	assert.Equal(t, "default", r.TenantID())

	require.NoError(t, r.SetTenantID(ctx, " globex "))
	assert.Equal(t, "globex", r.TenantID())

	persisted, ok, err := store.Get(ctx, "tenant_id")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "globex", persisted)
}

func TestResolver_Refresh_PublicCatalog(t *testing.T) {
	ctx := context.Background()
	client := &mockCatalogClient{
		public: []backend.TenantOption{{ID: "default"}, {ID: "acme"}},
	}
	r, err := New(ctx, kv.NewMemoryStore(), client, nil)
	require.NoError(t, err)

	require.NoError(t, r.Refresh(ctx))

	catalog := r.Catalog()
	assert.Len(t, catalog.Tenants, 2)
	assert.NoError(t, catalog.Err)
	assert.False(t, catalog.Loading)
	assert.False(t, client.adminCalled)
}

func TestResolver_Refresh_FallsBackToAdmin(t *testing.T) {
	ctx := context.Background()
	client := &mockCatalogClient{
		public:   nil, // zero entries triggers the admin fallback
		admin:    []backend.TenantOption{{ID: "default"}, {ID: "internal"}},
		hasAdmin: true,
	}
	r, err := New(ctx, kv.NewMemoryStore(), client, nil)
	require.NoError(t, err)

	require.NoError(t, r.Refresh(ctx))
	assert.True(t, client.adminCalled)
	assert.Len(t, r.Catalog().Tenants, 2)
}

func TestResolver_Refresh_AdminSkippedWithoutCredential(t *testing.T) {
	ctx := context.Background()
	client := &mockCatalogClient{
		publicErr: errors.New("connection refused"),
		hasAdmin:  false,
	}
	r, err := New(ctx, kv.NewMemoryStore(), client, nil)
	require.NoError(t, err)

	err = r.Refresh(ctx)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.False(t, client.adminCalled)

	// Synthesized single-entry catalog keeps the UI usable
	catalog := r.Catalog()
	require.Len(t, catalog.Tenants, 1)
	assert.Equal(t, "default", catalog.Tenants[0].ID)
	assert.ErrorIs(t, catalog.Err, ErrCatalogUnavailable)
}

func TestResolver_Refresh_ReassignsMissingTenant(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "tenant_id", "deleted-tenant"))

	client := &mockCatalogClient{
		public: []backend.TenantOption{{ID: "acme"}, {ID: "globex"}},
	}
	r, err := New(ctx, store, client, nil)
	require.NoError(t, err)
	require.Equal(t, "deleted-tenant", r.TenantID())

	require.NoError(t, r.Refresh(ctx))

	// Never left pointing at a tenant absent from the catalog
	assert.Equal(t, "acme", r.TenantID())
	persisted, _, err := store.Get(ctx, "tenant_id")
	require.NoError(t, err)
	assert.Equal(t, "acme", persisted)
}

func TestResolver_Refresh_RecoversOnRetry(t *testing.T) {
	ctx := context.Background()
	client := &mockCatalogClient{publicErr: errors.New("down")}
	r, err := New(ctx, kv.NewMemoryStore(), client, nil)
	require.NoError(t, err)

	require.Error(t, r.Refresh(ctx))

	// Backend comes back; a manual retry clears the error state
	client.publicErr = nil
	client.public = []backend.TenantOption{{ID: "default"}}
	require.NoError(t, r.Refresh(ctx))
	assert.NoError(t, r.Catalog().Err)
}
