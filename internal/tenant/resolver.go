// ABOUTME: Tenant resolver: active tenant id plus a refreshable catalog
// ABOUTME: Falls back public list -> admin list -> synthesized default entry

package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/kv"
)

// DefaultTenantID is used whenever no tenant is set or a blank id is given.
const DefaultTenantID = "default"

// tenantKey is the fixed storage key for the selected tenant id.
const tenantKey = "tenant_id"

// ErrCatalogUnavailable marks a catalog refresh that fell back to the
// synthesized single-entry catalog. Recoverable: Refresh again to retry.
var ErrCatalogUnavailable = errors.New("tenant catalog unavailable")

// Normalize trims a tenant id and coerces blank input to DefaultTenantID.
// TenantId must never be empty.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultTenantID
	}
	return id
}

// CatalogClient is what the resolver needs from the backend.
type CatalogClient interface {
	ListTenants(ctx context.Context) ([]backend.TenantOption, error)
	ListTenantsAdmin(ctx context.Context) ([]backend.TenantOption, error)
	HasAdminCredential() bool
}

// Catalog is a snapshot of the tenant list with its load state.
type Catalog struct {
	Tenants []backend.TenantOption
	Loading bool
	Err     error
}

// Resolver tracks which tenant the client operates against and keeps the
// tenant catalog fresh. The selected id persists under a fixed key,
// independent of any single view.
type Resolver struct {
	store  kv.Store
	client CatalogClient
	logger *slog.Logger

	mu       sync.RWMutex
	tenantID string
	catalog  []backend.TenantOption
	loading  bool
	err      error
}

// New creates a Resolver, restoring the persisted tenant selection.
func New(ctx context.Context, store kv.Store, client CatalogClient, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		store:  store,
		client: client,
		logger: logger.With("component", "tenant"),
	}

	persisted, _, err := store.Get(ctx, tenantKey)
	if err != nil {
		return nil, fmt.Errorf("loading tenant id: %w", err)
	}
	r.tenantID = Normalize(persisted)
	return r, nil
}

// TenantID returns the active tenant id. Never empty.
func (r *Resolver) TenantID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenantID
}

// SetTenantID normalizes and persists the active tenant id.
func (r *Resolver) SetTenantID(ctx context.Context, id string) error {
	id = Normalize(id)

	if err := r.store.Set(ctx, tenantKey, id); err != nil {
		return fmt.Errorf("persisting tenant id: %w", err)
	}

	r.mu.Lock()
	r.tenantID = id
	r.mu.Unlock()

	r.logger.Debug("tenant selected", "tenant_id", id)
	return nil
}

// Catalog returns the current catalog snapshot.
func (r *Resolver) Catalog() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenants := make([]backend.TenantOption, len(r.catalog))
	copy(tenants, r.catalog)
	return Catalog{Tenants: tenants, Loading: r.loading, Err: r.err}
}

// Refresh reloads the tenant catalog: the public endpoint first, then the
// admin endpoint when a credential is present, and finally a synthesized
// single-entry catalog with a recoverable error. If the selected tenant is
// missing from the result, the selection moves to the catalog's first
// entry and is persisted; the client must never point at a tenant the
// catalog does not contain. Safe to re-trigger concurrently with sends.
func (r *Resolver) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	tenants, err := r.fetchCatalog(ctx)

	r.mu.Lock()
	r.catalog = tenants
	r.loading = false
	r.err = err
	selected := r.tenantID
	r.mu.Unlock()

	if !contains(tenants, selected) && len(tenants) > 0 {
		first := tenants[0].ID
		r.logger.Info("selected tenant missing from catalog, reassigning",
			"tenant_id", selected,
			"reassigned_to", first)
		if setErr := r.SetTenantID(ctx, first); setErr != nil {
			return setErr
		}
	}

	return err
}

// fetchCatalog runs the fallback chain and never returns an empty list.
func (r *Resolver) fetchCatalog(ctx context.Context) ([]backend.TenantOption, error) {
	tenants, err := r.client.ListTenants(ctx)
	if err == nil && len(tenants) > 0 {
		return tenants, nil
	}
	if err != nil {
		r.logger.Warn("public tenant list failed", "error", err)
	}

	if r.client.HasAdminCredential() {
		adminTenants, adminErr := r.client.ListTenantsAdmin(ctx)
		if adminErr == nil && len(adminTenants) > 0 {
			return adminTenants, nil
		}
		if adminErr != nil {
			r.logger.Warn("admin tenant list failed", "error", adminErr)
			err = adminErr
		}
	}

	fallback := []backend.TenantOption{{ID: DefaultTenantID}}
	if err != nil {
		return fallback, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return fallback, ErrCatalogUnavailable
}

// Watch refreshes the catalog periodically until ctx is cancelled. This
// covers tenants created elsewhere (another client, an admin action) the
// same way a browser tab refreshes when it regains visibility.
func (r *Resolver) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Debug("catalog refresh failed", "error", err)
			}
		}
	}
}

func contains(tenants []backend.TenantOption, id string) bool {
	for _, t := range tenants {
		if t.ID == id {
			return true
		}
	}
	return false
}
