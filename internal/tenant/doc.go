// Package tenant tracks which tenant the client operates against.
//
// The Resolver persists the selection under a fixed key and keeps a
// refreshable catalog. Refresh tries the public tenant list, then the
// admin list when a credential is configured, and finally synthesizes a
// single "default" entry with ErrCatalogUnavailable so the client stays
// usable while the backend is down. The selected tenant is never left
// pointing at an entry absent from the catalog.
package tenant
