// Package kv provides the durable key-value store behind all parley
// client-side persistence.
//
// # Drivers
//
// Three drivers implement the Store interface:
//
//   - memory: mutex-guarded map, for tests and ephemeral sessions
//   - sqlite: single-table database via modernc.org/sqlite (the default)
//   - redis: go-redis client, no TTLs
//
// Open selects a driver from a Config; an empty driver name means sqlite.
//
// # Keying
//
// Drivers store flat string pairs and apply no scoping of their own.
// Callers build fully namespaced keys, e.g. "chat_{tenant}_{session}",
// so the same store can hold session identity, tenant selection, and
// per-conversation state side by side.
package kv
