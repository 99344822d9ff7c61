// Package backend is the HTTP client for the parley backend REST API.
//
// # Contract
//
// The backend is treated as opaque: POST /api/chat takes a message, a
// history window, the session identifier, and an optional agent id, and
// returns a reply that may carry a handoff instruction. Every request is
// tenant-scoped through the X-Tenant-ID header.
//
// # Admin Surface
//
// Tenant, agent, and session management live under /api/admin and require
// a bearer credential. When the credential parses as a JWT its expiry is
// checked locally first, so a dead token fails with
// ErrAdminCredentialExpired before any round trip; opaque tokens are sent
// as-is and judged by the backend.
package backend
