// ABOUTME: Session identity: one short random conversation token per install
// ABOUTME: Persisted under a fixed key, replaced only by an explicit reset

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/2389/parley/internal/kv"
)

// sessionKey is the fixed storage key for the conversation token.
// It is deliberately not namespaced by tenant: one session identity
// spans all tenants, matching the per-install conversation thread.
const sessionKey = "session_id"

// tokenBytes gives an 8-character hex token. Collisions are tolerable:
// this identifies a demo conversation, not a credential.
const tokenBytes = 4

// Identity manages the persisted conversation session token.
type Identity struct {
	store kv.Store
}

// NewIdentity creates an Identity over the given store.
func NewIdentity(store kv.Store) *Identity {
	return &Identity{store: store}
}

// GetOrCreate returns the persisted session token, generating and
// persisting a new one on first use.
func (i *Identity) GetOrCreate(ctx context.Context) (string, error) {
	token, ok, err := i.store.Get(ctx, sessionKey)
	if err != nil {
		return "", fmt.Errorf("loading session id: %w", err)
	}
	if ok && token != "" {
		return token, nil
	}
	return i.Reset(ctx)
}

// Reset generates a new session token, persists it, and returns it.
// This is the sole mechanism behind "start new conversation".
func (i *Identity) Reset(ctx context.Context) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := i.store.Set(ctx, sessionKey, token); err != nil {
		return "", fmt.Errorf("persisting session id: %w", err)
	}
	return token, nil
}

// newToken generates a short random hex token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
