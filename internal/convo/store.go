// ABOUTME: Conversation state store keyed by (tenant, session) over a kv.Store
// ABOUTME: Empty transcripts delete the key; corrupt state reads as absent

package convo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/parley/internal/kv"
)

// Store persists conversation transcripts and the active agent per
// (tenant, session) pair. Keys carry both identifiers so that switching
// tenant or resetting the session never reads another session's state.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
}

// NewStore creates a conversation store over the given kv store.
func NewStore(store kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     store,
		logger: logger.With("component", "convo"),
	}
}

func chatKey(tenantID, sessionID string) string {
	return fmt.Sprintf("chat_%s_%s", tenantID, sessionID)
}

func agentKey(tenantID, sessionID string) string {
	return fmt.Sprintf("agent_%s_%s", tenantID, sessionID)
}

// Load returns the persisted record for the pair, or an empty record when
// nothing is stored. Corrupt stored JSON is treated as absent, never as an
// error: the transcript silently reinitializes.
func (s *Store) Load(ctx context.Context, tenantID, sessionID string) (Record, error) {
	var rec Record

	raw, ok, err := s.kv.Get(ctx, chatKey(tenantID, sessionID))
	if err != nil {
		return Record{}, fmt.Errorf("loading transcript: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &rec.Messages); err != nil {
			s.logger.Warn("discarding corrupt transcript",
				"tenant_id", tenantID,
				"session_id", sessionID,
				"error", err)
			rec.Messages = nil
		}
	}

	agentID, ok, err := s.kv.Get(ctx, agentKey(tenantID, sessionID))
	if err != nil {
		return Record{}, fmt.Errorf("loading active agent: %w", err)
	}
	if ok {
		rec.ActiveAgentID = agentID
	}

	return rec, nil
}

// SaveMessages persists the transcript, or deletes the key when the
// transcript is empty. An empty conversation must not leave a stale entry.
func (s *Store) SaveMessages(ctx context.Context, tenantID, sessionID string, messages []Message) error {
	key := chatKey(tenantID, sessionID)

	if len(messages) == 0 {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clearing transcript: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	return nil
}

// SaveActiveAgent persists the active agent id, or deletes the key when
// the id is blank.
func (s *Store) SaveActiveAgent(ctx context.Context, tenantID, sessionID, agentID string) error {
	key := agentKey(tenantID, sessionID)

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clearing active agent: %w", err)
		}
		return nil
	}

	if err := s.kv.Set(ctx, key, agentID); err != nil {
		return fmt.Errorf("saving active agent: %w", err)
	}
	return nil
}
