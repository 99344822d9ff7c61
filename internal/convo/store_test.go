// ABOUTME: Tests for the conversation state store
// ABOUTME: Covers tenant isolation, empty-transcript deletion, corrupt state

package convo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/kv"
)

func testStore(t *testing.T) (*Store, *kv.MemoryStore) {
	t.Helper()
	mem := kv.NewMemoryStore()
	return NewStore(mem, nil), mem
}

func TestStore_LoadEmptyWhenAbsent(t *testing.T) {
	store, _ := testStore(t)

	rec, err := store.Load(context.Background(), "default", "abc123")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)
	assert.Empty(t, rec.ActiveAgentID)
}

func TestStore_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	store, _ := testStore(t)

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	messages := []Message{
		NewUserMessage("hello", now),
		NewBotMessage("hi there", now),
	}
	require.NoError(t, store.SaveMessages(ctx, "default", "abc123", messages))
	require.NoError(t, store.SaveActiveAgent(ctx, "default", "abc123", "support"))

	rec, err := store.Load(ctx, "default", "abc123")
	require.NoError(t, err)
	assert.Equal(t, messages, rec.Messages)
	assert.Equal(t, "support", rec.ActiveAgentID)

	// Reload with no intervening saves yields an identical transcript
	again, err := store.Load(ctx, "default", "abc123")
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestStore_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	store, _ := testStore(t)

	now := time.Now()
	require.NoError(t, store.SaveMessages(ctx, "acme", "s1", []Message{NewUserMessage("acme only", now)}))
	require.NoError(t, store.SaveActiveAgent(ctx, "acme", "s1", "sales"))

	rec, err := store.Load(ctx, "globex", "s1")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)
	assert.Empty(t, rec.ActiveAgentID)
}

func TestStore_SessionIsolation(t *testing.T) {
	ctx := context.Background()
	store, _ := testStore(t)

	require.NoError(t, store.SaveMessages(ctx, "default", "old1234", []Message{NewUserMessage("before reset", time.Now())}))

	rec, err := store.Load(ctx, "default", "new5678")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)

	// The original session remains recoverable
	old, err := store.Load(ctx, "default", "old1234")
	require.NoError(t, err)
	require.Len(t, old.Messages, 1)
	assert.Equal(t, "before reset", old.Messages[0].Text)
}

func TestStore_EmptyMessagesDeletesKey(t *testing.T) {
	ctx := context.Background()
	store, mem := testStore(t)

	require.NoError(t, store.SaveMessages(ctx, "default", "abc123", []Message{NewUserMessage("hi", time.Now())}))
	_, ok, err := mem.Get(ctx, "chat_default_abc123")
	require.NoError(t, err)
	require.True(t, ok)

	// Saving an empty transcript removes the key entirely, it does not
	// write an empty array.
	require.NoError(t, store.SaveMessages(ctx, "default", "abc123", nil))
	_, ok, err = mem.Get(ctx, "chat_default_abc123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_BlankAgentDeletesKey(t *testing.T) {
	ctx := context.Background()
	store, mem := testStore(t)

	require.NoError(t, store.SaveActiveAgent(ctx, "default", "abc123", "billing"))
	require.NoError(t, store.SaveActiveAgent(ctx, "default", "abc123", "   "))

	_, ok, err := mem.Get(ctx, "agent_default_abc123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CorruptTranscriptReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store, mem := testStore(t)

	require.NoError(t, mem.Set(ctx, "chat_default_abc123", "{not json"))
	require.NoError(t, mem.Set(ctx, "agent_default_abc123", "support"))

	rec, err := store.Load(ctx, "default", "abc123")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)
	// The agent key is independent and still loads
	assert.Equal(t, "support", rec.ActiveAgentID)
}

func TestHistory_ExcludesHandoffNoticesAndTranslatesRoles(t *testing.T) {
	now := time.Now()
	messages := []Message{
		NewUserMessage("question", now),
		NewBotMessage("answer", now),
		NewHandoffNotice("Transferring you to sales.", now),
		NewBotMessage("hi from sales", now),
	}

	history := History(messages, 10)
	require.Len(t, history, 3)
	assert.Equal(t, HistoryEntry{Role: "user", Content: "question"}, history[0])
	assert.Equal(t, HistoryEntry{Role: "assistant", Content: "answer"}, history[1])
	assert.Equal(t, HistoryEntry{Role: "assistant", Content: "hi from sales"}, history[2])
}

func TestHistory_WindowTakesLastN(t *testing.T) {
	now := time.Now()
	var messages []Message
	for i := 0; i < 15; i++ {
		messages = append(messages, NewUserMessage("msg", now))
	}

	history := History(messages, 10)
	assert.Len(t, history, 10)
}
