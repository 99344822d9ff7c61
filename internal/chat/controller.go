// ABOUTME: Chat session controller: optimistic sends, handoff effects, resets
// ABOUTME: One outstanding request per controller; state machine Idle/Sending/Failed

package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/convo"
	"github.com/2389/parley/internal/handoff"
	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/tenant"
)

// State is the controller's send state.
type State int

const (
	StateIdle State = iota
	StateSending
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// sendFailureText is the generic bot-turn error appended when a send fails.
// Failures are visible, never silent; the user resends manually.
const sendFailureText = "Sorry, something went wrong. Please try again."

const (
	defaultMinDelay        = 600 * time.Millisecond
	defaultHistoryLimit    = 10
	defaultSessionsRefresh = time.Second
)

// Sender is what the controller needs from the backend.
type Sender interface {
	SendChat(ctx context.Context, tenantID string, req backend.ChatRequest) (handoff.Reply, error)
}

// Options configures a Controller.
type Options struct {
	// PageDefaultAgent is the agent id supplied by the surrounding view,
	// e.g. an admin previewing a specific agent. A persisted agent for the
	// session wins over it.
	PageDefaultAgent string

	// MinDelay is the artificial floor each send waits for alongside the
	// network call, so the typing indicator is visible even on a fast
	// backend. The controller waits for both, not the faster of the two.
	// Zero means the 600ms default; there is no way to disable the floor.
	MinDelay time.Duration

	// HistoryLimit caps how many prior messages go out with each request.
	// Zero means the default of 10.
	HistoryLimit int

	// OnSessionsChanged, when set, is invoked a little after a new
	// conversation starts so a surrounding conversation list can refresh
	// once the backend's session index catches up.
	OnSessionsChanged    func()
	SessionsRefreshDelay time.Duration

	Logger *slog.Logger

	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// Controller orchestrates one mounted conversation view. It owns the
// in-memory working copy of the conversation and is the only writer back
// to the conversation store. Distinct controllers share nothing in memory
// and coordinate only through the persisted store.
type Controller struct {
	store    *convo.Store
	identity *session.Identity
	sender   Sender
	logger   *slog.Logger

	minDelay        time.Duration
	historyLimit    int
	onSessions      func()
	sessionsRefresh time.Duration
	now             func() time.Time

	mu               sync.Mutex
	state            State
	inFlight         bool
	tenantID         string
	sessionID        string
	pageDefaultAgent string
	rec              convo.Record
	agentSource      handoff.Source
}

// New creates a Controller. Call Start before sending.
func New(store *convo.Store, identity *session.Identity, sender Sender, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minDelay := opts.MinDelay
	if minDelay == 0 {
		minDelay = defaultMinDelay
	}
	historyLimit := opts.HistoryLimit
	if historyLimit == 0 {
		historyLimit = defaultHistoryLimit
	}
	sessionsRefresh := opts.SessionsRefreshDelay
	if sessionsRefresh == 0 {
		sessionsRefresh = defaultSessionsRefresh
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Controller{
		store:            store,
		identity:         identity,
		sender:           sender,
		logger:           logger.With("component", "chat"),
		minDelay:         minDelay,
		historyLimit:     historyLimit,
		onSessions:       opts.OnSessionsChanged,
		sessionsRefresh:  sessionsRefresh,
		now:              clock,
		pageDefaultAgent: opts.PageDefaultAgent,
	}
}

// Start binds the controller to a tenant, resolves the session identity,
// and loads persisted conversation state.
func (c *Controller) Start(ctx context.Context, tenantID string) error {
	sessionID, err := c.identity.GetOrCreate(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantID = tenant.Normalize(tenantID)
	c.sessionID = sessionID
	return c.reloadLocked(ctx)
}

// SetTenant switches the active tenant and reloads conversation state for
// the new (tenant, session) pair. Safe while a send is in flight: the
// stale response is discarded on arrival.
func (c *Controller) SetTenant(ctx context.Context, tenantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantID = tenant.Normalize(tenantID)
	return c.reloadLocked(ctx)
}

// SetPageDefaultAgent updates the view-supplied default agent and
// re-reconciles. A persisted agent for the current session still wins, so
// changing an admin default never overrides an in-progress handoff.
func (c *Controller) SetPageDefaultAgent(ctx context.Context, agentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageDefaultAgent = strings.TrimSpace(agentID)
	return c.reloadLocked(ctx)
}

// reloadLocked loads the record for the current pair and resolves the
// active agent by precedence. Caller holds c.mu.
func (c *Controller) reloadLocked(ctx context.Context) error {
	rec, err := c.store.Load(ctx, c.tenantID, c.sessionID)
	if err != nil {
		return err
	}

	agentID, source := handoff.ResolveActiveAgent(rec.ActiveAgentID, c.pageDefaultAgent)
	rec.ActiveAgentID = agentID
	c.rec = rec
	c.agentSource = source

	c.logger.Debug("conversation loaded",
		"tenant_id", c.tenantID,
		"session_id", c.sessionID,
		"messages", len(rec.Messages),
		"agent_id", agentID,
		"agent_source", source.String())
	return nil
}

// Send transmits a user message. Blank text or an in-flight send is a
// no-op; at most one request is outstanding per controller.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// inFlight is the re-entrancy guard, tracked apart from the UI state:
	// a reset mid-flight returns the view to Idle but the outstanding
	// request still holds the slot until its response is accounted for.
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.state = StateSending

	// Append the user's message immediately; delivery is optimistic.
	userMsg := convo.NewUserMessage(text, c.now())
	c.rec.Messages = append(c.rec.Messages, userMsg)

	tenantID := c.tenantID
	sessionID := c.sessionID
	agentID := c.rec.ActiveAgentID
	messages := snapshot(c.rec.Messages)
	c.mu.Unlock()

	if err := c.store.SaveMessages(ctx, tenantID, sessionID, messages); err != nil {
		c.logger.Warn("failed to persist optimistic message", "error", err)
	}

	req := backend.ChatRequest{
		Message:     text,
		History:     convo.History(messages[:len(messages)-1], c.historyLimit),
		Phone:       sessionID,
		AssistantID: agentID,
	}

	// Race the request against the minimum delay and wait for both.
	delayDone := time.After(c.minDelay)
	reply, sendErr := c.sender.SendChat(ctx, tenantID, req)
	select {
	case <-delayDone:
	case <-ctx.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The pair was captured at send time; if the controller has moved to a
	// different tenant or session, this response belongs to a conversation
	// that is no longer loaded.
	if c.tenantID != tenantID || c.sessionID != sessionID {
		c.logger.Info("discarding response for superseded session",
			"tenant_id", tenantID,
			"session_id", sessionID)
		// Release only what this send owns. The reset already put the
		// view back to Idle; don't disturb whatever state it set.
		c.inFlight = false
		if c.state == StateSending {
			c.state = StateIdle
		}
		return nil
	}

	if sendErr != nil {
		c.rec.Messages = append(c.rec.Messages, convo.NewBotMessage(sendFailureText, c.now()))
		c.inFlight = false
		c.state = StateFailed
		if err := c.store.SaveMessages(ctx, tenantID, sessionID, snapshot(c.rec.Messages)); err != nil {
			c.logger.Warn("failed to persist error message", "error", err)
		}
		c.logger.Error("send failed", "error", sendErr, "tenant_id", tenantID)
		return sendErr
	}

	c.markDelivered(userMsg.ID)
	handoff.Apply(&c.rec, reply, c.now())
	if c.rec.ActiveAgentID != "" {
		c.agentSource = handoff.SourcePersisted
	}
	c.inFlight = false
	c.state = StateIdle

	if err := c.store.SaveMessages(ctx, tenantID, sessionID, snapshot(c.rec.Messages)); err != nil {
		c.logger.Warn("failed to persist transcript", "error", err)
	}
	if err := c.store.SaveActiveAgent(ctx, tenantID, sessionID, c.rec.ActiveAgentID); err != nil {
		c.logger.Warn("failed to persist active agent", "error", err)
	}
	return nil
}

// markDelivered flips the optimistic user message to delivered. Caller
// holds c.mu.
func (c *Controller) markDelivered(messageID string) {
	for i := range c.rec.Messages {
		if c.rec.Messages[i].ID == messageID {
			c.rec.Messages[i].Status = convo.StatusDelivered
			return
		}
	}
}

// StartNewConversation resets the session identity, clears the in-memory
// transcript, and returns the active agent to the page-supplied default.
// The old session's persisted state is left untouched under its own keys.
// A send still in flight keeps its guard slot; its late response is
// discarded on arrival rather than applied here.
func (c *Controller) StartNewConversation(ctx context.Context) error {
	newID, err := c.identity.Reset(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = newID
	agentID, source := handoff.ResolveActiveAgent("", c.pageDefaultAgent)
	c.rec = convo.Record{ActiveAgentID: agentID}
	c.agentSource = source
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Info("new conversation started", "session_id", newID)

	// The backend's session index is eventually consistent; give it a
	// moment before the surrounding list refreshes.
	if c.onSessions != nil {
		time.AfterFunc(c.sessionsRefresh, c.onSessions)
	}
	return nil
}

// State returns the current send state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the active conversation session id.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Messages returns a snapshot of the transcript.
func (c *Controller) Messages() []convo.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.rec.Messages)
}

// ActiveAgent returns the current agent id and where it came from.
func (c *Controller) ActiveAgent() (string, handoff.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.ActiveAgentID, c.agentSource
}

func snapshot(messages []convo.Message) []convo.Message {
	out := make([]convo.Message, len(messages))
	copy(out, messages)
	return out
}
