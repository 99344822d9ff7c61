// ABOUTME: Chat and branding-config operations against the backend
// ABOUTME: POST /api/chat and GET /api/config, keyed by the tenant header

package backend

import (
	"context"
	"net/http"

	"github.com/2389/parley/internal/convo"
	"github.com/2389/parley/internal/handoff"
)

// ChatRequest is the JSON body sent to POST /api/chat. Phone is the
// conversation identifier the backend keys its session index on.
type ChatRequest struct {
	Message     string               `json:"message"`
	History     []convo.HistoryEntry `json:"history"`
	Phone       string               `json:"phone"`
	AssistantID string               `json:"assistantId,omitempty"`
}

// Branding is the tenant-scoped presentation config from GET /api/config.
type Branding struct {
	CompanyName    string `json:"companyName"`
	LogoURL        string `json:"logoUrl,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty"`
	WelcomeMessage string `json:"welcomeMessage,omitempty"`
}

// SendChat posts a user message and returns the backend's reply payload,
// including any handoff instruction.
func (c *Client) SendChat(ctx context.Context, tenantID string, req ChatRequest) (handoff.Reply, error) {
	var reply handoff.Reply
	if err := c.do(ctx, http.MethodPost, "/api/chat", tenantID, false, req, &reply); err != nil {
		return handoff.Reply{}, err
	}
	return reply, nil
}

// GetConfig fetches the tenant's branding configuration.
func (c *Client) GetConfig(ctx context.Context, tenantID string) (Branding, error) {
	var branding Branding
	if err := c.do(ctx, http.MethodGet, "/api/config", tenantID, false, nil, &branding); err != nil {
		return Branding{}, err
	}
	return branding, nil
}
