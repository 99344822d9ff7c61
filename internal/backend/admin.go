// ABOUTME: Admin CRUD operations: tenants, agents, and session listings
// ABOUTME: Thin pass-through editors; the backend owns all validation

package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// TenantOption is one entry in the tenant catalog.
type TenantOption struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Agent is a conversational agent definition as the backend stores it.
type Agent struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Model        string   `json:"model,omitempty"`
	Tools        []string `json:"tools,omitempty"`
}

// SessionSummary is one conversation in the backend's session index.
type SessionSummary struct {
	Phone       string `json:"phone"`
	AgentID     string `json:"agentId,omitempty"`
	LastMessage string `json:"lastMessage,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// ListTenants fetches the public tenant catalog. No credential required.
func (c *Client) ListTenants(ctx context.Context) ([]TenantOption, error) {
	var tenants []TenantOption
	if err := c.do(ctx, http.MethodGet, "/api/tenants", "", false, nil, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// ListTenantsAdmin fetches the full tenant catalog with the admin credential.
func (c *Client) ListTenantsAdmin(ctx context.Context) ([]TenantOption, error) {
	var tenants []TenantOption
	if err := c.do(ctx, http.MethodGet, "/api/admin/tenants", "", true, nil, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// CreateTenant registers a new tenant.
func (c *Client) CreateTenant(ctx context.Context, tenant TenantOption) error {
	return c.do(ctx, http.MethodPost, "/api/admin/tenants", "", true, tenant, nil)
}

// DeleteTenant removes a tenant.
func (c *Client) DeleteTenant(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/tenants/"+url.PathEscape(id), "", true, nil, nil)
}

// ListAgents fetches the agents configured for a tenant.
func (c *Client) ListAgents(ctx context.Context, tenantID string) ([]Agent, error) {
	var agents []Agent
	if err := c.do(ctx, http.MethodGet, "/api/admin/agents", tenantID, true, nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// GetAgent fetches one agent by id.
func (c *Client) GetAgent(ctx context.Context, tenantID, id string) (Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodGet, "/api/admin/agents/"+url.PathEscape(id), tenantID, true, nil, &agent); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// SaveAgent creates or updates an agent. An empty id creates.
func (c *Client) SaveAgent(ctx context.Context, tenantID string, agent Agent) error {
	if agent.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if agent.ID == "" {
		return c.do(ctx, http.MethodPost, "/api/admin/agents", tenantID, true, agent, nil)
	}
	return c.do(ctx, http.MethodPut, "/api/admin/agents/"+url.PathEscape(agent.ID), tenantID, true, agent, nil)
}

// DeleteAgent removes an agent.
func (c *Client) DeleteAgent(ctx context.Context, tenantID, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/agents/"+url.PathEscape(id), tenantID, true, nil, nil)
}

// ListSessions fetches the backend's conversation index for a tenant.
func (c *Client) ListSessions(ctx context.Context, tenantID string) ([]SessionSummary, error) {
	var sessions []SessionSummary
	if err := c.do(ctx, http.MethodGet, "/api/admin/sessions", tenantID, true, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
