// ABOUTME: Chat view and admin screen handlers for the web console
// ABOUTME: Bot replies render as markdown; handoff notices style distinctly

package console

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/convo"
)

// loginData holds data for the login page
type loginData struct {
	Title string
	Error string
}

// messageView is one transcript entry prepared for rendering
type messageView struct {
	Kind      string
	HTML      template.HTML
	Timestamp string
	Status    string
}

// chatData holds data for the chat page
type chatData struct {
	Title       string
	TenantID    string
	Tenants     []backend.TenantOption
	CatalogErr  string
	AgentID     string
	Branding    backend.Branding
	Messages    []messageView
	Sending     bool
	SendFailed  bool
	AuthEnabled bool
}

// agentsData holds data for the agents admin page
type agentsData struct {
	Title    string
	TenantID string
	Agents   []backend.Agent
	Error    string
}

// tenantsData holds data for the tenants admin page
type tenantsData struct {
	Title   string
	Tenants []backend.TenantOption
	Error   string
}

func (c *Console) handleChatPage(w http.ResponseWriter, r *http.Request) {
	// Page load is the console's visibility signal: another tab or an
	// admin action may have created a tenant since the last look.
	if err := c.resolver.Refresh(r.Context()); err != nil {
		c.logger.Debug("catalog refresh failed", "error", err)
	}
	if err := c.controller.SetTenant(r.Context(), c.resolver.TenantID()); err != nil {
		c.logger.Error("failed to reload conversation", "error", err)
	}

	catalog := c.resolver.Catalog()
	agentID, _ := c.controller.ActiveAgent()

	data := chatData{
		Title:       "Chat",
		TenantID:    c.resolver.TenantID(),
		Tenants:     catalog.Tenants,
		AgentID:     agentID,
		Messages:    renderMessages(c.controller.Messages()),
		AuthEnabled: !c.authDisabled(),
	}
	if catalog.Err != nil {
		data.CatalogErr = "Couldn't load the tenant list. Working against the default tenant."
	}

	// Branding is cosmetic; the page renders fine without it
	if branding, err := c.client.GetConfig(r.Context(), data.TenantID); err == nil {
		data.Branding = branding
		if branding.CompanyName != "" {
			data.Title = branding.CompanyName
		}
	}

	c.render(w, "chat.html", data)
}

func (c *Console) handleSend(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("message")
	if err := c.controller.Send(r.Context(), text); err != nil {
		// The controller already appended a visible error turn
		c.logger.Warn("send failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) handleNewConversation(w http.ResponseWriter, r *http.Request) {
	if err := c.controller.StartNewConversation(r.Context()); err != nil {
		c.logger.Error("failed to start new conversation", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) handleTenantSwitch(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("tenant_id")
	if err := c.resolver.SetTenantID(r.Context(), id); err != nil {
		c.logger.Error("failed to set tenant", "error", err)
	}
	if err := c.controller.SetTenant(r.Context(), c.resolver.TenantID()); err != nil {
		c.logger.Error("failed to reload conversation", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) handleAgentsPage(w http.ResponseWriter, r *http.Request) {
	data := agentsData{Title: "Agents", TenantID: c.resolver.TenantID()}

	agents, err := c.client.ListAgents(r.Context(), data.TenantID)
	if err != nil {
		data.Error = err.Error()
	}
	data.Agents = agents

	c.render(w, "agents.html", data)
}

// handleAgentSave passes the form through to the backend untouched.
// These editors have no invariants of their own.
func (c *Console) handleAgentSave(w http.ResponseWriter, r *http.Request) {
	agent := backend.Agent{
		ID:           r.FormValue("id"),
		Name:         r.FormValue("name"),
		Description:  r.FormValue("description"),
		Instructions: r.FormValue("instructions"),
		Model:        r.FormValue("model"),
	}
	if err := c.client.SaveAgent(r.Context(), c.resolver.TenantID(), agent); err != nil {
		c.logger.Error("failed to save agent", "error", err)
	}
	http.Redirect(w, r, "/admin/agents", http.StatusSeeOther)
}

func (c *Console) handleAgentDelete(w http.ResponseWriter, r *http.Request) {
	if id := r.FormValue("id"); id != "" {
		if err := c.client.DeleteAgent(r.Context(), c.resolver.TenantID(), id); err != nil {
			c.logger.Error("failed to delete agent", "error", err)
		}
	}
	http.Redirect(w, r, "/admin/agents", http.StatusSeeOther)
}

func (c *Console) handleTenantsPage(w http.ResponseWriter, r *http.Request) {
	data := tenantsData{Title: "Tenants"}

	tenants, err := c.client.ListTenantsAdmin(r.Context())
	if err != nil {
		data.Error = err.Error()
		tenants = c.resolver.Catalog().Tenants
	}
	data.Tenants = tenants

	c.render(w, "tenants.html", data)
}

func (c *Console) handleTenantCreate(w http.ResponseWriter, r *http.Request) {
	opt := backend.TenantOption{
		ID:   r.FormValue("id"),
		Name: r.FormValue("name"),
	}
	if err := c.client.CreateTenant(r.Context(), opt); err != nil {
		c.logger.Error("failed to create tenant", "error", err)
	}
	if err := c.resolver.Refresh(r.Context()); err != nil {
		c.logger.Debug("catalog refresh failed", "error", err)
	}
	http.Redirect(w, r, "/admin/tenants", http.StatusSeeOther)
}

// renderMessages prepares transcript entries for the template. Bot turns
// render their markdown; user turns and handoff notices stay plain text.
func renderMessages(messages []convo.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{
			Kind:      string(m.Kind),
			HTML:      renderText(m),
			Timestamp: m.Timestamp,
			Status:    string(m.Status),
		})
	}
	return views
}

func renderText(m convo.Message) template.HTML {
	if m.Kind != convo.KindBot {
		return template.HTML(template.HTMLEscapeString(m.Text))
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(m.Text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(m.Text))
	}
	return template.HTML(buf.String())
}
