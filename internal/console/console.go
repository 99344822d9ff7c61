// ABOUTME: Local web console: login gate, routing, and session cookies
// ABOUTME: Serves the chat view and thin admin editors over html/template

package console

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/parley/internal/backend"
	"github.com/2389/parley/internal/chat"
	"github.com/2389/parley/internal/tenant"
)

const (
	// SessionCookieName is the name of the console session cookie
	SessionCookieName = "parley_session"

	// SessionDuration is how long console logins last
	SessionDuration = 7 * 24 * time.Hour
)

// Config holds console settings.
type Config struct {
	Addr string

	// PasswordHash is the bcrypt hash for the login gate. Empty disables
	// authentication entirely (local development).
	PasswordHash string
}

// Console is the local web UI over the chat controller and tenant resolver.
type Console struct {
	cfg        Config
	resolver   *tenant.Resolver
	controller *chat.Controller
	client     *backend.Client
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]time.Time // cookie value -> expiry
}

// New creates a Console.
func New(cfg Config, resolver *tenant.Resolver, controller *chat.Controller, client *backend.Client, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		cfg:        cfg,
		resolver:   resolver,
		controller: controller,
		client:     client,
		logger:     logger.With("component", "console"),
		sessions:   make(map[string]time.Time),
	}
}

// RegisterRoutes attaches all console handlers to the mux.
func (c *Console) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /login", c.handleLoginPage)
	mux.HandleFunc("POST /login", c.handleLogin)
	mux.HandleFunc("POST /logout", c.handleLogout)

	mux.HandleFunc("GET /", c.requireAuth(c.handleChatPage))
	mux.HandleFunc("POST /send", c.requireAuth(c.handleSend))
	mux.HandleFunc("POST /new", c.requireAuth(c.handleNewConversation))
	mux.HandleFunc("POST /tenant", c.requireAuth(c.handleTenantSwitch))

	mux.HandleFunc("GET /admin/agents", c.requireAuth(c.handleAgentsPage))
	mux.HandleFunc("POST /admin/agents", c.requireAuth(c.handleAgentSave))
	mux.HandleFunc("POST /admin/agents/delete", c.requireAuth(c.handleAgentDelete))
	mux.HandleFunc("GET /admin/tenants", c.requireAuth(c.handleTenantsPage))
	mux.HandleFunc("POST /admin/tenants", c.requireAuth(c.handleTenantCreate))
}

// Serve runs the console HTTP server until ctx is cancelled.
func (c *Console) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	c.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    c.cfg.Addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	c.logger.Info("console listening", "addr", c.cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// authDisabled reports whether the login gate is off.
func (c *Console) authDisabled() bool {
	return c.cfg.PasswordHash == ""
}

// requireAuth wraps a handler to require a valid session cookie.
func (c *Console) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.authDisabled() || c.validSession(r) {
			next(w, r)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (c *Console) validSession(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	expiry, ok := c.sessions[cookie.Value]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(c.sessions, cookie.Value)
		return false
	}
	return true
}

func (c *Console) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	c.render(w, "login.html", loginData{Title: "Sign in"})
}

func (c *Console) handleLogin(w http.ResponseWriter, r *http.Request) {
	if c.authDisabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	password := r.FormValue("password")
	if err := bcrypt.CompareHashAndPassword([]byte(c.cfg.PasswordHash), []byte(password)); err != nil {
		c.logger.Warn("failed login attempt", "remote", r.RemoteAddr)
		c.render(w, "login.html", loginData{Title: "Sign in", Error: "Wrong password"})
		return
	}

	token := uuid.New().String()
	c.mu.Lock()
	c.sessions[token] = time.Now().Add(SessionDuration)
	c.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionDuration.Seconds()),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Console) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		c.mu.Lock()
		delete(c.sessions, cookie.Value)
		c.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
