// ABOUTME: HTTP client for the parley backend REST API
// ABOUTME: Tenant-scoped requests with optional bearer admin credential

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TenantHeader carries the tenant id on every backend request.
const TenantHeader = "X-Tenant-ID"

// Client errors
var (
	// ErrNoAdminCredential means an admin endpoint was called without a
	// configured admin token.
	ErrNoAdminCredential = errors.New("no admin credential configured")

	// ErrAdminCredentialExpired means the configured admin token is a JWT
	// whose expiry has passed.
	ErrAdminCredentialExpired = errors.New("admin credential expired")
)

// Client talks to the backend over its REST contract. The backend is a
// black box: it accepts a session identifier plus an optional agent id and
// returns a reply with an optional handoff instruction.
type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a backend client for the given base URL. The admin token may
// be empty; admin endpoints then fail with ErrNoAdminCredential.
func New(baseURL, adminToken string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "backend"),
	}
}

// HasAdminCredential reports whether an admin token is configured and,
// when it parses as a JWT, not yet expired. Opaque tokens pass the check;
// only the backend can judge them.
func (c *Client) HasAdminCredential() bool {
	return c.checkAdminCredential() == nil
}

// checkAdminCredential validates presence and, for JWTs, expiry of the
// admin token before spending a round trip on it.
func (c *Client) checkAdminCredential() error {
	if c.adminToken == "" {
		return ErrNoAdminCredential
	}

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(c.adminToken, claims)
	if err != nil {
		// Not a JWT; treat as an opaque bearer token
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return ErrAdminCredentialExpired
	}
	return nil
}

// do issues a JSON request and decodes a JSON response into out (when
// out is non-nil). Non-2xx responses become errors carrying any error
// message the backend included in its body.
func (c *Client) do(ctx context.Context, method, path, tenantID string, admin bool, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenantID != "" {
		req.Header.Set(TenantHeader, tenantID)
	}
	if admin {
		if err := c.checkAdminCredential(); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
			var errResp map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
				if msg, ok := errResp["error"]; ok && msg != "" {
					return fmt.Errorf("server returned status %d: %s", resp.StatusCode, msg)
				}
			}
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
