// ABOUTME: Tests for the backend client using httptest servers
// ABOUTME: Covers chat round trips, error mapping, and admin credentials

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/convo"
)

func TestClient_SendChat(t *testing.T) {
	var gotTenant string
	var gotBody ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		gotTenant = r.Header.Get(TenantHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"reply":                "hello back",
			"effectiveAssistantId": "support",
			"handoff": map[string]any{
				"targetAgentId": "sales",
				"initialReply":  "hi from sales",
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "", nil)
	reply, err := client.SendChat(context.Background(), "acme", ChatRequest{
		Message:     "hello",
		History:     []convo.HistoryEntry{{Role: "user", Content: "earlier"}},
		Phone:       "a1b2c3d4",
		AssistantID: "support",
	})
	require.NoError(t, err)

	assert.Equal(t, "acme", gotTenant)
	assert.Equal(t, "hello", gotBody.Message)
	assert.Equal(t, "a1b2c3d4", gotBody.Phone)
	assert.Equal(t, "support", gotBody.AssistantID)
	require.Len(t, gotBody.History, 1)

	assert.Equal(t, "hello back", reply.Reply)
	assert.Equal(t, "support", reply.EffectiveAssistantID)
	require.NotNil(t, reply.Handoff)
	assert.Equal(t, "sales", reply.Handoff.TargetAgentID)
	assert.Equal(t, "hi from sales", reply.Handoff.InitialReply)
}

func TestClient_SendChat_ServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "model unavailable"})
	}))
	defer server.Close()

	client := New(server.URL, "", nil)
	_, err := client.SendChat(context.Background(), "acme", ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestClient_ListTenants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tenants", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]TenantOption{{ID: "default"}, {ID: "acme", Name: "Acme Corp"}})
	}))
	defer server.Close()

	client := New(server.URL, "", nil)
	tenants, err := client.ListTenants(context.Background())
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "acme", tenants[1].ID)
}

func TestClient_ListTenantsAdmin_SendsBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/admin/tenants", r.URL.Path)
		assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]TenantOption{{ID: "default"}})
	}))
	defer server.Close()

	client := New(server.URL, "opaque-token", nil)
	tenants, err := client.ListTenantsAdmin(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
}

func TestClient_AdminEndpointWithoutCredential(t *testing.T) {
	client := New("http://localhost:0", "", nil)
	_, err := client.ListTenantsAdmin(context.Background())
	assert.ErrorIs(t, err, ErrNoAdminCredential)
}

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestClient_HasAdminCredential(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "no token", token: "", want: false},
		{name: "opaque token", token: "opaque", want: true},
		{name: "valid jwt", token: "", want: true},
		{name: "expired jwt", token: "", want: false},
	}

	tests[2].token = signedToken(t, time.Hour)
	tests[3].token = signedToken(t, -time.Hour)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New("http://localhost:0", tt.token, nil)
			assert.Equal(t, tt.want, client.HasAdminCredential())
		})
	}
}

func TestClient_ExpiredJWTFailsBeforeRoundTrip(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := New(server.URL, signedToken(t, -time.Hour), nil)
	_, err := client.ListTenantsAdmin(context.Background())
	assert.ErrorIs(t, err, ErrAdminCredentialExpired)
	assert.False(t, called)
}
