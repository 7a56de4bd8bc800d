package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exortc/server/internal/app"
	"github.com/exortc/server/internal/auth"
	"github.com/exortc/server/internal/config"
	"github.com/exortc/server/internal/store"
)

type testServer struct {
	router *gin.Engine
	db     *store.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Mode:       "release",
		Secret:     "test-secret",
		TokenTTL:   time.Hour,
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
	}
	tokens := auth.NewTokens(cfg.Secret, cfg.TokenTTL)
	coord := app.NewCoordinator(app.NewRegistry(), db, tokens)
	return &testServer{
		router: SetupRouter(context.Background(), cfg, coord, db, tokens),
		db:     db,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (ts *testServer) register(t *testing.T, username string) (token, userID string) {
	t.Helper()
	rec, body := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret99",
	})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	return body["token"].(string), body["user"].(map[string]any)["id"].(string)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec, body := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "a@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "", "email": "a@example.com", "password": "secret99",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.register(t, "alice")
	rec, body := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "secret99",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username or email already exists", body["error"])
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice")

	rec, body := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice", "password": "secret99",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["token"])

	// Email works as the login identifier too.
	rec, _ = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice@example.com", "password": "secret99",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice", "password": "wrong999",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/servers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/servers", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileColor(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "alice")

	rec, body := ts.do(t, http.MethodPut, "/api/auth/profile/color", token, gin.H{"color": "#123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#123456", body["user"].(map[string]any)["profile_color"])

	rec, body = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#123456", body["user"].(map[string]any)["profile_color"])
}

func TestServerLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ownerToken, _ := ts.register(t, "owner")
	joinerToken, joinerID := ts.register(t, "joiner")

	rec, body := ts.do(t, http.MethodPost, "/api/servers", ownerToken, gin.H{"name": "base"})
	require.Equal(t, http.StatusCreated, rec.Code)
	server := body["server"].(map[string]any)
	serverID := server["id"].(string)
	invite := server["invite_code"].(string)
	require.Len(t, invite, 6)

	// Joining with a garbled but equivalent code works.
	rec, _ = ts.do(t, http.MethodPost, "/api/servers/join", joinerToken, gin.H{"invite_code": " " + invite + " "})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/servers/join", joinerToken, gin.H{"invite_code": invite})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Already a member of this server", body["error"])

	rec, _ = ts.do(t, http.MethodPost, "/api/servers/join", joinerToken, gin.H{"invite_code": "WRONG1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = ts.do(t, http.MethodGet, "/api/servers/"+serverID+"/members", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["members"].([]any), 2)

	// Role changes: members cannot, owners can, the owner row is immutable.
	rec, _ = ts.do(t, http.MethodPost, "/api/servers/"+serverID+"/role", joinerToken, gin.H{
		"user_id": joinerID, "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/servers/"+serverID+"/role", ownerToken, gin.H{
		"user_id": joinerID, "role": "squad_leader",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, _ = ts.do(t, http.MethodPost, "/api/servers/"+serverID+"/role", ownerToken, gin.H{
		"user_id": joinerID, "role": "owner",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ownerToken, _ := ts.register(t, "owner")
	memberToken, _ := ts.register(t, "member")

	_, body := ts.do(t, http.MethodPost, "/api/servers", ownerToken, gin.H{"name": "base"})
	server := body["server"].(map[string]any)
	serverID := server["id"].(string)
	ts.do(t, http.MethodPost, "/api/servers/join", memberToken, gin.H{"invite_code": server["invite_code"]})

	// Plain members cannot manage rooms.
	rec, _ := ts.do(t, http.MethodPost, "/api/servers/"+serverID+"/rooms", memberToken, gin.H{"name": "alpha"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/servers/"+serverID+"/rooms", ownerToken, gin.H{
		"name": "alpha", "voice_mode": "open",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	room := body["room"].(map[string]any)
	roomID := room["id"].(string)
	assert.Equal(t, "open", room["voice_mode"])

	rec, body = ts.do(t, http.MethodGet, "/api/servers/"+serverID+"/rooms", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := body["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.EqualValues(t, 0, rooms[0].(map[string]any)["member_count"])

	rec, _ = ts.do(t, http.MethodDelete, "/api/rooms/"+roomID, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(t, http.MethodDelete, "/api/rooms/"+roomID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/rooms/"+roomID, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
