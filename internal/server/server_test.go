package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-consulting-be/internal/bootstrap"
	"ai-consulting-be/internal/config"
	"ai-consulting-be/internal/controller"
	"ai-consulting-be/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Port: "0", Environment: "test", CorsAllowedOrigins: "*"},
		Auth: config.AuthConfig{JwtSecret: testSecret, AdminRole: "admin"},
		Intelligence: config.IntelligenceConfig{
			MinRoleConfidence:         0.7,
			MaxSuggestions:            3,
			IntentConfidenceThreshold: 0.7,
			CapabilityTimeout:         time.Second,
			LockTTL:                   time.Second,
		},
	}
}

func newTestServer(t *testing.T, checks map[string]controller.Pinger) *Server {
	t.Helper()
	cfg := testConfig()
	container, err := bootstrap.NewContainer(bootstrap.Infra{Checks: checks}, cfg, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, container.Start(context.Background()))
	t.Cleanup(container.Close)
	return New(cfg, container)
}

func do(t *testing.T, s *Server, method, path string, body interface{}, header ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := s.GetApp().Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestContextLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := do(t, s, "GET", "/api/context/s1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)

	status, env = do(t, s, "PATCH", "/api/context/s1", map[string]interface{}{
		"role":           "CTO",
		"roleConfidence": 0.9,
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = do(t, s, "GET", "/api/context/s1", nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Role           string   `json:"role"`
		RoleConfidence float64  `json:"roleConfidence"`
		Capabilities   []string `json:"capabilities"`
		Company        *struct{} `json:"company"`
		Stage          string   `json:"stage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "CTO", got.Role)
	assert.Equal(t, 0.9, got.RoleConfidence)
	assert.Empty(t, got.Capabilities)
	assert.Nil(t, got.Company)
	assert.Equal(t, "GREETING", got.Stage)
}

func TestContextValidation(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := do(t, s, "PATCH", "/api/context/s1", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := do(t, s, "PATCH", "/api/context/s1", map[string]interface{}{"lead": map[string]string{"email": "nope"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "lead.email")

	status, _ = do(t, s, "GET", "/api/context/bad%20id", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCapabilitiesAreRecordedInBackground(t *testing.T) {
	s := newTestServer(t, nil)

	for i := 0; i < 2; i++ {
		status, env := do(t, s, "POST", "/api/context/s1/capabilities", map[string]interface{}{
			"capability": "search",
			"usageData":  map[string]interface{}{"query": "acme"},
		})
		require.Equal(t, http.StatusAccepted, status)
		assert.Equal(t, http.StatusAccepted, env.Code)
	}

	assert.Eventually(t, func() bool {
		_, env := do(t, s, "GET", "/api/context/s1/capabilities", nil)
		var res struct {
			Capabilities []string `json:"capabilities"`
		}
		return json.Unmarshal(env.Data, &res) == nil && len(res.Capabilities) == 1 && res.Capabilities[0] == "search"
	}, 2*time.Second, 10*time.Millisecond)

	status, env := do(t, s, "POST", "/api/context/s1/suggestions", map[string]interface{}{
		"intent": map[string]interface{}{"type": "technical_question", "confidence": 0.9},
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), `"id":"search"`)

	status, _ = do(t, s, "POST", "/api/context/s1/capabilities", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestIntelligenceEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := do(t, s, "POST", "/api/intent/detect", map[string]string{"message": ""})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"type":"other","confidence":0.3,"slots":{}}`, string(env.Data))

	status, env = do(t, s, "POST", "/api/stage/next", map[string]interface{}{"current": "QUALIFY", "hasIntent": true, "hasContext": true})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"stage":"ACTION"}`, string(env.Data))

	status, _ = do(t, s, "POST", "/api/stage/next", map[string]interface{}{"current": "NOWHERE"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = do(t, s, "POST", "/api/chat/turn", map[string]interface{}{
		"sessionId": "s9",
		"message":   "Can we book a demo next week?",
	})
	require.Equal(t, http.StatusOK, status)
	var turn struct {
		Intent  struct{ Type string } `json:"intent"`
		StageTo string                `json:"stageTo"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &turn))
	assert.Equal(t, "demo_request", turn.Intent.Type)
	assert.Equal(t, "INTENT", turn.StageTo)
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "ops",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	_, _ = do(t, s, "POST", "/api/chat/turn", map[string]interface{}{"sessionId": "s1", "message": "pricing?"})

	status, _ := do(t, s, "GET", "/api/admin/contexts", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, s, "GET", "/api/admin/contexts", nil, "Authorization", adminToken(t, "sales"))
	assert.Equal(t, http.StatusForbidden, status)

	status, env := do(t, s, "GET", "/api/admin/contexts?limit=5", nil, "Authorization", adminToken(t, "admin"))
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 5, list.Limit)

	status, _ = do(t, s, "GET", "/api/admin/contexts?limit=1000", nil, "Authorization", adminToken(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, s, "GET", "/api/admin/sessions/s1/capability-log", nil, "Authorization", adminToken(t, "admin"))
	assert.Equal(t, http.StatusOK, status)
}

func TestHealth(t *testing.T) {
	status, env := do(t, newTestServer(t, map[string]controller.Pinger{
		"database": func(ctx context.Context) error { return nil },
	}), "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = do(t, newTestServer(t, map[string]controller.Pinger{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}), "GET", "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(env.Data), "connection refused")
}
