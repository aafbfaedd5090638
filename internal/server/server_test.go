package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"blog/internal/dto"
	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecks(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}

func TestRateLimitsEnabled(t *testing.T) {
	for env, want := range map[string]bool{
		"":            false,
		"development": false,
		"test":        false,
		"stress":      false,
		"production":  true,
		"staging":     true,
	} {
		assert.Equal(t, want, rateLimitsEnabled(env), env)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, errorBody(t, resp).Error)
}

func TestRoutePolicy_IgnoresPathCase(t *testing.T) {
	h := newHarness(t)
	author := h.seedUser(t, "writer", models.RoleAuthor)
	user := h.seedUser(t, "reader", models.RoleUser)
	article := h.seedArticle(t, author, "Kept")

	tests := []struct {
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{http.MethodDelete, "/Articles/" + article.ID.String(), "", nil, http.StatusUnauthorized},
		{http.MethodDelete, "/ARTICLES/" + article.ID.String(), h.tokenFor(t, author), nil, http.StatusForbidden},
		{http.MethodPut, "/Users/" + user.ID.String() + "/Role", "", `{"role":"ADMIN"}`, http.StatusUnauthorized},
		{http.MethodGet, "/USERS", h.tokenFor(t, user), nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := h.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	resp := h.do(t, http.MethodGet, "/articles/"+article.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = h.do(t, http.MethodGet, "/users/"+user.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RoleUser, decode[dto.User](t, resp).Role)
}

func TestRoutes_CaseSensitive(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/Articles", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventStream_Guards(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/ws/events", "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A query token is ignored on plain requests.
	user := h.seedUser(t, "jane", models.RoleUser)
	resp = h.do(t, http.MethodPost, "/users/logout?token="+h.tokenFor(t, user), "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
