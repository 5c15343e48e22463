package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/interfaces/http/middleware"
	"github.com/turtacn/backupgw/internal/interfaces/http/router"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

// fakeResolver maps fixed tokens to principals.
type fakeResolver struct {
	principals map[string]*models.Principal
}

func (f *fakeResolver) ResolvePrincipal(_ context.Context, token string) (*models.Principal, error) {
	if p, ok := f.principals[token]; ok {
		return p, nil
	}
	return nil, errors.ErrAuthentication("Token has expired")
}

func (f *fakeResolver) HasRole(p *models.Principal, role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (f *fakeResolver) HasAnyRole(p *models.Principal, roles []string) bool {
	for _, r := range roles {
		if f.HasRole(p, r) {
			return true
		}
	}
	return false
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type harness struct {
	engine     *gin.Engine
	dispatcher *router.Dispatcher
	seen       []string
	params     []models.PathParams
	principals []*models.Principal
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := &fakeResolver{principals: map[string]*models.Principal{
		"user-token":  {ID: "u-1", Username: "user", Roles: []string{constants.RoleUser}},
		"admin-token": {ID: "u-2", Username: "admin", Roles: []string{constants.RoleAdmin, constants.RoleUser}},
	}}
	log := logger.NewNoopLogger()
	auth := middleware.NewAuthenticator(resolver, nil, nil, log)
	cors := router.NewCORSPolicy([]string{"https://console.example.com"},
		constants.CORSAllowedMethods, constants.CORSAllowedHeaders, constants.DefaultCORSMaxAge)

	h := &harness{dispatcher: router.NewDispatcher("/api", cors, auth, nil, log)}

	engine := gin.New()
	engine.Use(middleware.Recovery(log), middleware.RequestID(log))
	engine.NoRoute(h.dispatcher.Dispatch)
	h.engine = engine
	return h
}

func (h *harness) record(key string) router.HandlerFunc {
	return func(c *gin.Context, rc *models.RequestContext) {
		h.seen = append(h.seen, key)
		h.params = append(h.params, rc.Params)
		h.principals = append(h.principals, rc.Principal)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"handler": key}})
	}
}

func (h *harness) register(t *testing.T, routes ...router.Route) {
	t.Helper()
	for _, r := range routes {
		require.NoError(t, h.dispatcher.Register(r))
		require.NoError(t, h.dispatcher.Handle(r.Key, h.record(string(r.Key))))
	}
}

func (h *harness) do(method, path string, header http.Header) (*httptest.ResponseRecorder, response) {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	var body response
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestDispatch_ServerScenario(t *testing.T) {
	h := newHarness(t)
	h.register(t,
		router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.get", RequiresAuth: true},
		router.Route{Method: http.MethodDelete, Pattern: "/servers/:id", Key: "servers.delete", RequiresAuth: true, RequiredRoles: []string{constants.RoleAdmin}},
	)

	// no authorization header
	rec, body := h.do(http.MethodGet, "/api/servers/42", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Empty(t, h.seen)

	// token the identity collaborator rejects
	rec, body = h.do(http.MethodGet, "/api/servers/42", bearer("stale"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has expired", body.Error.Message)

	// valid token, principal lacks ROLE_ADMIN
	rec, body = h.do(http.MethodDelete, "/api/servers/42", bearer("user-token"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
	assert.Empty(t, h.seen)

	// valid token and qualifying role
	rec, _ = h.do(http.MethodDelete, "/api/servers/42", bearer("admin-token"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"servers.delete"}, h.seen)
	assert.Equal(t, "42", h.params[0].Get("id"))
	assert.Equal(t, "u-2", h.principals[0].ID)

	rec, _ = h.do(http.MethodGet, "/api/servers/42", bearer("user-token"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "servers.get", h.seen[1])
}

func TestDispatch_FirstMatchWins(t *testing.T) {
	h := newHarness(t)
	h.register(t,
		router.Route{Method: http.MethodGet, Pattern: "/servers/latest", Key: "servers.latest"},
		router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.get"},
		router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.shadowed"},
	)

	h.do(http.MethodGet, "/api/servers/latest", nil)
	h.do(http.MethodGet, "/api/servers/7", nil)
	assert.Equal(t, []string{"servers.latest", "servers.get"}, h.seen)
	assert.Equal(t, models.PathParams{}, h.params[0])
	assert.Equal(t, "7", h.params[1].Get("id"))

	reversed := newHarness(t)
	reversed.register(t,
		router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.get"},
		router.Route{Method: http.MethodGet, Pattern: "/servers/latest", Key: "servers.latest"},
	)
	reversed.do(http.MethodGet, "/api/servers/latest", nil)
	assert.Equal(t, []string{"servers.get"}, reversed.seen)
	assert.Equal(t, "latest", reversed.params[0].Get("id"))
}

func TestDispatch_Matching(t *testing.T) {
	h := newHarness(t)
	h.register(t,
		router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.get"},
		router.Route{Method: http.MethodGet, Pattern: "/servers/:id/jobs/:job", Key: "jobs.get"},
		router.Route{Method: http.MethodGet, Pattern: "/", Key: "root"},
	)

	tests := []struct {
		name   string
		path   string
		status int
		key    string
		params models.PathParams
	}{
		{"two params", "/api/servers/3/jobs/9", 200, "jobs.get", models.PathParams{"id": "3", "job": "9"}},
		{"escaped space", "/api/servers/a%20b", 200, "servers.get", models.PathParams{"id": "a b"}},
		{"escaped slash stays in one segment", "/api/servers/a%2Fb", 200, "servers.get", models.PathParams{"id": "a/b"}},
		{"prefix only", "/api", 200, "root", models.PathParams{}},
		{"unprefixed path", "/servers/5", 200, "servers.get", models.PathParams{"id": "5"}},
		{"literal is case-sensitive", "/api/Servers/1", 404, "", nil},
		{"trailing slash", "/api/servers/1/", 404, "", nil},
		{"empty placeholder", "/api/servers//jobs/1", 404, "", nil},
		{"prefix must end at a segment", "/apiservers/1", 404, "", nil},
		{"extra segment", "/api/servers/1/jobs", 404, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.seen, h.params = nil, nil
			rec, body := h.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status != 200 {
				assert.Equal(t, "NOT_FOUND", body.Error.Code)
				assert.Empty(t, h.seen)
				return
			}
			require.Equal(t, []string{tt.key}, h.seen)
			assert.Equal(t, tt.params, h.params[0])
		})
	}
}

func TestDispatch_NotFound(t *testing.T) {
	h := newHarness(t)
	h.register(t, router.Route{Method: http.MethodGet, Pattern: "/unknown", Key: "unknown.get"})

	rec, body := h.do(http.MethodDelete, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "No route found for DELETE /unknown", body.Error.Message)
}

func TestDispatch_Preflight(t *testing.T) {
	h := newHarness(t)
	h.register(t, router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.get", RequiresAuth: true})

	for _, path := range []string{"/api/servers/42", "/api/not/registered"} {
		rec, _ := h.do(http.MethodOptions, path, http.Header{"Origin": {"https://console.example.com"}})
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
		assert.Equal(t, "https://console.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	}
	assert.Empty(t, h.seen)
}

func TestDispatch_DisallowedOriginStillProcessed(t *testing.T) {
	h := newHarness(t)
	h.register(t, router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.get"})

	rec, _ := h.do(http.MethodGet, "/api/servers/1", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, []string{"servers.get"}, h.seen)

	rec, _ = h.do(http.MethodOptions, "/api/servers/1", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPolicy_WildcardIsNotAnOrigin(t *testing.T) {
	p := router.NewCORSPolicy([]string{"*", "https://console.example.com/"},
		constants.CORSAllowedMethods, constants.CORSAllowedHeaders, constants.DefaultCORSMaxAge)

	assert.True(t, p.Allowed("https://console.example.com"))
	assert.False(t, p.Allowed("https://evil.example.com"))
	assert.False(t, p.Allowed("*"))
	assert.False(t, p.Allowed(""))
}

func TestDispatch_MissingHandler(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.dispatcher.Register(router.Route{Method: http.MethodGet, Pattern: "/orphan", Key: "orphan"}))
	h.register(t, router.Route{Method: http.MethodGet, Pattern: "/bound", Key: "bound"})

	err := h.dispatcher.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	assert.Contains(t, err.Error(), "orphan")

	rec, body := h.do(http.MethodGet, "/api/orphan", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}

func TestDispatch_HandlerPanicIsRecovered(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.dispatcher.Register(router.Route{Method: http.MethodGet, Pattern: "/boom", Key: "boom"}))
	require.NoError(t, h.dispatcher.HandleFunc("boom", func(*gin.Context, *models.RequestContext) {
		panic("secret stack detail")
	}))

	rec, body := h.do(http.MethodGet, "/api/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.NotContains(t, rec.Body.String(), "secret stack detail")
}

func TestDispatch_RequestIDReachesHandler(t *testing.T) {
	h := newHarness(t)
	var got string
	require.NoError(t, h.dispatcher.Register(router.Route{Method: http.MethodGet, Pattern: "/ping", Key: "ping"}))
	require.NoError(t, h.dispatcher.HandleFunc("ping", func(c *gin.Context, rc *models.RequestContext) {
		got = rc.RequestID
		c.Status(http.StatusNoContent)
	}))

	rec, _ := h.do(http.MethodGet, "/api/ping", http.Header{"X-Request-Id": {"req-123"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-123", got)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t)

	bad := []router.Route{
		{Method: "", Pattern: "/x", Key: "k"},
		{Method: http.MethodGet, Pattern: "/x", Key: ""},
		{Method: http.MethodGet, Pattern: "x", Key: "k"},
		{Method: http.MethodGet, Pattern: "/x/:", Key: "k"},
		{Method: http.MethodGet, Pattern: "/x/:id/:id", Key: "k"},
		{Method: http.MethodGet, Pattern: "/x", Key: "k", RequiredRoles: []string{constants.RoleAdmin}},
	}
	for _, r := range bad {
		err := h.dispatcher.Register(r)
		assert.True(t, errors.IsKind(err, errors.KindConfiguration), "%+v", r)
	}

	h.register(t, router.Route{Method: http.MethodGet, Pattern: "/ok", Key: "ok"})
	require.NoError(t, h.dispatcher.Validate())
	assert.Error(t, h.dispatcher.Register(router.Route{Method: http.MethodGet, Pattern: "/late", Key: "late"}))
	assert.Len(t, h.dispatcher.Routes(), 1)
}

func TestHandle_RejectedAfterSeal(t *testing.T) {
	h := newHarness(t)
	h.register(t, router.Route{Method: http.MethodGet, Pattern: "/ok", Key: "ok"})
	require.NoError(t, h.dispatcher.Validate())

	err := h.dispatcher.Handle("ok", h.record("late"))
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	err = h.dispatcher.HandleFunc("other", func(*gin.Context, *models.RequestContext) {})
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))

	rec, body := h.do(http.MethodGet, "/api/ok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"handler":"ok"}`, string(body.Data))
	assert.Equal(t, []string{"ok"}, h.seen)
}

func TestDispatch_Concurrent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.dispatcher.Register(router.Route{Method: http.MethodGet, Pattern: "/servers/:id", Key: "servers.get", RequiresAuth: true}))
	require.NoError(t, h.dispatcher.HandleFunc("servers.get", func(c *gin.Context, rc *models.RequestContext) {
		c.JSON(http.StatusOK, gin.H{"id": rc.Param("id"), "user": rc.Principal.ID})
	}))
	require.NoError(t, h.dispatcher.Validate())

	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			rec, _ := h.do(http.MethodGet, "/api/servers/9", bearer("user-token"))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":"9","user":"u-1"}`, rec.Body.String())
		}()
	}
	timeout := time.After(5 * time.Second)
	for i := 0; i < 16; i++ {
		select {
		case <-done:
		case <-timeout:
			t.Fatal("dispatch did not complete")
		}
	}
}
