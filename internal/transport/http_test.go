package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/padron/internal/observability"
)

type actorEcho struct {
	calls int
}

func (h *actorEcho) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	actor, _ := ActorFromContext(r.Context())
	_, _ = w.Write([]byte(actor))
}

func serve(t *testing.T, router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_MCPCarriesActor(t *testing.T) {
	mcp := &actorEcho{}
	router := NewRouter(Config{MCP: mcp, ActorHeader: "X-Actor"})

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	req.Header.Set("X-Actor", " alice ")
	rec := serve(t, router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", rec.Body.String())

	rec = serve(t, router, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Equal(t, 2, mcp.calls)
}

func TestRouter_RejectsMalformedActor(t *testing.T) {
	mcp := &actorEcho{}
	router := NewRouter(Config{MCP: mcp, ActorHeader: "X-Actor"})

	for _, actor := range []string{"", "   ", strings.Repeat("a", maxActorLength+1), "bob\x00"} {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header["X-Actor"] = []string{actor}
		rec := serve(t, router, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "actor %q", actor)
	}
	require.Zero(t, mcp.calls)
}

func TestRouter_RateLimit(t *testing.T) {
	router := NewRouter(Config{MCP: &actorEcho{}, ActorHeader: "X-Actor", RateLimit: 2})

	call := func(actor string) int {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("X-Actor", actor)
		return serve(t, router, req).Code
	}

	require.Equal(t, http.StatusOK, call("alice"))
	require.Equal(t, http.StatusOK, call("alice"))
	require.Equal(t, http.StatusTooManyRequests, call("alice"))
	require.Equal(t, http.StatusOK, call("bob"))
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(Config{MCP: &actorEcho{}})
	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	failing := NewRouter(Config{MCP: &actorEcho{}, Ready: func(context.Context) error {
		return errors.New("database is locked")
	}})
	rec = serve(t, failing, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"status":"unavailable","error":"database is locked"}`, rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	metrics := observability.New()
	server := httptest.NewServer(NewRouter(Config{MCP: &actorEcho{}, Metrics: metrics}))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `padron_http_requests_total{method="POST",route="/mcp",status="200"} 1`)
}
