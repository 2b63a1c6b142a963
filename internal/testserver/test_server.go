// Package testserver runs the full stack for end-to-end tests: services on
// in-memory stores, the MCP server and the HTTP router.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/padron/internal/app"
	"github.com/rpggio/padron/internal/config"
	"github.com/rpggio/padron/internal/mcp"
	"github.com/rpggio/padron/internal/observability"
	"github.com/rpggio/padron/internal/transport"
)

// Now is the instant every test server clock returns.
var Now = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type TestServer struct {
	Server  *httptest.Server
	App     *app.App
	MCP     *sdkmcp.Server
	Metrics *observability.Metrics
	Config  config.Config
}

// Option adjusts the configuration before the stack is built.
type Option func(*config.Config)

// WithSQLite backs the services with a private in-memory SQLite database.
func WithSQLite() Option {
	return func(c *config.Config) { c.DB.Driver = "sqlite" }
}

// WithRateLimit sets the /mcp request budget per minute.
func WithRateLimit(n int) Option {
	return func(c *config.Config) { c.Server.RateLimit = n }
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Driver = "memory"
	cfg.DB.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Server.RateLimit = 0
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := func() time.Time { return Now }
	metrics := observability.New()
	a, err := app.New(context.Background(), cfg, app.Options{Clock: clock, Observer: metrics})
	require.NoError(t, err)

	server := mcp.NewServer(mcp.Config{
		Services:     a.Services,
		DefaultActor: cfg.Identity.DefaultActor,
		ActorHeader:  cfg.Identity.Header,
		Clock:        clock,
	})

	router := transport.NewRouter(transport.Config{
		MCP:         mcp.NewHTTPHandler(server),
		Metrics:     metrics,
		RateLimit:   cfg.Server.RateLimit,
		ActorHeader: cfg.Identity.Header,
	})
	httpServer := httptest.NewServer(router)

	t.Cleanup(func() {
		httpServer.Close()
		_ = a.Close()
	})

	return &TestServer{
		Server:  httpServer,
		App:     a,
		MCP:     server,
		Metrics: metrics,
		Config:  cfg,
	}
}

// Connect opens a client session over in-memory transports.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := ts.MCP.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	session, err := newClient().Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
	})
	return session
}

// ConnectHTTP opens a client session against /mcp, sending actor in the
// identity header when it is not empty.
func (ts *TestServer) ConnectHTTP(t *testing.T, actor string) *sdkmcp.ClientSession {
	t.Helper()

	client := ts.Server.Client()
	if actor != "" {
		client = &http.Client{Transport: headerTransport{
			base:   ts.Server.Client().Transport,
			header: ts.Config.Identity.Header,
			value:  actor,
		}}
	}

	session, err := newClient().Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: client,
	}, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = session.Close() })
	return session
}

func newClient() *sdkmcp.Client {
	return sdkmcp.NewClient(&sdkmcp.Implementation{Name: "padron-test", Version: "1.0.0"}, nil)
}

type headerTransport struct {
	base   http.RoundTripper
	header string
	value  string
}

func (h headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set(h.header, h.value)
	return h.base.RoundTrip(r)
}
