package mcp

import (
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/padron/internal/app"
)

const (
	serverName    = "padron"
	serverVersion = "0.1.0"

	defaultPageSize = 20
	sessionTimeout  = 30 * time.Minute
)

// Config contains server configuration.
type Config struct {
	Services app.Services
	// DefaultActor stamps mutations when the caller sends no identity.
	DefaultActor string
	// ActorHeader names the HTTP header carrying the caller identity.
	ActorHeader string
	Clock       func() time.Time
	Logger      *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Within one call the first middleware runs first: actor before traffic logging.
	server.AddReceivingMiddleware(
		actorMiddleware(cfg.DefaultActor, cfg.ActorHeader),
		logTraffic(cfg.Logger, "inbound"),
	)
	server.AddSendingMiddleware(logTraffic(cfg.Logger, "outbound"))

	h := &handlers{svc: cfg.Services, clock: cfg.Clock, logger: cfg.Logger}
	registerTools(server, h)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: sessionTimeout},
	)
}
