package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const actorKey contextKey = iota

// ActorFromContext returns the identity stamped on mutations.
func ActorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(actorKey).(string)
	return v
}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// actorMiddleware resolves the caller identity from _meta.actor, then the
// identity header (HTTP), then the configured default.
func actorMiddleware(defaultActor, header string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			actor := metaActor(req)
			if actor == "" && header != "" {
				if extra := req.GetExtra(); extra != nil && extra.Header != nil {
					actor = strings.TrimSpace(extra.Header.Get(header))
				}
			}
			if actor == "" {
				actor = defaultActor
			}
			return next(WithActor(ctx, actor), method, req)
		}
	}
}

func metaActor(req sdkmcp.Request) (actor string) {
	params := req.GetParams()
	if params == nil {
		return ""
	}
	// Notifications such as "initialized" may carry a typed nil.
	defer func() {
		if recover() != nil {
			actor = ""
		}
	}()
	if meta := params.GetMeta(); meta != nil {
		if v, ok := meta["actor"].(string); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
