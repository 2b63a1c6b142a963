package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload caps the JSON logged per request or result; list and
// history tools can return whole registries.
const maxLoggedPayload = 4096

// logTraffic writes every MCP exchange passing through side ("inbound" or
// "outbound") to logger at debug level. Tool calls are tagged with the tool
// name, and their results with whether the tool reported an error.
func logTraffic(logger *slog.Logger, side string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			log := logger.With(exchangeAttrs(ctx, side, method, req)...)
			log.Debug("mcp request", "params", payloadText(paramsOf(req)))

			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			attrs := []any{"result", payloadText(result)}
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil {
				attrs = append(attrs, "is_error", res.IsError)
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			log.Debug("mcp response", attrs...)
			return result, err
		}
	}
}

func exchangeAttrs(ctx context.Context, side, method string, req sdkmcp.Request) []any {
	attrs := []any{"side", side, "method", method, "actor", ActorFromContext(ctx)}
	if id := sessionOf(req); id != "" {
		attrs = append(attrs, "session_id", id)
	}
	if call, ok := req.(*sdkmcp.CallToolRequest); ok && call != nil && call.Params != nil {
		attrs = append(attrs, "tool", call.Params.Name)
	}
	return attrs
}

// sessionOf and paramsOf tolerate typed-nil requests and sessions, which
// the SDK hands to sending middleware before a session is connected.
func sessionOf(req sdkmcp.Request) (id string) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if req == nil {
		return ""
	}
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func paramsOf(req sdkmcp.Request) (params any) {
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	if req == nil {
		return nil
	}
	return req.GetParams()
}

func payloadText(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("<%T>", payload)
	}
	if len(data) > maxLoggedPayload {
		return fmt.Sprintf("%s... (%d bytes)", data[:maxLoggedPayload], len(data))
	}
	return string(data)
}
