package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestLogTraffic_ToolCall(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := logTraffic(logger, "inbound")(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		return &sdkmcp.CallToolResult{IsError: true}, nil
	})

	req := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "vehicle_verify"}}
	_, err := handler(WithActor(context.Background(), "alice"), "tools/call", req)
	require.NoError(t, err)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "mcp request", lines[0]["msg"])
	require.Equal(t, "mcp response", lines[1]["msg"])
	for _, line := range lines {
		require.Equal(t, "vehicle_verify", line["tool"])
		require.Equal(t, "alice", line["actor"])
		require.Equal(t, "inbound", line["side"])
	}
	require.Equal(t, true, lines[1]["is_error"])
}

func TestLogTraffic_Failure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := logTraffic(logger, "inbound")(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, errors.New("boom")
	})

	_, err := handler(context.Background(), "tools/list", &sdkmcp.ListToolsRequest{})
	require.Error(t, err)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "boom", lines[1]["error"])
	require.NotContains(t, lines[1], "tool")
	require.NotContains(t, lines[1], "is_error")
}

func TestLogTraffic_QuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	called := false
	handler := logTraffic(logger, "outbound")(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		called = true
		return nil, nil
	})

	_, err := handler(context.Background(), "notifications/progress", nil)
	require.NoError(t, err)
	require.True(t, called)
	require.Zero(t, buf.Len())
}

func TestPayloadText_Truncates(t *testing.T) {
	require.Equal(t, "<nil>", payloadText(nil))
	require.Equal(t, `{"a":1}`, payloadText(map[string]int{"a": 1}))

	long := payloadText(strings.Repeat("x", 2*maxLoggedPayload))
	require.True(t, strings.HasSuffix(long, "bytes)"))
	require.Less(t, len(long), 2*maxLoggedPayload)
}
