package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// The test binary doubles as the server: a child started with
// runMainEnv set runs main instead of the tests.
const runMainEnv = "PADRON_TEST_RUN_MAIN"

func TestMain(m *testing.M) {
	if os.Getenv(runMainEnv) == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestStdioProtocol(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(),
		runMainEnv+"=1",
		"PADRON_TRANSPORT_MODE=stdio",
		"PADRON_DB_DRIVER=memory",
		// Debug logging must stay on stderr or the client sees garbage.
		"PADRON_LOG_LEVEL=debug",
	)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "padron-stdio-test", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err)
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		info := session.InitializeResult()
		require.NotNil(t, info)
		require.Equal(t, "padron", info.ServerInfo.Name)
		require.NotEmpty(t, info.Instructions)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err)
		names := make(map[string]bool, len(tools.Tools))
		for _, tool := range tools.Tools {
			names[tool.Name] = true
		}
		for _, name := range []string{"company_create", "vehicle_verify", "permit_change_state", "casefile_transition", "audit_log"} {
			require.True(t, names[name], "missing tool %s", name)
		}
	})

	t.Run("CreateCompany", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "company_create",
			Arguments: map[string]any{"ruc": "20100070970", "legal_name": "Empresa de Transportes Norte"},
		})
		require.NoError(t, err)
		require.False(t, result.IsError, "company_create failed: %v", result.Content)
		require.NotEmpty(t, result.Content)

		text, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		var company struct {
			ID        string `json:"id"`
			CreatedBy string `json:"created_by"`
			Version   int64  `json:"version"`
		}
		require.NoError(t, json.Unmarshal([]byte(text.Text), &company))
		require.NotEmpty(t, company.ID)
		require.Equal(t, "system", company.CreatedBy)
		require.Equal(t, int64(1), company.Version)
	})
}
