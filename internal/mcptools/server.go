// Package mcptools registers the workspace, editing, backup, analysis, and
// execution tools on an MCP server and maps their results onto the wire.
//
// Failures follow one rule: a path escaping the workspace is a protocol
// error that aborts the call, while every other failure is a structured
// {"status": "error"} result the client can read.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/analysis"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/backup"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/editengine"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/logging"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/runner"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

const serverName = "Development MCP Server"

// Deps carries the subsystems the tool handlers delegate to.
type Deps struct {
	WS       *workspace.Manager
	Backups  *backup.Store
	Editor   *editengine.Editor
	Analyzer *analysis.Analyzer
	Runner   *runner.Runner
	Logger   *slog.Logger
}

// NewServer builds the MCP server with every tool registered.
func NewServer(version string, d *Deps) *server.MCPServer {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	d.registerWorkspaceTools(s)
	d.registerEditTools(s)
	d.registerBackupTools(s)
	d.registerFileTools(s)
	d.registerAnalysisTools(s)
	d.registerExecTools(s)
	return s
}

type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// handle wraps a tool implementation with logging and the error-mapping
// rule described in the package comment.
func (d *Deps) handle(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := fn(ctx, req)
		if err != nil {
			if errors.Is(err, workspace.ErrAccessViolation) {
				d.Logger.Error("access violation", "tool", name, "error", err)
				return nil, err
			}
			d.Logger.Debug("tool failed", "tool", name, "error", err)
			return textResult(map[string]any{"status": "error", "message": err.Error()})
		}
		d.Logger.Debug("tool ok", "tool", name)
		return textResult(payload)
	}
}

// textResult renders the payload as a text content block: strings as-is,
// everything else as indented JSON.
func textResult(v any) (*mcp.CallToolResult, error) {
	if s, ok := v.(string); ok {
		return mcp.NewToolResultText(s), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// optString reports a parameter that was present in the call, even as an
// empty string, as distinct from one that was omitted.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	s := mcp.ParseString(req, key, "")
	return &s
}

func optInt(req mcp.CallToolRequest, key string) *int {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case json.Number:
		if f, err := n.Float64(); err == nil {
			i := int(f)
			return &i
		}
	}
	return nil
}

func stringList(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intList(req mcp.CallToolRequest, key string) []int {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	return out
}
