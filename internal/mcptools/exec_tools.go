package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (d *Deps) registerExecTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("execute_python",
		mcp.WithDescription("Run a code snippet in a subprocess and capture its output."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code to run")),
		mcp.WithNumber("timeout", mcp.Description("Seconds before the run is killed (default 30)")),
	), d.handle("execute_python", d.executeCode))

	s.AddTool(mcp.NewTool("execute_python_file",
		mcp.WithDescription("Run a workspace file in a subprocess and capture its output."),
		mcp.WithString("file", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithNumber("timeout", mcp.Description("Seconds before the run is killed (default 30)")),
	), d.handle("execute_python_file", d.executeFile))

	s.AddTool(mcp.NewTool("debug_python_file",
		mcp.WithDescription("Run a workspace file under the debugger with line breakpoints and return the session transcript."),
		mcp.WithString("file", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithArray("breakpoints", mcp.Required(), mcp.Description("1-based line numbers to break on")),
		mcp.WithNumber("timeout", mcp.Description("Seconds before the session is killed (default 60)")),
	), d.handle("debug_python_file", d.debugFile))
}

func (d *Deps) executeCode(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return nil, err
	}
	return d.Runner.ExecuteCode(ctx, code, req.GetInt("timeout", 0))
}

func (d *Deps) executeFile(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return nil, err
	}
	return d.Runner.ExecuteFile(ctx, file, req.GetInt("timeout", 0))
}

func (d *Deps) debugFile(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return nil, err
	}
	return d.Runner.DebugFile(ctx, file, intList(req, "breakpoints"), req.GetInt("timeout", 60))
}
