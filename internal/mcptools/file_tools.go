package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

type listPathResult struct {
	Status  string            `json:"status"`
	Entries []workspace.Entry `json:"entries"`
}

type listPathRecursiveResult struct {
	Status  string                `json:"status"`
	Entries []workspace.TreeEntry `json:"entries"`
}

type linesResult struct {
	Status string   `json:"status"`
	Lines  []string `json:"lines"`
}

func (d *Deps) registerFileTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("list_path",
		mcp.WithDescription("List files and directories at a workspace path, non-recursive."),
		mcp.WithString("path", mcp.Description("Directory relative to the workspace root (default .)")),
	), d.handle("list_path", d.listPath))

	s.AddTool(mcp.NewTool("list_path_recursive",
		mcp.WithDescription("List every file and directory under a workspace path."),
		mcp.WithString("path", mcp.Description("Directory relative to the workspace root (default .)")),
	), d.handle("list_path_recursive", d.listPathRecursive))

	s.AddTool(mcp.NewTool("get_head",
		mcp.WithDescription("Return the first n lines of a file."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithNumber("n", mcp.Description("Number of lines (default 10)")),
	), d.handle("get_head", d.getHead))

	s.AddTool(mcp.NewTool("get_tail",
		mcp.WithDescription("Return the last n lines of a file."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithNumber("n", mcp.Description("Number of lines (default 10)")),
	), d.handle("get_tail", d.getTail))

	s.AddTool(mcp.NewTool("get_lines",
		mcp.WithDescription("Return lines start through end of a file, 1-based and inclusive."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("First line, 1-based")),
		mcp.WithNumber("end", mcp.Required(), mcp.Description("Last line, inclusive")),
	), d.handle("get_lines", d.getLines))
}

func (d *Deps) listPath(_ context.Context, req mcp.CallToolRequest) (any, error) {
	entries, err := d.WS.List(req.GetString("path", "."))
	if err != nil {
		return nil, err
	}
	return listPathResult{Status: "success", Entries: entries}, nil
}

func (d *Deps) listPathRecursive(_ context.Context, req mcp.CallToolRequest) (any, error) {
	entries, err := d.WS.ListRecursive(req.GetString("path", "."))
	if err != nil {
		return nil, err
	}
	return listPathRecursiveResult{Status: "success", Entries: entries}, nil
}

func (d *Deps) getHead(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	lines, err := d.WS.Head(path, req.GetInt("n", 10))
	if err != nil {
		return nil, err
	}
	return linesResult{Status: "success", Lines: lines}, nil
}

func (d *Deps) getTail(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	lines, err := d.WS.Tail(path, req.GetInt("n", 10))
	if err != nil {
		return nil, err
	}
	return linesResult{Status: "success", Lines: lines}, nil
}

func (d *Deps) getLines(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	start, err := req.RequireInt("start")
	if err != nil {
		return nil, err
	}
	end, err := req.RequireInt("end")
	if err != nil {
		return nil, err
	}
	lines, err := d.WS.Lines(path, start, end)
	if err != nil {
		return nil, err
	}
	return linesResult{Status: "success", Lines: lines}, nil
}
