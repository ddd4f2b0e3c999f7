package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

type setWorkspaceResult struct {
	Status       string `json:"status"`
	OldWorkspace string `json:"old_workspace"`
	NewWorkspace string `json:"new_workspace"`
}

type getWorkspaceResult struct {
	Status string `json:"status"`
	workspace.Info
}

func (d *Deps) registerWorkspaceTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("set_workspace",
		mcp.WithDescription("Select or create the named workspace under the workspaces directory and make it active."),
		mcp.WithString("workspace_name", mcp.Required(), mcp.Description("Workspace name; only its final path component is used")),
	), d.handle("set_workspace", d.setWorkspace))

	s.AddTool(mcp.NewTool("get_workspace",
		mcp.WithDescription("Report the active workspace path, creating the default workspace on first use."),
	), d.handle("get_workspace", d.getWorkspace))
}

func (d *Deps) setWorkspace(_ context.Context, req mcp.CallToolRequest) (any, error) {
	name, err := req.RequireString("workspace_name")
	if err != nil {
		return nil, err
	}
	oldPath, newPath, err := d.WS.SetWorkspace(name)
	if err != nil {
		return nil, err
	}
	return setWorkspaceResult{Status: "success", OldWorkspace: oldPath, NewWorkspace: newPath}, nil
}

func (d *Deps) getWorkspace(_ context.Context, _ mcp.CallToolRequest) (any, error) {
	info, err := d.WS.Workspace()
	if err != nil {
		return nil, err
	}
	return getWorkspaceResult{Status: "success", Info: info}, nil
}
