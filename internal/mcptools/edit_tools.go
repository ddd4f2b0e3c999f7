package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/editengine"
)

// editParams declares the shared parameter set of the edit tools.
func editParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithString("content", mcp.Description("Full replacement content for the default overwrite mode")),
		mcp.WithString("mode", mcp.Description("Edit mode: overwrite (default), unified_diff, line_edit, or span_edit")),
		mcp.WithString("diff_text", mcp.Description("Line-tagged diff transcript for unified_diff mode")),
		mcp.WithNumber("line_number", mcp.Description("1-based line to replace in line_edit mode")),
		mcp.WithString("new_content", mcp.Description("Replacement text for line_edit and span_edit modes")),
		mcp.WithNumber("start_line", mcp.Description("1-based first line of the span in span_edit mode")),
		mcp.WithNumber("end_line", mcp.Description("1-based last line of the span, inclusive")),
	}
}

func (d *Deps) registerEditTools(s *server.MCPServer) {
	editOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Edit a file in the active workspace, taking a timestamped backup first unless disabled. Returns a unified diff preview of the change."),
	}, editParams()...)
	editOpts = append(editOpts,
		mcp.WithBoolean("create_backup", mcp.Description("Back up the file before editing (default true)")),
	)
	s.AddTool(mcp.NewTool("edit_file", editOpts...), d.handle("edit_file", d.editFile))

	previewOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Compute an edit's diff preview without writing anything."),
	}, editParams()...)
	s.AddTool(mcp.NewTool("preview_edit", previewOpts...), d.handle("preview_edit", d.previewEdit))

	validateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Check an edit's parameters against the file's current shape without applying it."),
	}, editParams()...)
	s.AddTool(mcp.NewTool("validate_edit", validateOpts...), d.handle("validate_edit", d.validateEdit))
}

func editRequest(req mcp.CallToolRequest) editengine.Request {
	return editengine.Request{
		Mode:       req.GetString("mode", ""),
		Content:    optString(req, "content"),
		DiffText:   optString(req, "diff_text"),
		LineNumber: optInt(req, "line_number"),
		NewContent: optString(req, "new_content"),
		StartLine:  optInt(req, "start_line"),
		EndLine:    optInt(req, "end_line"),
	}
}

func (d *Deps) editFile(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	createBackup := req.GetBool("create_backup", true)
	return d.Editor.Apply(path, editRequest(req), createBackup)
}

func (d *Deps) previewEdit(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	return d.Editor.Preview(path, editRequest(req))
}

func (d *Deps) validateEdit(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	return d.Editor.ValidateFile(path, editRequest(req))
}
