package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/backup"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/diffutil"
)

type backupFileResult struct {
	Status string `json:"status"`
	*backup.SnapshotResult
}

type restoreFileResult struct {
	Status       string `json:"status"`
	Path         string `json:"filepath"`
	RestoredFrom string `json:"restored_from"`
}

type listBackupsResult struct {
	Status       string         `json:"status"`
	Backups      []backup.Entry `json:"backups"`
	TotalBackups int            `json:"total_backups"`
}

type commitChangesResult struct {
	Status string `json:"status"`
	*backup.CommitResult
}

type compareVersionsResult struct {
	Status string `json:"status"`
	*backup.CompareResult
}

type generateDiffResult struct {
	Status string `json:"status"`
	Diff   string `json:"diff"`
}

func (d *Deps) registerBackupTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("backup_file",
		mcp.WithDescription("Take a timestamped backup of a workspace file."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
	), d.handle("backup_file", d.backupFile))

	s.AddTool(mcp.NewTool("restore_file",
		mcp.WithDescription("Restore a file from one of its backups, the most recent by default."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithString("backup_timestamp", mcp.Description("Timestamp substring selecting the backup; omit for the latest")),
	), d.handle("restore_file", d.restoreFile))

	s.AddTool(mcp.NewTool("list_backups",
		mcp.WithDescription("List backups for one file, or every backup in the workspace, newest first."),
		mcp.WithString("filepath", mcp.Description("File path relative to the workspace root; omit to list all backups")),
	), d.handle("list_backups", d.listBackups))

	s.AddTool(mcp.NewTool("commit_changes",
		mcp.WithDescription("Tag the most recent backup of a file with a commit message."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithString("commit_message", mcp.Description("Message recorded on the backup")),
	), d.handle("commit_changes", d.commitChanges))

	s.AddTool(mcp.NewTool("compare_versions",
		mcp.WithDescription("Diff a file's current content against one of its backups, the most recent by default."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithString("backup_timestamp", mcp.Description("Timestamp substring selecting the backup; omit for the latest")),
	), d.handle("compare_versions", d.compareVersions))

	s.AddTool(mcp.NewTool("generate_diff",
		mcp.WithDescription("Produce a unified diff between two text blobs."),
		mcp.WithString("text1", mcp.Required(), mcp.Description("Original text")),
		mcp.WithString("text2", mcp.Required(), mcp.Description("Modified text")),
		mcp.WithString("filename", mcp.Description("Label used in the diff headers (default file.txt)")),
	), d.handle("generate_diff", d.generateDiff))
}

func (d *Deps) backupFile(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	snap, err := d.Backups.Snapshot(path)
	if err != nil {
		return nil, err
	}
	return backupFileResult{Status: "success", SnapshotResult: snap}, nil
}

func (d *Deps) restoreFile(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	restoredFrom, err := d.Backups.Restore(path, req.GetString("backup_timestamp", ""))
	if err != nil {
		return nil, err
	}
	full, err := d.WS.Resolve(path)
	if err != nil {
		return nil, err
	}
	return restoreFileResult{Status: "success", Path: full, RestoredFrom: restoredFrom}, nil
}

func (d *Deps) listBackups(_ context.Context, req mcp.CallToolRequest) (any, error) {
	entries, err := d.Backups.List(req.GetString("filepath", ""))
	if err != nil {
		return nil, err
	}
	return listBackupsResult{Status: "success", Backups: entries, TotalBackups: len(entries)}, nil
}

func (d *Deps) commitChanges(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	res, err := d.Backups.Commit(path, req.GetString("commit_message", ""))
	if err != nil {
		return nil, err
	}
	return commitChangesResult{Status: "success", CommitResult: res}, nil
}

func (d *Deps) compareVersions(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	res, err := d.Backups.Compare(path, req.GetString("backup_timestamp", ""))
	if err != nil {
		return nil, err
	}
	return compareVersionsResult{Status: "success", CompareResult: res}, nil
}

func (d *Deps) generateDiff(_ context.Context, req mcp.CallToolRequest) (any, error) {
	text1, err := req.RequireString("text1")
	if err != nil {
		return nil, err
	}
	text2, err := req.RequireString("text2")
	if err != nil {
		return nil, err
	}
	name := req.GetString("filename", "file.txt")
	diff, err := diffutil.Unified(text1, text2, name)
	if err != nil {
		return nil, err
	}
	return generateDiffResult{Status: "success", Diff: diff}, nil
}
