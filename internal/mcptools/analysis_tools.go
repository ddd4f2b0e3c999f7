package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/analysis"
)

type formatCodeResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (d *Deps) registerAnalysisTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("format_code",
		mcp.WithDescription("Format a file in place with the configured formatter."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
	), d.handle("format_code", d.formatCode))

	s.AddTool(mcp.NewTool("check_syntax",
		mcp.WithDescription("Check a file for syntax errors. Returns an empty list when the file parses."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
	), d.handle("check_syntax", d.checkSyntax))

	s.AddTool(mcp.NewTool("check_syntax_multiple_files",
		mcp.WithDescription("Check several files for syntax errors. Maps each path to its error list."),
		mcp.WithArray("filepaths", mcp.Required(), mcp.Description("File paths relative to the workspace root")),
	), d.handle("check_syntax_multiple_files", d.checkSyntaxFiles))

	s.AddTool(mcp.NewTool("lint_file",
		mcp.WithDescription("Run the configured linter on a file and return its report."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
	), d.handle("lint_file", d.lintFile))

	s.AddTool(mcp.NewTool("run_mutation_tests",
		mcp.WithDescription("Run the configured mutation tester against a file and return its report."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithString("test_file", mcp.Description("Test file to run the mutants against")),
	), d.handle("run_mutation_tests", d.runMutationTests))

	s.AddTool(mcp.NewTool("search_code",
		mcp.WithDescription("Search files under a directory for a regex and return matching lines."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Regular expression")),
		mcp.WithString("directory", mcp.Description("Directory relative to the workspace root (default .)")),
		mcp.WithString("file_pattern", mcp.Description("Filename glob (default *.py)")),
	), d.handle("search_code", d.searchCode))

	s.AddTool(mcp.NewTool("search_symbols",
		mcp.WithDescription("Find definitions of a named function or class and return file:line locations."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Symbol name")),
		mcp.WithString("kind", mcp.Description("function (default) or class")),
		mcp.WithString("directory", mcp.Description("Directory relative to the workspace root (default .)")),
	), d.handle("search_symbols", d.searchSymbols))

	s.AddTool(mcp.NewTool("find_unused_code",
		mcp.WithDescription("Run the configured dead-code detector over a directory."),
		mcp.WithString("directory", mcp.Description("Directory relative to the workspace root (default .)")),
	), d.handle("find_unused_code", d.findUnusedCode))

	s.AddTool(mcp.NewTool("extract_docstrings",
		mcp.WithDescription("Map function and class names in a file to their docstrings."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
	), d.handle("extract_docstrings", d.extractDocstrings))

	s.AddTool(mcp.NewTool("suggest_test_cases",
		mcp.WithDescription("Emit a test skeleton for a file or one of its functions."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("File path relative to the workspace root")),
		mcp.WithString("function", mcp.Description("Function to target; omit for a whole-file stub")),
	), d.handle("suggest_test_cases", d.suggestTestCases))
}

func (d *Deps) formatCode(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	msg, err := d.Analyzer.Format(ctx, path)
	if err != nil {
		return nil, err
	}
	return formatCodeResult{Status: "success", Message: msg}, nil
}

func (d *Deps) checkSyntax(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	errs, err := d.Analyzer.CheckSyntax(ctx, path)
	if err != nil {
		return nil, err
	}
	if errs == nil {
		errs = []string{}
	}
	return errs, nil
}

func (d *Deps) checkSyntaxFiles(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return d.Analyzer.CheckSyntaxFiles(ctx, stringList(req, "filepaths"))
}

func (d *Deps) lintFile(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	return d.Analyzer.Lint(ctx, path)
}

func (d *Deps) runMutationTests(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	return d.Analyzer.MutationTests(ctx, path, req.GetString("test_file", ""))
}

func (d *Deps) searchCode(_ context.Context, req mcp.CallToolRequest) (any, error) {
	pattern, err := req.RequireString("pattern")
	if err != nil {
		return nil, err
	}
	matches, err := d.Analyzer.SearchCode(pattern, req.GetString("directory", "."), req.GetString("file_pattern", ""))
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []analysis.Match{}
	}
	return matches, nil
}

func (d *Deps) searchSymbols(_ context.Context, req mcp.CallToolRequest) (any, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return nil, err
	}
	locations, err := d.Analyzer.SearchSymbols(name, req.GetString("kind", "function"), req.GetString("directory", "."))
	if err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []string{}
	}
	return locations, nil
}

func (d *Deps) findUnusedCode(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	findings, err := d.Analyzer.FindUnused(ctx, req.GetString("directory", "."))
	if err != nil {
		return nil, err
	}
	if findings == nil {
		findings = []string{}
	}
	return findings, nil
}

func (d *Deps) extractDocstrings(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	return d.Analyzer.ExtractDocstrings(ctx, path)
}

func (d *Deps) suggestTestCases(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return nil, err
	}
	return analysis.SuggestTestCases(path, req.GetString("function", "")), nil
}
