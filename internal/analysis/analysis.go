// Package analysis implements the code inspection tools: syntax checks,
// linting, formatting, mutation testing, dead-code detection, regex search,
// and docstring extraction. The checks that need a language runtime shell
// out to configurable external commands; search and test-skeleton
// generation are implemented natively.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/config"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

// Analyzer runs inspections against files in the active workspace.
type Analyzer struct {
	ws    *workspace.Manager
	tools config.Tools
}

func New(ws *workspace.Manager, tools config.Tools) *Analyzer {
	return &Analyzer{ws: ws, tools: tools}
}

// Match is one line hit from a code search.
type Match struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Code string `json:"code"`
}

// syntaxScript compiles the target and prints one "file:line:message" per
// syntax error.
const syntaxScript = `import sys
src = open(sys.argv[1], encoding="utf-8").read()
try:
    compile(src, sys.argv[1], "exec")
except SyntaxError as err:
    print(f"{err.filename}:{err.lineno}:{err.msg}")
`

// docstringScript walks the AST and emits a JSON object mapping function
// and class names to their docstrings.
const docstringScript = `import ast, json, sys
tree = ast.parse(open(sys.argv[1], encoding="utf-8").read())
docs = {}
for node in ast.walk(tree):
    if isinstance(node, (ast.FunctionDef, ast.ClassDef)):
        doc = ast.get_docstring(node)
        if doc:
            docs[node.name] = doc
print(json.dumps(docs))
`

// CheckSyntax compiles one file and returns its syntax errors, empty when
// the file parses cleanly.
func (a *Analyzer) CheckSyntax(ctx context.Context, rel string) ([]string, error) {
	full, err := a.ws.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(full); err != nil {
		return nil, fmt.Errorf("file %q does not exist", rel)
	}
	argv, err := a.command(a.tools.Python, "-c", syntaxScript, full)
	if err != nil {
		return nil, err
	}
	stdout, stderr, _, err := runCapture(ctx, argv)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(stderr) != "" && strings.TrimSpace(stdout) == "" {
		return nil, errors.New(strings.TrimSpace(stderr))
	}
	return nonEmptyLines(stdout), nil
}

// CheckSyntaxFiles checks several files and maps each path to its errors.
// A file that cannot be checked at all contributes its failure message as
// a single pseudo-error.
func (a *Analyzer) CheckSyntaxFiles(ctx context.Context, rels []string) (map[string][]string, error) {
	out := make(map[string][]string, len(rels))
	for _, rel := range rels {
		errs, err := a.CheckSyntax(ctx, rel)
		if err != nil {
			if errors.Is(err, workspace.ErrAccessViolation) {
				return nil, err
			}
			out[rel] = []string{err.Error()}
			continue
		}
		if errs == nil {
			errs = []string{}
		}
		out[rel] = errs
	}
	return out, nil
}

// Lint runs the configured linter and returns its combined output. Linter
// findings are output, not an error: only a command that cannot run at all
// fails.
func (a *Analyzer) Lint(ctx context.Context, rel string) (string, error) {
	full, err := a.ws.Resolve(rel)
	if err != nil {
		return "", err
	}
	argv, err := a.command(a.tools.Lint, full)
	if err != nil {
		return "", err
	}
	stdout, stderr, _, err := runCapture(ctx, argv)
	if err != nil {
		return "", fmt.Errorf("lint_file error: %w", err)
	}
	return stdout + stderr, nil
}

// Format rewrites the file with the configured formatter and returns its
// report. A nonzero exit means the formatter rejected the file.
func (a *Analyzer) Format(ctx context.Context, rel string) (string, error) {
	full, err := a.ws.Resolve(rel)
	if err != nil {
		return "", err
	}
	argv, err := a.command(a.tools.Format, full)
	if err != nil {
		return "", err
	}
	stdout, stderr, code, err := runCapture(ctx, argv)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", errors.New(strings.TrimSpace(stderr))
	}
	// black reports on stderr even on success
	if stdout == "" {
		return stderr, nil
	}
	return stdout, nil
}

// MutationTests runs the configured mutation tester against the file,
// optionally pointing it at a specific test file, and returns the combined
// output.
func (a *Analyzer) MutationTests(ctx context.Context, rel, testFile string) (string, error) {
	full, err := a.ws.Resolve(rel)
	if err != nil {
		return "", err
	}
	extra := []string{full}
	if testFile != "" {
		testFull, err := a.ws.Resolve(testFile)
		if err != nil {
			return "", err
		}
		extra = append(extra, "--tests", testFull)
	}
	argv, err := a.command(a.tools.Mutation, extra...)
	if err != nil {
		return "", err
	}
	stdout, stderr, _, err := runCapture(ctx, argv)
	if err != nil {
		return "", fmt.Errorf("mutation tests error: %w", err)
	}
	return stdout + stderr, nil
}

// FindUnused runs the configured dead-code detector over a directory and
// returns one finding per line.
func (a *Analyzer) FindUnused(ctx context.Context, dir string) ([]string, error) {
	full, err := a.ws.Resolve(dir)
	if err != nil {
		return nil, err
	}
	argv, err := a.command(a.tools.Unused, full)
	if err != nil {
		return nil, err
	}
	stdout, _, _, err := runCapture(ctx, argv)
	if err != nil {
		return nil, fmt.Errorf("find_unused_code error: %w", err)
	}
	return nonEmptyLines(stdout), nil
}

// SearchCode scans files under dir whose names match filePattern (shell
// glob, default *.py) for a regex and returns every matching line. File
// paths in the results are workspace-relative.
func (a *Analyzer) SearchCode(pattern, dir, filePattern string) ([]Match, error) {
	if filePattern == "" {
		filePattern = "*.py"
	}
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	full, err := a.ws.Resolve(dir)
	if err != nil {
		return nil, err
	}
	root, err := a.ws.Root()
	if err != nil {
		return nil, err
	}
	results := []Match{}
	err = filepath.WalkDir(full, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if ok, _ := filepath.Match(filePattern, d.Name()); !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}
		for i, line := range strings.Split(string(data), "\n") {
			if regex.MatchString(line) {
				results = append(results, Match{
					File: filepath.ToSlash(relPath),
					Line: i + 1,
					Code: strings.TrimSpace(line),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchSymbols finds definitions of a named function or class and returns
// "file:line" locations. Any other kind falls back to a plain name search.
func (a *Analyzer) SearchSymbols(name, kind, dir string) ([]string, error) {
	var pattern string
	switch kind {
	case "", "function":
		pattern = fmt.Sprintf(`def %s\s*\(`, regexp.QuoteMeta(name))
	case "class":
		pattern = fmt.Sprintf(`class %s\s*[(:]`, regexp.QuoteMeta(name))
	default:
		pattern = regexp.QuoteMeta(name)
	}
	matches, err := a.SearchCode(pattern, dir, "")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, fmt.Sprintf("%s:%d", m.File, m.Line))
	}
	return out, nil
}

// ExtractDocstrings maps function and class names in the file to their
// docstrings.
func (a *Analyzer) ExtractDocstrings(ctx context.Context, rel string) (map[string]string, error) {
	full, err := a.ws.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(full); err != nil {
		return nil, fmt.Errorf("file %q does not exist", rel)
	}
	argv, err := a.command(a.tools.Python, "-c", docstringScript, full)
	if err != nil {
		return nil, err
	}
	stdout, stderr, code, err := runCapture(ctx, argv)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, errors.New(strings.TrimSpace(stderr))
	}
	docs := map[string]string{}
	if err := json.Unmarshal([]byte(stdout), &docs); err != nil {
		return nil, fmt.Errorf("parse docstring output: %w", err)
	}
	return docs, nil
}

// SuggestTestCases emits a test skeleton for a file, or a single named
// function when one is given.
func SuggestTestCases(rel, function string) string {
	if function != "" {
		return fmt.Sprintf("def test_%s():\n    # TODO: implement test for %s\n    assert False\n", function, function)
	}
	return fmt.Sprintf("# TODO: implement tests for %s\n", rel)
}

// command splits a configured command string and appends the extra args.
func (a *Analyzer) command(cmdStr string, extra ...string) ([]string, error) {
	argv, err := shellquote.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("bad tool command %q: %w", cmdStr, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty tool command")
	}
	return append(argv, extra...), nil
}

// runCapture executes argv and returns its output and exit code. A nonzero
// exit is not an error; only failures to run the command at all are.
func runCapture(ctx context.Context, argv []string) (stdout, stderr string, code int, err error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", "", 0, runErr
		}
		code = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		return "", "", 0, ctx.Err()
	}
	return out.String(), errOut.String(), code, nil
}

func nonEmptyLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
