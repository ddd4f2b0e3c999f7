package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

// The tests drive the runner with sh instead of a real interpreter so they
// only depend on a POSIX shell.
func newRunner(t *testing.T, cmd string) (*Runner, *workspace.Manager) {
	t.Helper()
	ws := workspace.NewManager(t.TempDir())
	return New(ws, cmd, 5*time.Second), ws
}

func seedScript(t *testing.T, ws *workspace.Manager, rel, body string) {
	t.Helper()
	full, err := ws.Resolve(rel)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(body), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestExecuteFileSuccess(t *testing.T) {
	r, ws := newRunner(t, "sh")
	seedScript(t, ws, "hello.sh", "echo hello\n")
	res, err := r.ExecuteFile(context.Background(), "hello.sh", 0)
	if err != nil {
		t.Fatalf("ExecuteFile: %v", err)
	}
	if res.Status != "success" || res.ReturnCode == nil || *res.ReturnCode != 0 {
		t.Fatalf("result %+v", res)
	}
	if !strings.Contains(res.Stdout, "hello") {
		t.Fatalf("stdout %q", res.Stdout)
	}
	if res.ExecutionTime != "completed" {
		t.Fatalf("execution_time %q", res.ExecutionTime)
	}
}

func TestExecuteFileNonzeroExit(t *testing.T) {
	r, ws := newRunner(t, "sh")
	seedScript(t, ws, "fail.sh", "echo oops >&2\nexit 3\n")
	res, err := r.ExecuteFile(context.Background(), "fail.sh", 0)
	if err != nil {
		t.Fatalf("ExecuteFile: %v", err)
	}
	if res.Status != "error" || res.ReturnCode == nil || *res.ReturnCode != 3 {
		t.Fatalf("result %+v", res)
	}
	if !strings.Contains(res.Stderr, "oops") {
		t.Fatalf("stderr %q", res.Stderr)
	}
}

func TestExecuteFileTimeout(t *testing.T) {
	r, ws := newRunner(t, "sh")
	seedScript(t, ws, "slow.sh", "sleep 10\n")
	res, err := r.ExecuteFile(context.Background(), "slow.sh", 1)
	if err != nil {
		t.Fatalf("ExecuteFile: %v", err)
	}
	if res.Status != "error" || res.ExecutionTime != "timeout" {
		t.Fatalf("result %+v", res)
	}
	if res.ReturnCode != nil {
		t.Fatalf("return_code should be null on timeout, got %d", *res.ReturnCode)
	}
	if !strings.Contains(res.Stderr, "Timeout") {
		t.Fatalf("stderr %q", res.Stderr)
	}
}

func TestExecuteFileMissing(t *testing.T) {
	r, _ := newRunner(t, "sh")
	if _, err := r.ExecuteFile(context.Background(), "absent.sh", 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExecuteFileRejectsEscape(t *testing.T) {
	r, _ := newRunner(t, "sh")
	if _, err := r.ExecuteFile(context.Background(), "../outside.sh", 0); !errors.Is(err, workspace.ErrAccessViolation) {
		t.Fatalf("got %v, want ErrAccessViolation", err)
	}
}

func TestExecuteCodeRunsSnippet(t *testing.T) {
	r, _ := newRunner(t, "sh")
	res, err := r.ExecuteCode(context.Background(), "echo snippet-output\n", 0)
	if err != nil {
		t.Fatalf("ExecuteCode: %v", err)
	}
	if res.Status != "success" || !strings.Contains(res.Stdout, "snippet-output") {
		t.Fatalf("result %+v", res)
	}
}

func TestExecuteFileMissingInterpreter(t *testing.T) {
	r, ws := newRunner(t, "no-such-interpreter-zz")
	seedScript(t, ws, "a.sh", "echo hi\n")
	if _, err := r.ExecuteFile(context.Background(), "a.sh", 0); err == nil {
		t.Fatal("expected error for missing interpreter")
	}
}
