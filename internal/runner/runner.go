// Package runner executes workspace code in subprocesses: ad-hoc snippets,
// files, and debugger sessions. Every run is bounded by a timeout and a
// timed-out run is reported in the result rather than as an error.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

// Runner launches interpreter subprocesses against the active workspace.
type Runner struct {
	ws             *workspace.Manager
	python         string
	defaultTimeout time.Duration
}

func New(ws *workspace.Manager, pythonCmd string, defaultTimeout time.Duration) *Runner {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Runner{ws: ws, python: pythonCmd, defaultTimeout: defaultTimeout}
}

// ExecResult reports one subprocess run. ReturnCode is null when the
// process was killed by the timeout.
type ExecResult struct {
	Status        string `json:"status"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	ReturnCode    *int   `json:"return_code"`
	ExecutionTime string `json:"execution_time"`
}

// debugScript runs the target under the debugger with the given
// breakpoints and prints the captured session transcript. A stream of
// continue commands keeps the session from blocking on input.
const debugScript = `import io, pdb, sys
from contextlib import redirect_stdout, redirect_stderr

target = sys.argv[1]
breakpoints = [int(x) for x in sys.argv[2:]]

class BreakpointPdb(pdb.Pdb):
    def user_line(self, frame):
        if frame.f_lineno in breakpoints:
            self.set_break(frame.f_code.co_filename, frame.f_lineno)
        super().user_line(frame)

buf = io.StringIO()
with redirect_stdout(buf), redirect_stderr(buf):
    debugger = BreakpointPdb(stdin=io.StringIO("continue\n" * 1000), stdout=buf)
    try:
        debugger.run(f'exec(open("{target}").read(), {{"__name__": "__main__"}})')
    except Exception as exc:
        print(f"Exception: {exc}")
sys.stdout.write(buf.getvalue())
`

// ExecuteCode writes the snippet to a temporary file and runs it.
func (r *Runner) ExecuteCode(ctx context.Context, code string, timeoutSec int) (*ExecResult, error) {
	tmp, err := os.CreateTemp("", "devmcp-*.py")
	if err != nil {
		return nil, err
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.WriteString(code); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return r.run(ctx, name, timeoutSec)
}

// ExecuteFile runs a workspace file with the configured interpreter.
func (r *Runner) ExecuteFile(ctx context.Context, rel string, timeoutSec int) (*ExecResult, error) {
	full, err := r.ws.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(full); err != nil {
		return nil, fmt.Errorf("file %q does not exist", rel)
	}
	return r.run(ctx, full, timeoutSec)
}

// DebugFile runs a workspace file under the debugger, stopping at the
// given 1-based line numbers, and returns the session transcript.
func (r *Runner) DebugFile(ctx context.Context, rel string, breakpoints []int, timeoutSec int) (string, error) {
	full, err := r.ws.Resolve(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("file %q does not exist", rel)
	}
	argv, err := r.interpreter("-c", debugScript, full)
	if err != nil {
		return "", err
	}
	for _, bp := range breakpoints {
		argv = append(argv, strconv.Itoa(bp))
	}
	res, err := r.runArgv(ctx, argv, r.timeout(timeoutSec))
	if err != nil {
		return "", err
	}
	if res.ExecutionTime == "timeout" {
		return "", fmt.Errorf("debug session timed out: %s", res.Stderr)
	}
	return res.Stdout + res.Stderr, nil
}

func (r *Runner) run(ctx context.Context, file string, timeoutSec int) (*ExecResult, error) {
	argv, err := r.interpreter(file)
	if err != nil {
		return nil, err
	}
	return r.runArgv(ctx, argv, r.timeout(timeoutSec))
}

func (r *Runner) timeout(timeoutSec int) time.Duration {
	if timeoutSec > 0 {
		return time.Duration(timeoutSec) * time.Second
	}
	return r.defaultTimeout
}

func (r *Runner) interpreter(extra ...string) ([]string, error) {
	argv, err := shellquote.Split(r.python)
	if err != nil || len(argv) == 0 {
		return nil, fmt.Errorf("bad interpreter command %q", r.python)
	}
	return append(argv, extra...), nil
}

func (r *Runner) runArgv(ctx context.Context, argv []string, timeout time.Duration) (*ExecResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &ExecResult{
			Status:        "error",
			Stderr:        fmt.Sprintf("Timeout (>%s)", timeout),
			ExecutionTime: "timeout",
		}, nil
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, runErr
		}
	}
	code := cmd.ProcessState.ExitCode()
	status := "success"
	if code != 0 {
		status = "error"
	}
	return &ExecResult{
		Status:        status,
		Stdout:        stdout.String(),
		Stderr:        stderr.String(),
		ReturnCode:    &code,
		ExecutionTime: "completed",
	}, nil
}
