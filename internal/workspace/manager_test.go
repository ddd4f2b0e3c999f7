package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetWorkspaceSanitizesName(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base)
	old, current, err := mgr.SetWorkspace("../../evil")
	if err != nil {
		t.Fatalf("set workspace: %v", err)
	}
	if old != "" {
		t.Fatalf("expected empty old workspace, got %q", old)
	}
	if current != filepath.Join(base, "evil") {
		t.Fatalf("name not sanitized to final component: %q", current)
	}
	if _, err := os.Stat(current); err != nil {
		t.Fatalf("workspace dir not created: %v", err)
	}
}

func TestSetWorkspaceIdempotent(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, first, err := mgr.SetWorkspace("w")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	old, second, err := mgr.SetWorkspace("w")
	if err != nil {
		t.Fatalf("set again: %v", err)
	}
	if old != first || second != first {
		t.Fatalf("expected stable paths, got old=%q new=%q", old, second)
	}
}

func TestWorkspaceLazyDefault(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base)
	info, err := mgr.Workspace()
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	if info.Path != filepath.Join(base, DefaultName) {
		t.Fatalf("expected default workspace, got %q", info.Path)
	}
	if !info.Exists || !info.IsDir {
		t.Fatalf("default workspace not created on first access: %+v", info)
	}
}

func TestResolveInsideWorkspace(t *testing.T) {
	mgr := NewManager(t.TempDir())
	if _, _, err := mgr.SetWorkspace("w"); err != nil {
		t.Fatalf("set: %v", err)
	}
	path, err := mgr.Resolve("sub/dir/file.txt")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	root, _ := mgr.Root()
	rootResolved, _ := filepath.EvalSymlinks(root)
	if !strings.HasPrefix(path, rootResolved+string(filepath.Separator)) {
		t.Fatalf("resolved path %q not under root %q", path, rootResolved)
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	mgr := NewManager(t.TempDir())
	for _, rel := range []string{"../outside.txt", "a/../../outside.txt", "../../.."} {
		if _, err := mgr.Resolve(rel); !errors.Is(err, ErrAccessViolation) {
			t.Fatalf("Resolve(%q): expected ErrAccessViolation, got %v", rel, err)
		}
	}
}

func TestResolveLeadingSlashStaysInside(t *testing.T) {
	mgr := NewManager(t.TempDir())
	path, err := mgr.Resolve("/etc/passwd")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	root, _ := mgr.Root()
	rootResolved, _ := filepath.EvalSymlinks(root)
	if !strings.HasPrefix(path, rootResolved+string(filepath.Separator)) {
		t.Fatalf("absolute-looking path escaped: %q", path)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base)
	if _, _, err := mgr.SetWorkspace("w"); err != nil {
		t.Fatalf("set: %v", err)
	}
	root, _ := mgr.Root()
	outside := filepath.Join(base, "outside")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}
	if _, err := mgr.Resolve("link/file.txt"); !errors.Is(err, ErrAccessViolation) {
		t.Fatalf("expected ErrAccessViolation through symlink, got %v", err)
	}
}
