package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func seedTree(t *testing.T, m *Manager) {
	t.Helper()
	root, err := m.Root()
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"top.txt":      "one\ntwo\nthree\nfour\nfive\n",
		"sub/leaf.txt": "leaf\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestListDirectory(t *testing.T) {
	m := NewManager(t.TempDir())
	seedTree(t, m)
	entries, err := m.List(".")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	f, ok := byName["top.txt"]
	if !ok || f.IsDir || f.Size == nil || *f.Size != 24 {
		t.Fatalf("top.txt entry wrong: %+v", f)
	}
	d, ok := byName["sub"]
	if !ok || !d.IsDir || d.Size != nil {
		t.Fatalf("sub entry wrong: %+v", d)
	}
}

func TestListMissingDirectory(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.List("nope"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestListRecursive(t *testing.T) {
	m := NewManager(t.TempDir())
	seedTree(t, m)
	entries, err := m.ListRecursive(".")
	if err != nil {
		t.Fatalf("ListRecursive: %v", err)
	}
	paths := map[string]bool{}
	for _, e := range entries {
		paths[e.Path] = e.IsDir
	}
	if isDir, ok := paths["sub"]; !ok || !isDir {
		t.Fatalf("sub missing or not dir: %v", paths)
	}
	if isDir, ok := paths["sub/leaf.txt"]; !ok || isDir {
		t.Fatalf("sub/leaf.txt missing or dir: %v", paths)
	}
}

func TestHeadTailLines(t *testing.T) {
	m := NewManager(t.TempDir())
	seedTree(t, m)

	head, err := m.Head("top.txt", 2)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if !reflect.DeepEqual(head, []string{"one\n", "two\n"}) {
		t.Fatalf("head %q", head)
	}

	tail, err := m.Tail("top.txt", 2)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if !reflect.DeepEqual(tail, []string{"four\n", "five\n"}) {
		t.Fatalf("tail %q", tail)
	}

	// Asking for more lines than the file has returns everything.
	all, err := m.Head("top.txt", 99)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("head overshoot returned %d lines", len(all))
	}

	mid, err := m.Lines("top.txt", 2, 4)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if !reflect.DeepEqual(mid, []string{"two\n", "three\n", "four\n"}) {
		t.Fatalf("lines %q", mid)
	}
}

func TestLinesRangeErrors(t *testing.T) {
	m := NewManager(t.TempDir())
	seedTree(t, m)
	for _, c := range [][2]int{{0, 2}, {3, 2}, {2, 99}} {
		if _, err := m.Lines("top.txt", c[0], c[1]); err == nil {
			t.Fatalf("range %v should fail", c)
		}
	}
}

func TestHeadMissingFile(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.Head("absent.txt", 3); err == nil {
		t.Fatal("expected error for missing file")
	}
}
