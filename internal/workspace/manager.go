package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const DefaultName = "default"

// ErrAccessViolation reports a path that resolves outside the active
// workspace root. It is a hard failure: callers must not fold it into an
// ordinary error result, because it signals a containment breach rather
// than a usage error.
var ErrAccessViolation = errors.New("access violation: path escapes workspace")

var ErrInvalidName = errors.New("invalid workspace name")

// Info describes the active workspace directory.
type Info struct {
	Path   string `json:"workspace"`
	Exists bool   `json:"exists"`
	IsDir  bool   `json:"is_dir"`
}

// Manager owns the process-wide current-workspace pointer. All path
// resolution is confined to the active root. The pointer is guarded by a
// mutex because the tool facade may field concurrent requests; individual
// file operations carry no further locking.
type Manager struct {
	baseDir string

	mu      sync.Mutex
	current string
}

func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// SetWorkspace sanitizes name to its final path component, creates
// <base>/<name> if absent, and makes it the active workspace. Idempotent.
// Returns the previous and new workspace paths; the previous path is empty
// when no workspace was ever set.
func (m *Manager) SetWorkspace(name string) (string, string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == string(filepath.Separator) {
		return "", "", ErrInvalidName
	}
	root := filepath.Join(m.baseDir, clean)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", "", err
	}
	m.mu.Lock()
	old := m.current
	m.current = root
	m.mu.Unlock()
	return old, root, nil
}

// Workspace reports the active workspace, initializing <base>/default on
// first use if none was ever set.
func (m *Manager) Workspace() (Info, error) {
	root, err := m.activeRoot()
	if err != nil {
		return Info{}, err
	}
	info := Info{Path: root}
	stat, err := os.Stat(root)
	if err == nil {
		info.Exists = true
		info.IsDir = stat.IsDir()
	}
	return info, nil
}

// Root returns the active workspace root, creating the default workspace
// on first access.
func (m *Manager) Root() (string, error) {
	return m.activeRoot()
}

func (m *Manager) activeRoot() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != "" {
		return m.current, nil
	}
	root := filepath.Join(m.baseDir, DefaultName)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	m.current = root
	return root, nil
}

// Resolve joins rel to the active workspace root and verifies the resolved
// absolute path is still a descendant of (or equal to) the root. Symlinks
// along the deepest existing ancestor are followed before the containment
// check, so a link pointing outside the workspace cannot smuggle a path
// through. Returns ErrAccessViolation on escape.
func (m *Manager) Resolve(rel string) (string, error) {
	root, err := m.activeRoot()
	if err != nil {
		return "", err
	}
	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimLeft(filepath.ToSlash(rel), "/")
	full := filepath.Clean(filepath.Join(rootResolved, filepath.FromSlash(trimmed)))
	resolved, err := resolveExisting(full)
	if err != nil {
		return "", err
	}
	if resolved != rootResolved && !strings.HasPrefix(resolved, rootResolved+string(filepath.Separator)) {
		return "", ErrAccessViolation
	}
	return resolved, nil
}

// resolveExisting follows symlinks for the longest existing prefix of path
// and rejoins the non-existent remainder, so paths that are about to be
// created still get a containment-checkable absolute form.
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	dir, base := filepath.Split(filepath.Clean(path))
	dir = filepath.Clean(dir)
	if dir == path {
		return path, nil
	}
	parent, err := resolveExisting(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}
