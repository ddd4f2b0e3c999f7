package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Entry describes one immediate child of a listed directory. Size is null
// for directories.
type Entry struct {
	Name  string  `json:"name"`
	IsDir bool    `json:"is_dir"`
	Size  *int64  `json:"size"`
	MTime float64 `json:"mtime"`
}

// TreeEntry describes one file or directory in a recursive listing. Path
// is relative to the listed directory, using forward slashes.
type TreeEntry struct {
	Path  string  `json:"path"`
	IsDir bool    `json:"is_dir"`
	Size  *int64  `json:"size"`
	MTime float64 `json:"mtime"`
}

// List returns the immediate children of rel, which must be an existing
// directory inside the active workspace.
func (m *Manager) List(rel string) ([]Entry, error) {
	full, err := m.Resolve(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("path %q does not exist or is not a directory", rel)
	}
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		e := Entry{
			Name:  entry.Name(),
			IsDir: entry.IsDir(),
			MTime: unixSeconds(info),
		}
		if !entry.IsDir() {
			size := info.Size()
			e.Size = &size
		}
		out = append(out, e)
	}
	return out, nil
}

// ListRecursive returns every file and directory under rel, paths relative
// to rel.
func (m *Manager) ListRecursive(rel string) ([]TreeEntry, error) {
	full, err := m.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(full); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("path %q does not exist or is not a directory", rel)
	}
	out := []TreeEntry{}
	err = filepath.WalkDir(full, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == full {
			return nil
		}
		relPath, err := filepath.Rel(full, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		e := TreeEntry{
			Path:  filepath.ToSlash(relPath),
			IsDir: d.IsDir(),
			MTime: unixSeconds(info),
		}
		if !d.IsDir() {
			size := info.Size()
			e.Size = &size
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Head returns the first n lines of rel, newlines preserved. A file with
// fewer than n lines returns all of them.
func (m *Manager) Head(rel string, n int) ([]string, error) {
	lines, err := m.readFileLines(rel)
	if err != nil {
		return nil, err
	}
	if n > len(lines) {
		n = len(lines)
	}
	if n < 0 {
		n = 0
	}
	return lines[:n], nil
}

// Tail returns the last n lines of rel, newlines preserved.
func (m *Manager) Tail(rel string, n int) ([]string, error) {
	lines, err := m.readFileLines(rel)
	if err != nil {
		return nil, err
	}
	if n > len(lines) {
		n = len(lines)
	}
	if n < 0 {
		n = 0
	}
	return lines[len(lines)-n:], nil
}

// Lines returns lines start through end of rel, 1-based and inclusive.
func (m *Manager) Lines(rel string, start, end int) ([]string, error) {
	lines, err := m.readFileLines(rel)
	if err != nil {
		return nil, err
	}
	if start < 1 || end < start || end > len(lines) {
		return nil, fmt.Errorf("invalid start/end: file has %d lines", len(lines))
	}
	return lines[start-1 : end], nil
}

func (m *Manager) readFileLines(rel string) ([]string, error) {
	full, err := m.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("file %q does not exist", rel)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	return splitKeepEnds(string(data)), nil
}

func splitKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
		if text == "" {
			break
		}
	}
	return lines
}

func unixSeconds(info fs.FileInfo) float64 {
	return float64(info.ModTime().UnixNano()) / 1e9
}
