package editengine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/backup"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/diffutil"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

// Editor applies edits to workspace files with an optional pre-edit backup.
// Every write is atomic: a failed transform or a failed write leaves the
// target file byte-identical to what it was.
type Editor struct {
	ws      *workspace.Manager
	backups *backup.Store
}

func NewEditor(ws *workspace.Manager, backups *backup.Store) *Editor {
	return &Editor{ws: ws, backups: backups}
}

// Result reports one applied or previewed edit.
type Result struct {
	Status          string `json:"status"`
	Filepath        string `json:"filepath"`
	Mode            string `json:"mode"`
	ChangesMade     bool   `json:"changes_made"`
	Preview         string `json:"preview"`
	BackupCreated   bool   `json:"backup_created"`
	BackupFile      string `json:"backup_file,omitempty"`
	BackupTimestamp string `json:"backup_timestamp,omitempty"`
}

// ValidationResult reports parameter and range checks for a prospective
// edit without modifying anything.
type ValidationResult struct {
	Status     string   `json:"status"`
	Filepath   string   `json:"filepath"`
	Mode       string   `json:"mode"`
	Valid      bool     `json:"valid"`
	FileExists bool     `json:"file_exists"`
	LineCount  int      `json:"line_count"`
	Errors     []string `json:"errors"`
}

// Apply runs the edit against path. A backup is taken first when
// createBackup is set and the file already exists; files that do not exist
// yet are edited from empty content and get no backup. Transform failures
// are returned before anything touches the disk.
func (e *Editor) Apply(path string, req Request, createBackup bool) (*Result, error) {
	full, err := e.ws.Resolve(path)
	if err != nil {
		return nil, err
	}
	lines, exists, err := readLinesAt(full)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Status:   "success",
		Filepath: full,
		Mode:     req.ModeOrDefault(),
	}
	if createBackup && exists {
		snap, err := e.backups.Snapshot(path)
		if err != nil {
			return nil, fmt.Errorf("backup before edit: %w", err)
		}
		res.BackupCreated = true
		res.BackupFile = snap.BackupFile
		res.BackupTimestamp = snap.Timestamp
	}

	newLines, err := Transform(lines, req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	content := strings.Join(newLines, "")
	if err := atomicWrite(full, []byte(content)); err != nil {
		return nil, err
	}

	res.ChangesMade = !equalLines(lines, newLines)
	preview, err := diffutil.Unified(strings.Join(lines, ""), content, filepath.Base(full))
	if err != nil {
		return nil, err
	}
	res.Preview = preview
	return res, nil
}

// Preview computes the edit and its diff without writing anything.
func (e *Editor) Preview(path string, req Request) (*Result, error) {
	full, err := e.ws.Resolve(path)
	if err != nil {
		return nil, err
	}
	lines, _, err := readLinesAt(full)
	if err != nil {
		return nil, err
	}
	newLines, err := Transform(lines, req)
	if err != nil {
		return nil, err
	}
	preview, err := diffutil.Unified(strings.Join(lines, ""), strings.Join(newLines, ""), filepath.Base(full))
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:      "preview",
		Filepath:    full,
		Mode:        req.ModeOrDefault(),
		ChangesMade: !equalLines(lines, newLines),
		Preview:     preview,
	}, nil
}

// ValidateFile checks the edit's parameters against the file's current
// shape without computing the transform.
func (e *Editor) ValidateFile(path string, req Request) (*ValidationResult, error) {
	full, err := e.ws.Resolve(path)
	if err != nil {
		return nil, err
	}
	lines, exists, err := readLinesAt(full)
	if err != nil {
		return nil, err
	}
	errs := Validate(len(lines), exists, req)
	if errs == nil {
		errs = []string{}
	}
	return &ValidationResult{
		Status:     "success",
		Filepath:   full,
		Mode:       req.ModeOrDefault(),
		Valid:      len(errs) == 0,
		FileExists: exists,
		LineCount:  len(lines),
		Errors:     errs,
	}, nil
}

// readLinesAt reads the file as newline-terminated lines. A missing file
// is not an error: it reads as empty with exists=false.
func readLinesAt(full string) ([]string, bool, error) {
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return SplitKeepEnds(string(data)), true, nil
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".edit-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
