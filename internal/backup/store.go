package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/diffutil"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

// DirName is the hidden per-workspace directory holding backup payloads and
// their JSON sidecars.
const DirName = ".mcp_backups"

// datetimeLayout keeps a fixed-width fractional second so lexicographic
// order on Datetime strings matches chronological order.
const datetimeLayout = "2006-01-02T15:04:05.000000Z07:00"

var (
	ErrFileNotFound    = errors.New("file does not exist")
	ErrNoBackupsDir    = errors.New("no backups directory found")
	ErrNoBackups       = errors.New("no backups found for this file")
	ErrBackupNotFound  = errors.New("backup with requested timestamp not found")
	ErrMetadataMissing = errors.New("backup metadata not found")
)

// Metadata is the JSON sidecar written next to every backup payload. The
// original content is duplicated into the sidecar for redundancy. Sidecar
// and payload are created together and never independently deleted.
type Metadata struct {
	OriginalFile    string `json:"original_file"`
	BackupFile      string `json:"backup_file"`
	Timestamp       string `json:"timestamp"`
	Datetime        string `json:"datetime"`
	OriginalContent string `json:"original_content"`
	Committed       bool   `json:"committed"`
	CommitMessage   string `json:"commit_message,omitempty"`
	CommitDatetime  string `json:"commit_datetime,omitempty"`
}

// Entry is the list view of one backup, enriched from its sidecar.
type Entry struct {
	BackupFile    string `json:"backup_file"`
	Timestamp     string `json:"timestamp"`
	Datetime      string `json:"datetime"`
	Committed     bool   `json:"committed"`
	CommitMessage string `json:"commit_message"`
	OriginalFile  string `json:"original_file"`
}

type SnapshotResult struct {
	OriginalFile string `json:"original_file"`
	BackupFile   string `json:"backup_file"`
	Timestamp    string `json:"timestamp"`
}

type CommitResult struct {
	Path          string `json:"filepath"`
	BackupFile    string `json:"backup_file"`
	Committed     bool   `json:"committed"`
	CommitMessage string `json:"commit_message"`
}

type CompareResult struct {
	Path         string `json:"filepath"`
	BackupFile   string `json:"backup_file"`
	Diff         string `json:"diff"`
	LinesChanged int    `json:"lines_changed"`
	CurrentSize  int    `json:"current_size"`
	BackupSize   int    `json:"backup_size"`
	HasChanges   bool   `json:"has_changes"`
}

// Store persists timestamped snapshots of workspace files. Backups for one
// logical file are totally ordered by their timestamp string; zero-padded
// fields make lexicographic order chronological.
type Store struct {
	ws *workspace.Manager
}

func NewStore(ws *workspace.Manager) *Store {
	return &Store{ws: ws}
}

// Snapshot copies the current content of rel into a fresh backup plus its
// sidecar. The file must exist; an edit of a not-yet-existing file has
// nothing to snapshot.
func (s *Store) Snapshot(rel string) (*SnapshotResult, error) {
	full, err := s.ws.Resolve(rel)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	dir, err := s.backupsDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	now := time.Now()
	timestamp := formatTimestamp(now)
	stem, suffix := splitName(filepath.Base(full))
	backupName := fmt.Sprintf("%s_%s%s", stem, timestamp, suffix)
	backupPath := filepath.Join(dir, backupName)
	if err := atomicWrite(backupPath, content); err != nil {
		return nil, err
	}
	meta := Metadata{
		OriginalFile:    full,
		BackupFile:      backupPath,
		Timestamp:       timestamp,
		Datetime:        now.Format(datetimeLayout),
		OriginalContent: string(content),
	}
	if err := writeJSON(backupPath+".json", meta); err != nil {
		// Keep the payload/sidecar pair invariant: no orphan payloads.
		_ = os.Remove(backupPath)
		return nil, err
	}
	return &SnapshotResult{OriginalFile: full, BackupFile: backupPath, Timestamp: timestamp}, nil
}

// List returns backups for rel, or for the whole workspace when rel is
// empty. Always sorted by datetime descending. An empty result is not an
// error.
func (s *Store) List(rel string) ([]Entry, error) {
	dir, err := s.backupsDir()
	if err != nil {
		return nil, err
	}
	entries := []Entry{}
	if rel != "" {
		full, err := s.ws.Resolve(rel)
		if err != nil {
			return nil, err
		}
		names, err := s.matchingBackups(full)
		if err != nil {
			if errors.Is(err, ErrNoBackupsDir) {
				return entries, nil
			}
			return nil, err
		}
		for _, name := range names {
			entry := Entry{BackupFile: filepath.Join(dir, name), OriginalFile: full}
			var meta Metadata
			if err := readJSON(filepath.Join(dir, name+".json"), &meta); err == nil {
				entry.Timestamp = meta.Timestamp
				entry.Datetime = meta.Datetime
				entry.Committed = meta.Committed
				entry.CommitMessage = meta.CommitMessage
				if meta.OriginalFile != "" {
					entry.OriginalFile = meta.OriginalFile
				}
			}
			entries = append(entries, entry)
		}
	} else {
		sidecars, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return entries, nil
			}
			return nil, err
		}
		for _, sidecar := range sidecars {
			if sidecar.IsDir() || !strings.HasSuffix(sidecar.Name(), ".json") {
				continue
			}
			var meta Metadata
			if err := readJSON(filepath.Join(dir, sidecar.Name()), &meta); err != nil {
				continue
			}
			if _, err := os.Stat(meta.BackupFile); err != nil {
				continue
			}
			entries = append(entries, Entry{
				BackupFile:    meta.BackupFile,
				Timestamp:     meta.Timestamp,
				Datetime:      meta.Datetime,
				Committed:     meta.Committed,
				CommitMessage: meta.CommitMessage,
				OriginalFile:  meta.OriginalFile,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Datetime > entries[j].Datetime
	})
	return entries, nil
}

// Restore copies the selected backup's bytes back over the live file. With
// no timestamp the most recent backup wins; a timestamp substring selects
// the first backup whose filename contains it.
func (s *Store) Restore(rel, timestamp string) (string, error) {
	full, err := s.ws.Resolve(rel)
	if err != nil {
		return "", err
	}
	target, err := s.selectBackup(full, timestamp)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := atomicWrite(full, content); err != nil {
		return "", err
	}
	return target, nil
}

// Commit marks the single most recent backup for rel as committed, stamping
// the message and a commit datetime into its sidecar. A checkpoint tag, not
// a VCS commit.
func (s *Store) Commit(rel, message string) (*CommitResult, error) {
	full, err := s.ws.Resolve(rel)
	if err != nil {
		return nil, err
	}
	names, err := s.matchingBackups(full)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoBackups
	}
	dir, err := s.backupsDir()
	if err != nil {
		return nil, err
	}
	latest := filepath.Join(dir, names[0])
	sidecar := latest + ".json"
	var meta Metadata
	if err := readJSON(sidecar, &meta); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMetadataMissing
		}
		return nil, err
	}
	meta.Committed = true
	meta.CommitMessage = message
	meta.CommitDatetime = time.Now().Format(datetimeLayout)
	if err := writeJSON(sidecar, meta); err != nil {
		return nil, err
	}
	return &CommitResult{
		Path:          full,
		BackupFile:    latest,
		Committed:     true,
		CommitMessage: message,
	}, nil
}

// Compare diffs the current file content against the selected backup,
// backup as "from" and current as "to".
func (s *Store) Compare(rel, timestamp string) (*CompareResult, error) {
	full, err := s.ws.Resolve(rel)
	if err != nil {
		return nil, err
	}
	current, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	target, err := s.selectBackup(full, timestamp)
	if err != nil {
		return nil, err
	}
	backupContent, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(full)
	diff, err := diffutil.UnifiedLabeled(string(backupContent), string(current), "backup/"+name, "current/"+name)
	if err != nil {
		return nil, err
	}
	return &CompareResult{
		Path:         full,
		BackupFile:   target,
		Diff:         diff,
		LinesChanged: diffutil.ChangedLines(string(backupContent), string(current)),
		CurrentSize:  len(current),
		BackupSize:   len(backupContent),
		HasChanges:   string(current) != string(backupContent),
	}, nil
}

func (s *Store) backupsDir() (string, error) {
	root, err := s.ws.Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, DirName), nil
}

// matchingBackups returns payload filenames for full's stem+suffix pattern,
// sorted descending so the most recent comes first.
func (s *Store) matchingBackups(full string) ([]string, error) {
	dir, err := s.backupsDir()
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackupsDir
		}
		return nil, err
	}
	present := make(map[string]bool, len(dirEntries))
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			present[entry.Name()] = true
		}
	}
	stem, suffix := splitName(filepath.Base(full))
	var names []string
	for name := range present {
		// A name is a payload exactly when its sidecar sits next to it.
		// Pairing by sidecar rather than extension keeps backups of .json
		// files visible and never mistakes a sidecar for a payload.
		if !present[name+".json"] {
			continue
		}
		if !strings.HasPrefix(name, stem+"_") || filepath.Ext(name) != suffix {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Store) selectBackup(full, timestamp string) (string, error) {
	names, err := s.matchingBackups(full)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoBackups
	}
	dir, err := s.backupsDir()
	if err != nil {
		return "", err
	}
	if timestamp == "" {
		return filepath.Join(dir, names[0]), nil
	}
	for _, name := range names {
		if strings.Contains(name, timestamp) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBackupNotFound, timestamp)
}

// formatTimestamp renders a microsecond-resolution key whose fixed-width
// zero-padded fields sort lexicographically in chronological order.
func formatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s_%06d", t.Format("20060102_150405"), t.Nanosecond()/1000)
}

func splitName(name string) (string, string) {
	suffix := filepath.Ext(name)
	return strings.TrimSuffix(name, suffix), suffix
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func writeJSON(path string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
