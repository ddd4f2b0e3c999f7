package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

func newStore(t *testing.T) (*Store, *workspace.Manager) {
	t.Helper()
	ws := workspace.NewManager(t.TempDir())
	if _, _, err := ws.SetWorkspace("w"); err != nil {
		t.Fatalf("set workspace: %v", err)
	}
	return NewStore(ws), ws
}

func writeFile(t *testing.T, ws *workspace.Manager, rel, content string) string {
	t.Helper()
	full, err := ws.Resolve(rel)
	if err != nil {
		t.Fatalf("resolve %s: %v", rel, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return full
}

func TestSnapshotWritesPayloadAndSidecar(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "foo.txt", "hello\n")
	result, err := store.Snapshot("foo.txt")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	payload, err := os.ReadFile(result.BackupFile)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(payload) != "hello\n" {
		t.Fatalf("backup content mismatch: %q", payload)
	}
	var meta Metadata
	if err := readJSON(result.BackupFile+".json", &meta); err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if meta.OriginalContent != "hello\n" || meta.Committed {
		t.Fatalf("unexpected sidecar: %+v", meta)
	}
	if meta.Timestamp != result.Timestamp {
		t.Fatalf("timestamp mismatch: %q vs %q", meta.Timestamp, result.Timestamp)
	}
	base := filepath.Base(result.BackupFile)
	if !strings.HasPrefix(base, "foo_") || !strings.HasSuffix(base, ".txt") {
		t.Fatalf("backup name not derived from stem+suffix: %q", base)
	}
}

func TestSnapshotMissingFile(t *testing.T) {
	store, _ := newStore(t)
	if _, err := store.Snapshot("missing.txt"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestSnapshotEscapePropagatesViolation(t *testing.T) {
	store, _ := newStore(t)
	if _, err := store.Snapshot("../outside.txt"); !errors.Is(err, workspace.ErrAccessViolation) {
		t.Fatalf("expected ErrAccessViolation, got %v", err)
	}
}

func TestListOrderingDescending(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "foo.txt", "v1\n")
	var timestamps []string
	for i := 0; i < 3; i++ {
		result, err := store.Snapshot("foo.txt")
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		timestamps = append(timestamps, result.Timestamp)
		time.Sleep(2 * time.Millisecond)
	}
	entries, err := store.List("foo.txt")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(entries))
	}
	if entries[0].Timestamp != timestamps[2] {
		t.Fatalf("expected most recent first: got %q want %q", entries[0].Timestamp, timestamps[2])
	}
	if entries[2].Timestamp != timestamps[0] {
		t.Fatalf("expected oldest last: got %q want %q", entries[2].Timestamp, timestamps[0])
	}
}

func TestListEmptyWorkspace(t *testing.T) {
	store, _ := newStore(t)
	entries, err := store.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty list, got %d", len(entries))
	}
}

func TestListAllScansSidecars(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "a.txt", "a\n")
	writeFile(t, ws, "b.txt", "b\n")
	if _, err := store.Snapshot("a.txt"); err != nil {
		t.Fatalf("snapshot a: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := store.Snapshot("b.txt"); err != nil {
		t.Fatalf("snapshot b: %v", err)
	}
	entries, err := store.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(entries))
	}
	if filepath.Base(entries[0].OriginalFile) != "b.txt" {
		t.Fatalf("expected b.txt newest, got %q", entries[0].OriginalFile)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	store, ws := newStore(t)
	full := writeFile(t, ws, "foo.txt", "hello")
	first, err := store.Snapshot("foo.txt")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	writeFile(t, ws, "foo.txt", "world")
	if _, err := store.Snapshot("foo.txt"); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	restoredFrom, err := store.Restore("foo.txt", first.Timestamp)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restoredFrom != first.BackupFile {
		t.Fatalf("restored from %q, want %q", restoredFrom, first.BackupFile)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "hello" {
		t.Fatalf("round trip failed: %q", content)
	}
}

func TestRestoreDefaultsToLatest(t *testing.T) {
	store, ws := newStore(t)
	full := writeFile(t, ws, "foo.txt", "v1")
	if _, err := store.Snapshot("foo.txt"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	writeFile(t, ws, "foo.txt", "v2")
	if _, err := store.Snapshot("foo.txt"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	writeFile(t, ws, "foo.txt", "v3")
	if _, err := store.Restore("foo.txt", ""); err != nil {
		t.Fatalf("restore: %v", err)
	}
	content, _ := os.ReadFile(full)
	if string(content) != "v2" {
		t.Fatalf("expected latest backup v2, got %q", content)
	}
}

func TestRestoreErrors(t *testing.T) {
	store, ws := newStore(t)
	if _, err := store.Restore("foo.txt", ""); !errors.Is(err, ErrNoBackupsDir) {
		t.Fatalf("expected ErrNoBackupsDir, got %v", err)
	}
	writeFile(t, ws, "foo.txt", "x")
	if _, err := store.Snapshot("foo.txt"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := store.Restore("other.txt", ""); !errors.Is(err, ErrNoBackups) {
		t.Fatalf("expected ErrNoBackups, got %v", err)
	}
	if _, err := store.Restore("foo.txt", "19990101"); !errors.Is(err, ErrBackupNotFound) {
		t.Fatalf("expected ErrBackupNotFound, got %v", err)
	}
}

func TestCommitMarksNewestOnly(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "foo.txt", "v1")
	older, err := store.Snapshot("foo.txt")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	writeFile(t, ws, "foo.txt", "v2")
	newer, err := store.Snapshot("foo.txt")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	result, err := store.Commit("foo.txt", "checkpoint before refactor")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.BackupFile != newer.BackupFile {
		t.Fatalf("commit targeted %q, want newest %q", result.BackupFile, newer.BackupFile)
	}
	var meta Metadata
	if err := readJSON(newer.BackupFile+".json", &meta); err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if !meta.Committed || meta.CommitMessage != "checkpoint before refactor" || meta.CommitDatetime == "" {
		t.Fatalf("newest sidecar not stamped: %+v", meta)
	}
	if err := readJSON(older.BackupFile+".json", &meta); err != nil {
		t.Fatalf("read older sidecar: %v", err)
	}
	if meta.Committed {
		t.Fatalf("older backup must stay uncommitted")
	}
}

func TestCommitWithoutBackups(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "foo.txt", "x")
	if _, err := store.Commit("foo.txt", "m"); !errors.Is(err, ErrNoBackupsDir) {
		t.Fatalf("expected ErrNoBackupsDir, got %v", err)
	}
}

func TestCompareAgainstBackup(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "foo.txt", "hello\n")
	snap, err := store.Snapshot("foo.txt")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	writeFile(t, ws, "foo.txt", "world\n")
	result, err := store.Compare("foo.txt", "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !result.HasChanges {
		t.Fatalf("expected changes")
	}
	if result.BackupFile != snap.BackupFile {
		t.Fatalf("compared against %q, want %q", result.BackupFile, snap.BackupFile)
	}
	if !strings.Contains(result.Diff, "-hello") || !strings.Contains(result.Diff, "+world") {
		t.Fatalf("unexpected diff:\n%s", result.Diff)
	}
	if result.LinesChanged != 2 {
		t.Fatalf("expected 2 changed lines, got %d", result.LinesChanged)
	}
	if result.CurrentSize != 6 || result.BackupSize != 6 {
		t.Fatalf("unexpected sizes: %+v", result)
	}
}

func TestCompareMissingCurrentFile(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "foo.txt", "x")
	if _, err := store.Snapshot("foo.txt"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	full, _ := ws.Resolve("foo.txt")
	if err := os.Remove(full); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Compare("foo.txt", ""); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestBackupsOfJSONFiles(t *testing.T) {
	store, ws := newStore(t)
	full := writeFile(t, ws, "config.json", `{"v": 1}`)
	snap, err := store.Snapshot("config.json")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	entries, err := store.List("config.json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].BackupFile != snap.BackupFile {
		t.Fatalf("payload not listed: %+v", entries)
	}
	writeFile(t, ws, "config.json", `{"v": 2}`)
	restoredFrom, err := store.Restore("config.json", "")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restoredFrom != snap.BackupFile {
		t.Fatalf("restored from %q, want payload %q", restoredFrom, snap.BackupFile)
	}
	content, _ := os.ReadFile(full)
	if string(content) != `{"v": 1}` {
		t.Fatalf("restore picked the sidecar, not the payload: %q", content)
	}
}

func TestBackupNameCollisionAcrossSuffixes(t *testing.T) {
	store, ws := newStore(t)
	writeFile(t, ws, "foo.txt", "text\n")
	writeFile(t, ws, "foo.md", "md\n")
	if _, err := store.Snapshot("foo.txt"); err != nil {
		t.Fatalf("snapshot txt: %v", err)
	}
	if _, err := store.Snapshot("foo.md"); err != nil {
		t.Fatalf("snapshot md: %v", err)
	}
	entries, err := store.List("foo.txt")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("suffix filter leaked: got %d entries", len(entries))
	}
}
