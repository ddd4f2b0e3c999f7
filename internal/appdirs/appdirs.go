package appdirs

import (
	"os"
	"path/filepath"
)

const appDirName = "devmcp"

// DataDir returns the per-user data directory, overridable with
// DEVMCP_DATA_DIR.
func DataDir() (string, error) {
	if override := os.Getenv("DEVMCP_DATA_DIR"); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

// WorkspacesDir returns the directory holding the named workspaces. A
// relative configured value is anchored under the data directory.
func WorkspacesDir(dataDir, configured string) string {
	if configured == "" {
		configured = "workspaces"
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(dataDir, configured)
}

func LogsDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}
