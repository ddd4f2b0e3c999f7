// Package config loads the server's TOML configuration. A missing file is
// not an error: every field has a usable default so the server can start
// with no configuration at all.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "DEVMCP_CONFIG"
	// EnvDebug forces debug logging regardless of the config file.
	EnvDebug = "DEVMCP_DEBUG"

	defaultExecTimeoutSeconds = 30
)

// Tools holds the command lines for the external programs the analysis and
// execution tools shell out to. Each value is a full command prefix; the
// target file is appended as the final argument.
type Tools struct {
	Python   string `toml:"python"`
	Format   string `toml:"format"`
	Lint     string `toml:"lint"`
	Mutation string `toml:"mutation"`
	Unused   string `toml:"unused"`
}

type Config struct {
	// WorkspacesDir is the directory that holds all named workspaces.
	WorkspacesDir string `toml:"workspaces_dir"`
	// DefaultWorkspace is the workspace selected at startup.
	DefaultWorkspace string `toml:"default_workspace"`
	// ExecTimeoutSeconds bounds each subprocess run.
	ExecTimeoutSeconds int    `toml:"exec_timeout_seconds"`
	Debug              bool   `toml:"debug"`
	LogDir             string `toml:"log_dir"`
	Tools              Tools  `toml:"tools"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the config file location: $DEVMCP_CONFIG when set,
// otherwise devmcp.toml beside the data directory.
func DefaultPath(dataDir string) string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return filepath.Join(dataDir, "devmcp.toml")
}

func (s *Store) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := &Config{}
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			backfill(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if _, err := toml.DecodeFile(s.path, cfg); err != nil {
		return nil, err
	}
	backfill(cfg)
	return cfg, nil
}

func backfill(cfg *Config) {
	if cfg.WorkspacesDir == "" {
		cfg.WorkspacesDir = "workspaces"
	}
	if cfg.DefaultWorkspace == "" {
		cfg.DefaultWorkspace = "default"
	}
	if cfg.ExecTimeoutSeconds <= 0 {
		cfg.ExecTimeoutSeconds = defaultExecTimeoutSeconds
	}
	if cfg.Tools.Python == "" {
		cfg.Tools.Python = "python3"
	}
	if cfg.Tools.Format == "" {
		cfg.Tools.Format = "black"
	}
	if cfg.Tools.Lint == "" {
		cfg.Tools.Lint = "flake8"
	}
	if cfg.Tools.Mutation == "" {
		cfg.Tools.Mutation = "mutmut run --paths-to-mutate"
	}
	if cfg.Tools.Unused == "" {
		cfg.Tools.Unused = "vulture"
	}
	if debug := strings.TrimSpace(os.Getenv(EnvDebug)); debug == "1" || strings.EqualFold(debug, "true") {
		cfg.Debug = true
	}
}
