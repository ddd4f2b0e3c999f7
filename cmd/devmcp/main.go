package main

import (
	"log"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/a-joia/filesystem-exec-mcp-servers/internal/analysis"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/appdirs"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/backup"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/config"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/editengine"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/envfile"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/envutil"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/logging"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/mcptools"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/runner"
	"github.com/a-joia/filesystem-exec-mcp-servers/internal/workspace"
)

const version = "1.0.0"

func main() {
	envResult := envfile.Load()
	dataDir, err := appdirs.DataDir()
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}

	cfg, err := config.NewStore(config.DefaultPath(dataDir)).Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	debug := cfg.Debug || envutil.Bool(config.EnvDebug)
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = appdirs.LogsDir(dataDir)
	}

	logSetup, logErr := logging.NewFileLogger(logDir, debug)
	logger := logSetup.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("component", "server")
	if logSetup.Enabled {
		logger.Info("server.logging_enabled", "path", logSetup.Path)
	}
	if envResult.Loaded {
		logger.Debug("server.env_loaded", "path", envResult.Path, "keys", envResult.Keys)
	}
	if envResult.Err != nil {
		logger.Warn("server.env_load_failed", "path", envResult.Path, "error", envResult.Err.Error())
	}
	if logErr != nil {
		logger.Warn("server.log_setup_failed", "error", logErr.Error())
	}
	if logSetup.Close != nil {
		defer logSetup.Close()
	}

	ws := workspace.NewManager(appdirs.WorkspacesDir(dataDir, cfg.WorkspacesDir))
	if cfg.DefaultWorkspace != workspace.DefaultName {
		if _, _, err := ws.SetWorkspace(cfg.DefaultWorkspace); err != nil {
			logger.Error("server.workspace_init_failed", "error", err.Error())
			log.Fatalf("workspace init failed: %v", err)
		}
	}
	backups := backup.NewStore(ws)
	deps := &mcptools.Deps{
		WS:       ws,
		Backups:  backups,
		Editor:   editengine.NewEditor(ws, backups),
		Analyzer: analysis.New(ws, cfg.Tools),
		Runner:   runner.New(ws, cfg.Tools.Python, time.Duration(cfg.ExecTimeoutSeconds)*time.Second),
		Logger:   logger,
	}

	s := mcptools.NewServer(version, deps)
	logger.Info("server.starting", "version", version)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("server.stopped", "error", err.Error())
		log.Fatalf("server error: %v", err)
	}
}
