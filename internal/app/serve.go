package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/petewarden/open-speech-recording/internal/config"
	"github.com/petewarden/open-speech-recording/internal/ledger"
	"github.com/petewarden/open-speech-recording/internal/logging"
	"github.com/petewarden/open-speech-recording/internal/server"
	"github.com/petewarden/open-speech-recording/internal/serverconfig"
	"github.com/petewarden/open-speech-recording/internal/storage"
)

// commandServe runs the collection server until ctx ends.
func (r Runner) commandServe(ctx context.Context, envPath string) int {
	cfg, err := serverconfig.Load(envPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logPath := cfg.LogPath
	if logPath == "" {
		stateDir, err := config.StateDir()
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		logPath = filepath.Join(stateDir, "server.jsonl")
	}
	logRuntime, err := logging.NewWithOptions(logging.Options{Path: logPath, Level: level, Mirror: r.Stderr})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()
	logger := logRuntime.Logger
	if r.Logger != nil {
		logger = r.Logger
	}

	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	index, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = index.Close() }()

	srv, err := server.New(server.Options{
		Secret:        cfg.SessionSecret,
		Store:         store,
		Index:         index,
		Logger:        logger,
		MaxUploadSize: cfg.MaxUploadSize,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	lis, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("serve start",
		"addr", cfg.Addr(),
		"storage", cfg.StorageBackend,
		"ledger", cfg.LedgerPath,
		"log", logRuntime.Path,
	)

	if err := srv.Serve(ctx, lis); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("server failed", "error", err.Error())
		return 1
	}
	logger.Info("serve stop")
	return 0
}

func openStore(ctx context.Context, cfg serverconfig.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case serverconfig.BackendLocal:
		return storage.NewDir(cfg.StorageDir)
	default:
		return storage.NewGCS(ctx, cfg.Bucket, cfg.GCSEndpoint)
	}
}
