package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/spacemeshos/coinminer/logging"
	"github.com/spacemeshos/coinminer/miner"
)

// Coinminer binary version.
// It should be passed during the build with '-ldflags "-X main.version="'.
var version = "unknown"

// coinminerMain is the true entry point for coinminer. This function is required since
// defers created in the top-level scope of a main method aren't executed if
// os.Exit() is called.
func coinminerMain() error {
	var err error
	// Start with a default Config with sane settings
	cfg := miner.DefaultConfig()
	// Pre-parse the command line to check for an alternative Config file
	cfg, err = miner.ParseFlags(cfg)
	if err != nil {
		return err
	}
	// Load configuration file overwriting defaults with any specified options
	cfg, err = miner.ReadConfigFile(cfg)
	if err != nil {
		return err
	}

	cfg, err = miner.SetupConfig(cfg)
	if err != nil {
		return err
	}
	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	cfg, err = miner.ParseFlags(cfg)
	if err != nil {
		return err
	}

	// Initialize logging
	logLevel := zap.InfoLevel
	if cfg.DebugLog {
		logLevel = zap.DebugLevel
	}
	logger := logging.NewWithRotation(
		logLevel,
		filepath.Join(cfg.LogDir, "coinminer.log"),
		cfg.JSONLog,
		logging.Rotation{MaxSize: cfg.MaxLogFileSize, MaxBackups: cfg.MaxLogFiles},
	)
	ctx := logging.NewContext(context.Background(), logger)

	defer func() {
		logger.Info("shutdown complete")
		_ = logger.Sync()
	}()

	logger.Info("starting coinminer", zap.String("version", version), zap.Object("config", cfg))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	m, err := miner.New(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("failed to create miner: %w", err)
	}
	defer m.Close()
	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("failure in miner: %w", err)
	}

	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := coinminerMain(); err != nil {
		// If it's the flag utility error don't print it,
		// because it was already printed.
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
