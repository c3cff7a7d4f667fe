// ====================================
// File: cmd/launchpad/main.go
// ====================================
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/meme-launchpad/internal/app"
	"github.com/rovshanmuradov/meme-launchpad/internal/config"
	"github.com/rovshanmuradov/meme-launchpad/internal/utils/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("configs/config.json")
	if err != nil {
		// No logger yet; fall back to stderr.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     "launchpad.log",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Starting launchpad client")

	runner, err := app.NewRunner(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize launchpad", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Launchpad execution error", zap.Error(err))
	}

	runner.Shutdown()
}
