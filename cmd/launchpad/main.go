// ============================
// File: cmd/launchpad/main.go
// ============================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fuselabs/fuse-launchpad/internal/config"
	"github.com/fuselabs/fuse-launchpad/internal/launchpad"
	"github.com/fuselabs/fuse-launchpad/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("starting launchpad settlement core")

	runner, err := launchpad.NewRunner(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize launchpad", zap.Error(err))
	}

	if err := runner.Run(context.Background()); err != nil {
		log.Fatal("launchpad exited with error", zap.Error(err))
	}
}
