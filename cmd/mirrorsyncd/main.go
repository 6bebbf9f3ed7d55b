// Command mirrorsyncd runs the local mirror daemon: a pebble-backed cache of
// a remote social backend, exposed to the page layer over a localhost HTTP
// facade, kept fresh by a cron-driven background sync.
package main

import (
	"context"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"mirrorsync/internal/app"
	"mirrorsync/pkg/config"
	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/shutdown"
)

// set via -ldflags at build time
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	addrFlag, dataFlag, cfgFlag, set := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(cfgFlag, set["config"])

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Init()
		logger.Error("config_load_failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	// Explicit flags win over file and env values.
	if set["addr"] {
		if host, port, err := net.SplitHostPort(addrFlag); err == nil {
			cfg.Server.Address = host
			if p, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = p
			}
		}
	}
	if set["data"] {
		cfg.Storage.DataPath = dataFlag
	}

	logger.InitWithLevel(cfg.Logging.Level)
	logger.Info("starting", "version", version, "commit", commit, "built", buildDate)

	a, err := app.New(cfg, version)
	if err != nil {
		logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("run_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
