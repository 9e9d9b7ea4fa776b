// Command reminderd runs the reminder scheduler with its REST API and
// optional Telegram bot.
//
// Usage:
//
//	reminderd [-env path/to/file.env]
//
// SIGINT/SIGTERM stop it; SIGHUP rereads the reminder backend.
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/app"
	"github.com/ykvlv/warrior-reminders/internal/config"
	"github.com/ykvlv/warrior-reminders/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	envFile := flag.String("env", "", "env file to load before the environment (default: optional ./.env)")
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		// No logger yet; exit immediately.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("version", version))

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("app init failed", zap.Error(err))
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatal("app run failed", zap.Error(err))
	}
}
