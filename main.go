package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/giovaniif/fundraising/cmd/api"
	"github.com/giovaniif/fundraising/infra/config"
	"github.com/giovaniif/fundraising/infra/logging"
	"github.com/giovaniif/fundraising/infra/loki"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logOptions := logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}
	lokiWriter := loki.NewWriter(cfg.LokiUrl, map[string]string{"job": "fundraising"})
	if lokiWriter != nil {
		logOptions.Extra = lokiWriter
	}
	handler, logFile := logging.NewHandler(os.Stdout, logOptions)
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = api.StartServer(ctx, cfg)
	stop()
	if err != nil {
		slog.Error("server exited", slog.Any("err", err))
	}

	if lokiWriter != nil {
		lokiWriter.Close()
	}
	logFile.Close()
	if err != nil {
		os.Exit(1)
	}
}
