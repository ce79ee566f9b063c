// Command stegserver runs the HTTP extraction service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	stegextractor "github.com/Skryldev/steg-extractor"
	"github.com/Skryldev/steg-extractor/adapters/storage"
	"github.com/Skryldev/steg-extractor/config"
	"github.com/Skryldev/steg-extractor/hooks"
	"github.com/Skryldev/steg-extractor/server"
)

func main() {
	cfg := stegextractor.DefaultConfig()

	pflag.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "HTTP listen address")
	pflag.StringVar(&cfg.Local.RootDir, "store-dir", cfg.Local.RootDir, "directory of the extracted-file store")
	pflag.DurationVar(&cfg.Retention, "retention", cfg.Retention, "age after which stored files expire")
	pflag.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often expired files are swept")
	pflag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "deadline for fetching a carrier image")
	pflag.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "worker pool size (0 = NumCPU)")
	pflag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	pflag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	logger := hooks.NewSlogLogger(log)

	if err := config.Validate(cfg); err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	st, err := storage.NewLocal(cfg.Local.RootDir, os.FileMode(cfg.Local.Permissions))
	if err != nil {
		log.Error("storage init failed", "error", err.Error())
		os.Exit(1)
	}

	ext := stegextractor.New(cfg)
	ext.SetLogger(logger)
	ext.UseStorage(st)
	ext.AddHook(hooks.NewLoggingHook(logger))

	metrics := hooks.NewInMemoryMetrics()
	ext.SetMetrics(metrics)
	ext.AddHook(hooks.NewMetricsHook(metrics))

	ext.Start()
	defer ext.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(ext, logger, cfg.Retention).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "store", cfg.Local.RootDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown incomplete", "error", err.Error())
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
