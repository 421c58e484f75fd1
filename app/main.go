package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viewlens/viewlens/app/api"
	"github.com/viewlens/viewlens/app/cfg"
	"github.com/viewlens/viewlens/app/config"
	"github.com/viewlens/viewlens/app/database"
	"github.com/viewlens/viewlens/app/fetch"
	"github.com/viewlens/viewlens/app/ingest"
	"github.com/viewlens/viewlens/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting ViewLens server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	platforms, err := config.NewLoader(appCfg.PlatformsFile).Load()
	if err != nil {
		slog.Error("Failed to load platform settings", "path", appCfg.PlatformsFile, "error", err)
		os.Exit(1)
	}

	resultRepo := database.NewResultRepository(db)

	fetchers := buildFetchers(appCfg, platforms)
	processor := ingest.NewProcessor(fetchers, resultRepo, ingest.ProcessorOptions{
		WorkerCount:  appCfg.WorkerCount,
		BatchTimeout: time.Duration(appCfg.BatchTimeout) * time.Second,
		HistoryMode:  appCfg.HistoryMode,
		Credentials: fetch.Credentials{
			YouTubeAPIKey:      appCfg.YouTubeAPIKey,
			InstagramSessionID: appCfg.InstagramSessionID,
		},
	})

	scheduler := tasks.NewScheduler(processor, resultRepo)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(resultRepo, processor)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func buildFetchers(appCfg *cfg.Cfg, platforms *config.PlatformsConfig) map[fetch.Platform]fetch.Fetcher {
	fetchers := make(map[fetch.Platform]fetch.Fetcher)

	if platforms.YouTube.Enabled {
		fetchers[fetch.PlatformYouTube] = fetch.NewYouTubeFetcher(nil,
			platforms.YouTube.BatchSize, platforms.YouTube.GetTimeout())
	}

	scrapers := []struct {
		platform fetch.Platform
		settings config.ScrapeSettings
	}{
		{fetch.PlatformInstagram, platforms.Instagram},
		{fetch.PlatformTikTok, platforms.TikTok},
	}
	for _, s := range scrapers {
		if !s.settings.Enabled {
			continue
		}
		fetchers[s.platform] = fetch.NewScrapeFetcher(s.platform, nil, fetch.ScrapeOptions{
			Spacing:   s.settings.GetRequestSpacing(),
			Timeout:   s.settings.GetTimeout(),
			UserAgent: appCfg.UserAgent,
			Policy: fetch.RetryPolicy{
				MaxAttempts: s.settings.MaxAttempts,
				BaseDelay:   time.Duration(s.settings.BaseDelayMs) * time.Millisecond,
				MaxDelay:    time.Duration(s.settings.MaxDelayMs) * time.Millisecond,
				Jitter:      time.Duration(s.settings.JitterMs) * time.Millisecond,
			},
		})
	}

	return fetchers
}
