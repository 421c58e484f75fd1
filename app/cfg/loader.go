package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./viewlens.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	PlatformsFile string `long:"platforms-file" env:"PLATFORMS_FILE" default:"./platforms.yml" description:"Path to the platform settings file"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of concurrent fetch workers per batch"`
	BatchTimeout  int    `long:"batch-timeout" env:"BATCH_TIMEOUT" default:"120" description:"Deadline for a single ingestion batch in seconds"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	HistoryMode   bool   `long:"history-mode" env:"HISTORY_MODE" description:"Append a new row per fetch instead of updating by URL"`

	// Fetch credentials
	YouTubeAPIKey      string `long:"youtube-api-key" env:"YOUTUBE_API_KEY" description:"YouTube Data API key used when a request supplies none"`
	InstagramSessionID string `long:"instagram-sessionid" env:"INSTAGRAM_SESSIONID" description:"Instagram session cookie used when a request supplies none"`

	// Background refresh
	RefreshInterval   int `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"0" description:"Re-fetch results older than this many seconds (0 disables)"`
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for scrape requests (defaults to a browser UA)"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		PlatformsFile:      raw.PlatformsFile,
		WorkerCount:        raw.WorkerCount,
		BatchTimeout:       raw.BatchTimeout,
		APIAccessKey:       raw.APIAccessKey,
		HistoryMode:        raw.HistoryMode,
		YouTubeAPIKey:      raw.YouTubeAPIKey,
		InstagramSessionID: raw.InstagramSessionID,
		RefreshInterval:    raw.RefreshInterval,
		SchedulerInterval:  raw.SchedulerInterval,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
