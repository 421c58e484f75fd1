package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of platform settings
type Loader struct {
	path string
}

// NewLoader creates a new platform settings loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the platform settings file. A missing file yields the defaults
// with every platform enabled.
func (l *Loader) Load() (*PlatformsConfig, error) {
	config := defaultConfig()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(config)

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	return config, nil
}

func defaultConfig() *PlatformsConfig {
	config := &PlatformsConfig{
		YouTube:   YouTubeSettings{Enabled: true},
		Instagram: ScrapeSettings{Enabled: true},
		TikTok:    ScrapeSettings{Enabled: true},
	}
	setDefaults(config)
	return config
}

// setDefaults applies default values to zeroed settings
func setDefaults(config *PlatformsConfig) {
	if config.YouTube.BatchSize == 0 {
		config.YouTube.BatchSize = 50
	}
	if config.YouTube.Timeout == 0 {
		config.YouTube.Timeout = 15 // seconds
	}

	for _, scrape := range []*ScrapeSettings{&config.Instagram, &config.TikTok} {
		if scrape.RequestSpacingMs == 0 {
			scrape.RequestSpacingMs = 1500
		}
		if scrape.Timeout == 0 {
			scrape.Timeout = 10 // seconds
		}
		if scrape.MaxAttempts == 0 {
			scrape.MaxAttempts = 3
		}
		if scrape.BaseDelayMs == 0 {
			scrape.BaseDelayMs = 500
		}
		if scrape.MaxDelayMs == 0 {
			scrape.MaxDelayMs = 8000
		}
		if scrape.JitterMs == 0 {
			scrape.JitterMs = 250
		}
	}
}

// validate validates the platform settings
func validate(config *PlatformsConfig) error {
	if config.YouTube.BatchSize < 1 || config.YouTube.BatchSize > 50 {
		return fmt.Errorf("youtube batch size must be between 1 and 50")
	}
	if config.YouTube.Timeout < 0 {
		return fmt.Errorf("youtube timeout must be non-negative")
	}

	for _, platform := range []struct {
		name     string
		settings ScrapeSettings
	}{
		{"instagram", config.Instagram},
		{"tiktok", config.TikTok},
	} {
		if platform.settings.RequestSpacingMs < 0 {
			return fmt.Errorf("%s request spacing must be non-negative", platform.name)
		}
		if platform.settings.Timeout < 0 {
			return fmt.Errorf("%s timeout must be non-negative", platform.name)
		}
		if platform.settings.MaxAttempts < 1 {
			return fmt.Errorf("%s max attempts must be at least 1", platform.name)
		}
		if platform.settings.MaxDelayMs < platform.settings.BaseDelayMs {
			return fmt.Errorf("%s max delay must not be below base delay", platform.name)
		}
	}

	return nil
}
