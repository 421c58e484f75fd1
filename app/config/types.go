package config

// PlatformsConfig represents the platform settings file
type PlatformsConfig struct {
	YouTube   YouTubeSettings `yaml:"youtube"`
	Instagram ScrapeSettings  `yaml:"instagram"`
	TikTok    ScrapeSettings  `yaml:"tiktok"`
}

// YouTubeSettings contains settings for the YouTube Data API fetcher
type YouTubeSettings struct {
	Enabled   bool `yaml:"enabled"`
	BatchSize int  `yaml:"batch_size"`
	Timeout   int  `yaml:"timeout"` // seconds
}

// ScrapeSettings contains settings for a scrape based fetcher
type ScrapeSettings struct {
	Enabled          bool `yaml:"enabled"`
	RequestSpacingMs int  `yaml:"request_spacing_ms"`
	Timeout          int  `yaml:"timeout"` // seconds
	MaxAttempts      int  `yaml:"max_attempts"`
	BaseDelayMs      int  `yaml:"base_delay_ms"`
	MaxDelayMs       int  `yaml:"max_delay_ms"`
	JitterMs         int  `yaml:"jitter_ms"`
}
