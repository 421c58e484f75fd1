package config

import (
	"time"
)

// GetTimeout returns the API call timeout as time.Duration
func (s *YouTubeSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// GetTimeout returns the page fetch timeout as time.Duration
func (s *ScrapeSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// GetRequestSpacing returns the gap enforced between scrape requests
func (s *ScrapeSettings) GetRequestSpacing() time.Duration {
	if s.RequestSpacingMs <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(s.RequestSpacingMs) * time.Millisecond
}
