package fetch

import (
	"context"
	"time"
)

type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// ParsePlatform maps a raw platform label to a known platform.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformYouTube:
		return PlatformYouTube, true
	case PlatformInstagram:
		return PlatformInstagram, true
	case PlatformTikTok:
		return PlatformTikTok, true
	}
	return "", false
}

// Identifier is the platform-native id extracted from a video URL.
type Identifier struct {
	Platform Platform
	ID       string
	URL      string
}

// Metrics holds raw counters as reported by the origin platform.
// Counters the platform did not report stay nil and are persisted as NULL.
type Metrics struct {
	Views    *int64
	Likes    *int64
	Comments *int64
	Creator  string
	PostedAt *time.Time
}

// Credentials are supplied per ingestion call and fall back to the
// process-wide configuration when empty.
type Credentials struct {
	YouTubeAPIKey      string
	InstagramSessionID string
}

type Fetcher interface {
	Fetch(ctx context.Context, id Identifier, creds Credentials) (*Metrics, error)
	Policy() RetryPolicy
}

// BatchFetcher is implemented by quota-metered fetchers that can resolve
// multiple identifiers in a single upstream call.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, ids []Identifier, creds Credentials) (map[string]*Metrics, error)
	BatchSize() int
}
