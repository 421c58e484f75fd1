package ingest

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/viewlens/viewlens/app/sheet"
)

var postedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer turns one decoded spreadsheet row into a validated request.
// All failures are returned values; nothing escapes this boundary.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Run(row sheet.Row) (*IngestRequest, *RowError) {
	platform := strings.ToLower(row.Get("platform"))
	if platform == "" {
		return nil, &RowError{
			RowIndex: row.Index,
			Reason:   ReasonParseError,
			Detail:   "missing or empty platform column",
		}
	}

	rawURL := row.Get("url")
	if rawURL == "" {
		return nil, &RowError{
			RowIndex: row.Index,
			Reason:   ReasonParseError,
			Detail:   "missing or empty url column",
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, &RowError{
			RowIndex: row.Index,
			Reason:   ReasonParseError,
			Detail:   fmt.Sprintf("malformed url %q", rawURL),
		}
	}

	postedAt, err := parsePostedAt(row.Get("posted_at"))
	if err != nil {
		return nil, &RowError{
			RowIndex: row.Index,
			Reason:   ReasonParseError,
			Detail:   err.Error(),
		}
	}

	return &IngestRequest{
		RowIndex:   row.Index,
		Platform:   platform,
		URL:        rawURL,
		Creator:    row.Get("creator"),
		CampaignID: row.Get("campaign_id"),
		Notes:      row.Get("notes"),
		PostedAt:   postedAt,
	}, nil
}

// parsePostedAt reads the optional posted_at column. The value is kept as a
// fallback for platforms whose fetch does not report a publish date.
func parsePostedAt(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range postedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid posted_at value %q", value)
}
