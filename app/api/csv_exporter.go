package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/viewlens/viewlens/app/database"
)

var exportColumns = []string{
	"id", "platform", "url", "creator", "campaign_id", "posted_at",
	"views", "likes", "comments", "engagement_rate", "notes", "fetched_at",
}

// CSVExporter renders stored results as a CSV document. An empty store yields
// a header-only file.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Run(results []database.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			strconv.FormatInt(result.ID, 10),
			result.Platform,
			result.URL,
			optionalString(result.Creator),
			optionalString(result.CampaignID),
			optionalTime(result.PostedAt),
			optionalInt(result.Views),
			optionalInt(result.Likes),
			optionalInt(result.Comments),
			formatRate(result.EngagementRate),
			optionalString(result.Notes),
			result.FetchedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV output: %w", err)
	}

	return buf.Bytes(), nil
}

// formatRate keeps a decimal point in the output so a whole-number rate
// reads "15.0" rather than "15".
func formatRate(rate float64) string {
	s := strconv.FormatFloat(rate, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
