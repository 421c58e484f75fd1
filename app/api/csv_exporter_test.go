package api

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/viewlens/viewlens/app/database"
)

func TestCSVExporterRun(t *testing.T) {
	views, likes, comments := int64(100), int64(10), int64(5)
	creator := "alice"
	result := database.Result{
		ID:             1,
		Platform:       "youtube",
		URL:            "https://youtu.be/abc123",
		Creator:        &creator,
		Views:          &views,
		Likes:          &likes,
		Comments:       &comments,
		EngagementRate: 15.0,
		FetchedAt:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := NewCSVExporter().Run([]database.Result{result})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("Exported CSV does not parse: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected header plus one record, got %d rows", len(records))
	}
	if records[0][0] != "id" || records[0][9] != "engagement_rate" {
		t.Errorf("Unexpected header: %v", records[0])
	}

	record := records[1]
	if record[1] != "youtube" || record[2] != "https://youtu.be/abc123" {
		t.Errorf("Unexpected record: %v", record)
	}
	if record[9] != "15.0" {
		t.Errorf("Expected engagement_rate cell to read 15.0, got %q", record[9])
	}
	if record[4] != "" || record[5] != "" {
		t.Errorf("Expected absent optional fields to read empty, got campaign=%q posted=%q", record[4], record[5])
	}
}

func TestCSVExporterEmptyStore(t *testing.T) {
	data, err := NewCSVExporter().Run(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected header-only file, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,platform,url") {
		t.Errorf("Unexpected header line: %q", lines[0])
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{15.0, "15.0"},
		{0, "0.0"},
		{33.33, "33.33"},
		{0.5, "0.5"},
	}

	for _, tt := range tests {
		if got := formatRate(tt.in); got != tt.want {
			t.Errorf("formatRate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
