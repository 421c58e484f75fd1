package ingest

import (
	"fmt"
	"time"

	"github.com/viewlens/viewlens/app/database"
)

type Reason string

const (
	ReasonParseError          Reason = "ParseError"
	ReasonUnsupportedPlatform Reason = "UnsupportedPlatform"
	ReasonInvalidURL          Reason = "InvalidURL"
	ReasonFetchAuthError      Reason = "FetchAuthError"
	ReasonFetchTimeout        Reason = "FetchTimeout"
	ReasonFetchRateLimited    Reason = "FetchRateLimited"
	ReasonFetchNotFound       Reason = "FetchNotFound"
	ReasonPersistenceError    Reason = "PersistenceError"
)

// IngestRequest is one validated spreadsheet row, ready for resolution.
type IngestRequest struct {
	RowIndex   int
	Platform   string
	URL        string
	Creator    string
	CampaignID string
	Notes      string
	PostedAt   *time.Time
}

// RowError is a terminal failure of a single row. It never aborts siblings.
type RowError struct {
	RowIndex int
	Reason   Reason
	Detail   string
}

func (e *RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.RowIndex, e.Detail)
}

// BatchSummary is the result of one ingestion call. Items and Errors both
// follow the input row order.
type BatchSummary struct {
	Saved  int               `json:"saved"`
	Items  []database.Result `json:"items"`
	Errors []string          `json:"errors"`
}
