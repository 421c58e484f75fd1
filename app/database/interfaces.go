package database

import (
	"time"
)

type ResultRepository interface {
	// UpsertResult inserts the result or updates the existing row with the
	// same URL. Creator and posted_at survive an update when the incoming
	// value is absent.
	UpsertResult(result Result) (*Result, error)
	// InsertResult always appends a new historical row.
	InsertResult(result Result) (*Result, error)

	GetResults(limit int, platform string) ([]Result, error)
	GetAllResults() ([]Result, error)
	GetResultByID(id int64) (*Result, error)
	GetResultCount() (int, error)
	GetStaleResults(olderThan time.Time, limit int) ([]Result, error)

	// UpdateNote returns nil without error when no row has the given id.
	UpdateNote(id int64, note string) (*Result, error)
}
