package database

import (
	"time"
)

// Result is one enriched video reference as persisted. Counters the origin
// platform did not report are nil, never zero.
type Result struct {
	ID             int64
	Platform       string
	URL            string
	Creator        *string
	CampaignID     *string
	PostedAt       *time.Time
	Views          *int64
	Likes          *int64
	Comments       *int64
	EngagementRate float64
	Notes          *string
	FetchedAt      time.Time
}
