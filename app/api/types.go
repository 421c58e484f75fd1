package api

import (
	"time"

	"github.com/viewlens/viewlens/app/database"
	"github.com/viewlens/viewlens/app/ingest"
)

type Handler struct {
	resultRepo database.ResultRepository
	processor  *ingest.Processor
}

// FetchResponse mirrors the batch summary on the wire
type FetchResponse struct {
	Status string          `json:"status"`
	Saved  int             `json:"saved"`
	Errors []string        `json:"errors"`
	Items  []ResultPayload `json:"items"`
}

type ResultsResponse struct {
	Status string          `json:"status"`
	Total  int             `json:"total"`
	Items  []ResultPayload `json:"items"`
}

type ResultPayload struct {
	ID             int64   `json:"id"`
	Platform       string  `json:"platform"`
	URL            string  `json:"url"`
	Creator        *string `json:"creator"`
	CampaignID     *string `json:"campaign_id"`
	PostedAt       *string `json:"posted_at"`
	Views          *int64  `json:"views"`
	Likes          *int64  `json:"likes"`
	Comments       *int64  `json:"comments"`
	EngagementRate float64 `json:"engagement_rate"`
	Notes          *string `json:"notes"`
	FetchedAt      string  `json:"fetched_at"`
}

func serializeResult(result database.Result) ResultPayload {
	payload := ResultPayload{
		ID:             result.ID,
		Platform:       result.Platform,
		URL:            result.URL,
		Creator:        result.Creator,
		CampaignID:     result.CampaignID,
		Views:          result.Views,
		Likes:          result.Likes,
		Comments:       result.Comments,
		EngagementRate: result.EngagementRate,
		Notes:          result.Notes,
		FetchedAt:      result.FetchedAt.Format(time.RFC3339),
	}
	if result.PostedAt != nil {
		postedAt := result.PostedAt.Format(time.RFC3339)
		payload.PostedAt = &postedAt
	}
	return payload
}

func serializeResults(results []database.Result) []ResultPayload {
	payloads := make([]ResultPayload, 0, len(results))
	for _, result := range results {
		payloads = append(payloads, serializeResult(result))
	}
	return payloads
}
