package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultYouTubeEndpoint = "https://www.googleapis.com/youtube/v3/videos"

	// YouTubeBatchLimit is the maximum number of ids the videos endpoint
	// accepts in a single call.
	YouTubeBatchLimit = 50
)

// YouTubeFetcher resolves video statistics through the authenticated Data API.
// The endpoint is quota-metered, so identifiers are batched to conserve quota
// and failed calls are not retried.
type YouTubeFetcher struct {
	httpClient *http.Client
	endpoint   string
	batchSize  int
	timeout    time.Duration
}

func NewYouTubeFetcher(httpClient *http.Client, batchSize int, timeout time.Duration) *YouTubeFetcher {
	if batchSize <= 0 || batchSize > YouTubeBatchLimit {
		batchSize = YouTubeBatchLimit
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &YouTubeFetcher{
		httpClient: httpClient,
		endpoint:   defaultYouTubeEndpoint,
		batchSize:  batchSize,
		timeout:    timeout,
	}
}

func (f *YouTubeFetcher) BatchSize() int {
	return f.batchSize
}

func (f *YouTubeFetcher) Policy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, id Identifier, creds Credentials) (*Metrics, error) {
	stats, err := f.FetchBatch(ctx, []Identifier{id}, creds)
	if err != nil {
		return nil, err
	}
	metrics, ok := stats[id.ID]
	if !ok {
		return nil, NewFetchError(ReasonNotFound, fmt.Sprintf("video %s not found", id.ID), false)
	}
	return metrics, nil
}

type youtubeResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
		Snippet struct {
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// FetchBatch resolves up to BatchSize identifiers in one API call. A missing
// credential fails before any network activity. Identifiers absent from the
// response are simply absent from the returned map.
func (f *YouTubeFetcher) FetchBatch(ctx context.Context, ids []Identifier, creds Credentials) (map[string]*Metrics, error) {
	if creds.YouTubeAPIKey == "" {
		return nil, NewFetchError(ReasonAuth, "missing YouTube API key", false)
	}
	if len(ids) == 0 {
		return map[string]*Metrics{}, nil
	}

	videoIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		videoIDs = append(videoIDs, id.ID)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("part", "statistics,snippet")
	params.Set("id", strings.Join(videoIDs, ","))
	params.Set("key", creds.YouTubeAPIKey)

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, f.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewFetchError(ReasonTimeout, "YouTube API request timed out", true)
		}
		return nil, NewFetchError(ReasonUnavailable, err.Error(), true)
	}
	defer resp.Body.Close()

	if err := youtubeStatusError(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewFetchError(ReasonUnavailable, fmt.Sprintf("failed to read response body: %v", err), true)
	}

	var parsed youtubeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, NewFetchError(ReasonBadResponse, fmt.Sprintf("failed to decode response: %v", err), false)
	}

	out := make(map[string]*Metrics, len(parsed.Items))
	for _, item := range parsed.Items {
		metrics := &Metrics{
			Views:    parseCounter(item.Statistics.ViewCount),
			Likes:    parseCounter(item.Statistics.LikeCount),
			Comments: parseCounter(item.Statistics.CommentCount),
			Creator:  item.Snippet.ChannelTitle,
		}
		if item.Snippet.PublishedAt != "" {
			if postedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
				utc := postedAt.UTC()
				metrics.PostedAt = &utc
			}
		}
		out[item.ID] = metrics
	}

	return out, nil
}

func youtubeStatusError(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusForbidden:
		// Quota exhaustion surfaces as 403 on this endpoint.
		return NewFetchError(ReasonRateLimited, "YouTube API quota exceeded or key rejected", false)
	case status == http.StatusTooManyRequests:
		return NewFetchError(ReasonRateLimited, "YouTube API rate limited", true)
	case status == http.StatusNotFound:
		return NewFetchError(ReasonNotFound, "YouTube API endpoint returned 404", false)
	case status == http.StatusUnauthorized:
		return NewFetchError(ReasonAuth, "YouTube API key rejected", false)
	case status >= 500:
		return NewFetchError(ReasonUnavailable, fmt.Sprintf("YouTube API error: %d", status), true)
	default:
		return NewFetchError(ReasonBadResponse, fmt.Sprintf("unexpected YouTube API status: %d", status), false)
	}
}

// The API reports counters as decimal strings; absent counters stay nil.
func parseCounter(s string) *int64 {
	if s == "" {
		return nil
	}
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}
