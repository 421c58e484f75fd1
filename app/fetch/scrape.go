package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const defaultBrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// ScrapeFetcher resolves metrics for platforms without a usable metrics API
// by fetching the public video page and reading the embedded structured data.
// These endpoints have no formal quota, so requests are spaced client-side
// and transient failures are retried under the attached policy.
type ScrapeFetcher struct {
	platform   Platform
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     RetryPolicy
	userAgent  string
	timeout    time.Duration
}

type ScrapeOptions struct {
	Spacing   time.Duration
	Policy    RetryPolicy
	UserAgent string
	Timeout   time.Duration
}

func NewScrapeFetcher(platform Platform, httpClient *http.Client, opts ScrapeOptions) *ScrapeFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Spacing <= 0 {
		opts.Spacing = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultBrowserUserAgent
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = DefaultRetryPolicy()
	}

	return &ScrapeFetcher{
		platform:   platform,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(opts.Spacing), 1),
		policy:     opts.Policy,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
	}
}

func (f *ScrapeFetcher) Policy() RetryPolicy {
	return f.policy
}

func (f *ScrapeFetcher) Fetch(ctx context.Context, id Identifier, creds Credentials) (*Metrics, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, id.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if f.platform == PlatformInstagram && creds.InstagramSessionID != "" {
		req.Header.Set("Cookie", "sessionid="+creds.InstagramSessionID+";")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewFetchError(ReasonTimeout, fmt.Sprintf("%s request timed out", f.platform), true)
		}
		return nil, NewFetchError(ReasonUnavailable, err.Error(), true)
	}
	defer resp.Body.Close()

	if err := scrapeStatusError(f.platform, resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewFetchError(ReasonUnavailable, fmt.Sprintf("failed to read response body: %v", err), true)
	}

	return parseVideoPage(body)
}

func scrapeStatusError(platform Platform, status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return NewFetchError(ReasonNotFound, fmt.Sprintf("%s returned %d", platform, status), false)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewFetchError(ReasonAuth, fmt.Sprintf("%s rejected the request (%d)", platform, status), false)
	case status == http.StatusTooManyRequests:
		return NewFetchError(ReasonRateLimited, fmt.Sprintf("%s rate limited the request", platform), true)
	case status >= 500:
		return NewFetchError(ReasonUnavailable, fmt.Sprintf("%s upstream error: %d", platform, status), true)
	default:
		return NewFetchError(ReasonBadResponse, fmt.Sprintf("unexpected %s status: %d", platform, status), false)
	}
}

// interactionType appears either as a plain schema.org URL string or as a
// nested object with an @type field, depending on the platform.
type ldInteractionType struct {
	Name string
}

func (t *ldInteractionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Name = s
		return nil
	}
	var obj struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		t.Name = obj.Type
		return nil
	}
	return nil
}

type ldVideo struct {
	UploadDate           string `json:"uploadDate"`
	DatePublished        string `json:"datePublished"`
	InteractionStatistic []struct {
		InteractionType      ldInteractionType `json:"interactionType"`
		UserInteractionCount json.Number       `json:"userInteractionCount"`
	} `json:"interactionStatistic"`
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
	Creator struct {
		Name string `json:"name"`
	} `json:"creator"`
}

var ogCountsRe = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+likes?,\s*([\d.,]+[KMB]?)\s+comments?`)

func parseVideoPage(body []byte) (*Metrics, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, NewFetchError(ReasonBadResponse, fmt.Sprintf("failed to parse page: %v", err), false)
	}

	metrics := &Metrics{}
	found := false

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if applyStructuredData(metrics, []byte(s.Text())) {
			found = true
			return false
		}
		return true
	})

	if !found {
		found = applyOpenGraph(metrics, doc)
	}

	if metrics.Creator == "" {
		metrics.Creator = creatorFromOpenGraph(doc)
	}

	if !found {
		return nil, NewFetchError(ReasonBadResponse, "page contains no recognizable metrics", false)
	}
	return metrics, nil
}

// applyStructuredData reads schema.org interactionStatistic counters. Returns
// true when at least one counter was recognized.
func applyStructuredData(metrics *Metrics, data []byte) bool {
	videos := []ldVideo{}
	var single ldVideo
	if err := json.Unmarshal(data, &single); err == nil {
		videos = append(videos, single)
	} else if err := json.Unmarshal(data, &videos); err != nil {
		return false
	}

	found := false
	for _, video := range videos {
		for _, stat := range video.InteractionStatistic {
			count, err := stat.UserInteractionCount.Int64()
			if err != nil || count < 0 {
				continue
			}
			value := count
			switch {
			case strings.Contains(stat.InteractionType.Name, "WatchAction"):
				metrics.Views = &value
				found = true
			case strings.Contains(stat.InteractionType.Name, "LikeAction"):
				metrics.Likes = &value
				found = true
			case strings.Contains(stat.InteractionType.Name, "CommentAction"):
				metrics.Comments = &value
				found = true
			}
		}

		if metrics.PostedAt == nil {
			if postedAt := parsePostedAt(video.UploadDate, video.DatePublished); postedAt != nil {
				metrics.PostedAt = postedAt
			}
		}
		if metrics.Creator == "" {
			if video.Author.Name != "" {
				metrics.Creator = video.Author.Name
			} else if video.Creator.Name != "" {
				metrics.Creator = video.Creator.Name
			}
		}
	}
	return found
}

// applyOpenGraph falls back to the "X likes, Y comments" summary that both
// platforms put in og:description.
func applyOpenGraph(metrics *Metrics, doc *goquery.Document) bool {
	description, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	if description == "" {
		return false
	}

	match := ogCountsRe.FindStringSubmatch(description)
	if match == nil {
		return false
	}

	if likes, ok := parseApproxCount(match[1]); ok {
		metrics.Likes = &likes
	}
	if comments, ok := parseApproxCount(match[2]); ok {
		metrics.Comments = &comments
	}
	return metrics.Likes != nil || metrics.Comments != nil
}

func creatorFromOpenGraph(doc *goquery.Document) string {
	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if title == "" {
		return ""
	}
	// Instagram titles look like "Creator on Instagram: ...".
	if idx := strings.Index(title, " on "); idx > 0 {
		return strings.TrimSpace(title[:idx])
	}
	return strings.TrimSpace(title)
}

func parsePostedAt(candidates ...string) *time.Time {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				utc := parsed.UTC()
				return &utc
			}
		}
	}
	return nil
}

// parseApproxCount handles "1,234", "12.5K" and similar shorthand counts.
func parseApproxCount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	multiplier := float64(1)
	switch strings.ToUpper(s[len(s)-1:]) {
	case "K":
		multiplier = 1_000
		s = s[:len(s)-1]
	case "M":
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case "B":
		multiplier = 1_000_000_000
		s = s[:len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return int64(value * multiplier), true
}
