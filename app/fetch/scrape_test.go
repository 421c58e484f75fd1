package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const instagramPage = `<html><head>
<script type="application/ld+json">
{"@type":"VideoObject","uploadDate":"2024-03-10T08:00:00Z",
 "author":{"name":"alice"},
 "interactionStatistic":[
   {"interactionType":{"@type":"WatchAction"},"userInteractionCount":1000},
   {"interactionType":{"@type":"LikeAction"},"userInteractionCount":150},
   {"interactionType":{"@type":"CommentAction"},"userInteractionCount":25}
 ]}
</script>
</head><body></body></html>`

const openGraphPage = `<html><head>
<meta property="og:title" content="bob on Instagram: new clip" />
<meta property="og:description" content="12.5K likes, 340 comments - watch now" />
</head><body></body></html>`

func newScrapeTestFetcher(platform Platform, server *httptest.Server, maxAttempts int) *ScrapeFetcher {
	return NewScrapeFetcher(platform, server.Client(), ScrapeOptions{
		Spacing: time.Millisecond,
		Timeout: time.Second,
		Policy:  RetryPolicy{MaxAttempts: maxAttempts},
	})
}

func TestScrapeFetchStructuredData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, instagramPage)
	}))
	defer server.Close()

	fetcher := newScrapeTestFetcher(PlatformInstagram, server, 1)

	metrics, err := fetcher.Fetch(context.Background(), Identifier{Platform: PlatformInstagram, ID: "X", URL: server.URL}, Credentials{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if *metrics.Views != 1000 || *metrics.Likes != 150 || *metrics.Comments != 25 {
		t.Errorf("Unexpected counters: %+v", metrics)
	}
	if metrics.Creator != "alice" {
		t.Errorf("Expected creator from structured data, got %q", metrics.Creator)
	}
	if metrics.PostedAt == nil {
		t.Error("Expected posted_at from uploadDate")
	}
}

func TestScrapeFetchOpenGraphFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, openGraphPage)
	}))
	defer server.Close()

	fetcher := newScrapeTestFetcher(PlatformInstagram, server, 1)

	metrics, err := fetcher.Fetch(context.Background(), Identifier{Platform: PlatformInstagram, ID: "X", URL: server.URL}, Credentials{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if metrics.Views != nil {
		t.Errorf("Expected views to stay nil on fallback, got %v", *metrics.Views)
	}
	if *metrics.Likes != 12500 {
		t.Errorf("Expected 12.5K likes parsed as 12500, got %d", *metrics.Likes)
	}
	if *metrics.Comments != 340 {
		t.Errorf("Expected 340 comments, got %d", *metrics.Comments)
	}
	if metrics.Creator != "bob" {
		t.Errorf("Expected creator from og:title, got %q", metrics.Creator)
	}
}

func TestScrapeFetchSessionCookie(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, instagramPage)
	}))
	defer server.Close()

	fetcher := newScrapeTestFetcher(PlatformInstagram, server, 1)

	_, err := fetcher.Fetch(context.Background(), Identifier{Platform: PlatformInstagram, URL: server.URL}, Credentials{InstagramSessionID: "s3ss10n"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotCookie != "sessionid=s3ss10n;" {
		t.Errorf("Expected session cookie, got %q", gotCookie)
	}
}

func TestScrapeFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newScrapeTestFetcher(PlatformTikTok, server, 1)

	_, err := fetcher.Fetch(context.Background(), Identifier{Platform: PlatformTikTok, URL: server.URL}, Credentials{})
	fe, ok := AsFetchError(err)
	if !ok || fe.Reason != ReasonNotFound {
		t.Fatalf("Expected not_found, got %v", err)
	}
}

func TestScrapeFetchRetriesTransient(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, instagramPage)
	}))
	defer server.Close()

	fetcher := newScrapeTestFetcher(PlatformTikTok, server, 3)

	metrics, err := FetchWithRetry(context.Background(), fetcher, Identifier{Platform: PlatformTikTok, URL: server.URL}, Credentials{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if requests != 3 {
		t.Errorf("Expected success on the third attempt, got %d requests", requests)
	}
	if *metrics.Views != 1000 {
		t.Errorf("Unexpected views: %d", *metrics.Views)
	}
}

func TestScrapeFetchNoMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head></head><body>nothing here</body></html>")
	}))
	defer server.Close()

	fetcher := newScrapeTestFetcher(PlatformTikTok, server, 1)

	_, err := fetcher.Fetch(context.Background(), Identifier{Platform: PlatformTikTok, URL: server.URL}, Credentials{})
	fe, ok := AsFetchError(err)
	if !ok || fe.Reason != ReasonBadResponse {
		t.Fatalf("Expected bad_response, got %v", err)
	}
}

func TestParseApproxCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,234", 1234},
		{"12.5K", 12500},
		{"3M", 3000000},
		{"1.2B", 1200000000},
		{"42", 42},
	}

	for _, tt := range tests {
		got, ok := parseApproxCount(tt.in)
		if !ok {
			t.Errorf("Expected %q to parse", tt.in)
			continue
		}
		if got != tt.want {
			t.Errorf("parseApproxCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, ok := parseApproxCount("many"); ok {
		t.Error("Expected non-numeric count to fail")
	}
}
