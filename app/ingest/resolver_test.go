package ingest

import (
	"testing"
)

func TestResolverRun(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		url      string
		wantID   string
	}{
		{"youtube watch", "youtube", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"youtube short link", "youtube", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"youtube shorts", "youtube", "https://www.youtube.com/shorts/AbCdEf123", "AbCdEf123"},
		{"youtube embed", "youtube", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"instagram post", "instagram", "https://www.instagram.com/p/Cxyz_12/", "Cxyz_12"},
		{"instagram reel", "instagram", "https://www.instagram.com/reel/Cxyz_12/", "Cxyz_12"},
		{"instagram reel with username", "instagram", "https://www.instagram.com/alice/reel/Cxyz_12/", "Cxyz_12"},
		{"tiktok video", "tiktok", "https://www.tiktok.com/@bob/video/7284916385", "7284916385"},
		{"tiktok share link", "tiktok", "https://vm.tiktok.com/ZMabcdef/", "ZMabcdef"},
	}

	resolver := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, rowErr := resolver.Run(&IngestRequest{RowIndex: 1, Platform: tt.platform, URL: tt.url})
			if rowErr != nil {
				t.Fatalf("Unexpected row error: %v", rowErr)
			}
			if id.ID != tt.wantID {
				t.Errorf("Expected id %q, got %q", tt.wantID, id.ID)
			}
			if string(id.Platform) != tt.platform {
				t.Errorf("Expected platform %q, got %q", tt.platform, id.Platform)
			}
			if id.URL != tt.url {
				t.Errorf("Expected original URL to be preserved, got %q", id.URL)
			}
		})
	}
}

func TestResolverRunDeterministic(t *testing.T) {
	resolver := NewResolver()
	request := &IngestRequest{RowIndex: 1, Platform: "youtube", URL: "https://youtu.be/dQw4w9WgXcQ"}

	first, rowErr := resolver.Run(request)
	if rowErr != nil {
		t.Fatalf("Unexpected row error: %v", rowErr)
	}
	for i := 0; i < 10; i++ {
		again, rowErr := resolver.Run(request)
		if rowErr != nil {
			t.Fatalf("Unexpected row error on repeat: %v", rowErr)
		}
		if again != first {
			t.Fatalf("Expected identical identifier on repeat, got %+v vs %+v", again, first)
		}
	}
}

func TestResolverRunUnsupportedPlatform(t *testing.T) {
	_, rowErr := NewResolver().Run(&IngestRequest{RowIndex: 2, Platform: "vimeo", URL: "https://vimeo.com/123"})
	if rowErr == nil {
		t.Fatal("Expected row error")
	}
	if rowErr.Reason != ReasonUnsupportedPlatform {
		t.Errorf("Expected UnsupportedPlatform, got %s", rowErr.Reason)
	}
	if rowErr.RowIndex != 2 {
		t.Errorf("Expected row index 2, got %d", rowErr.RowIndex)
	}
}

func TestResolverRunInvalidURL(t *testing.T) {
	tests := []struct {
		platform string
		url      string
	}{
		{"youtube", "https://www.youtube.com/channel/UCabc"},
		{"instagram", "https://www.instagram.com/alice/"},
		{"tiktok", "https://www.tiktok.com/@bob"},
	}

	resolver := NewResolver()
	for _, tt := range tests {
		_, rowErr := resolver.Run(&IngestRequest{RowIndex: 1, Platform: tt.platform, URL: tt.url})
		if rowErr == nil {
			t.Fatalf("Expected row error for %s", tt.url)
		}
		if rowErr.Reason != ReasonInvalidURL {
			t.Errorf("Expected InvalidURL for %s, got %s", tt.url, rowErr.Reason)
		}
	}
}
