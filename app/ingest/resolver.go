package ingest

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/viewlens/viewlens/app/fetch"
)

var (
	youtubeIDRe   = regexp.MustCompile(`(?:v=|/videos/|embed/|youtu\.be/|/shorts/)([A-Za-z0-9_-]{6,})`)
	instagramIDRe = regexp.MustCompile(`instagram\.com/(?:[^/]+/)?(?:p|reel|reels|tv)/([A-Za-z0-9_-]+)`)
	tiktokIDRe    = regexp.MustCompile(`/video/(\d+)`)
)

// Resolver maps a platform label and URL to the platform-native video id.
// Resolution is pure and deterministic; it performs no network I/O.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Run(req *IngestRequest) (fetch.Identifier, *RowError) {
	platform, ok := fetch.ParsePlatform(req.Platform)
	if !ok {
		return fetch.Identifier{}, &RowError{
			RowIndex: req.RowIndex,
			Reason:   ReasonUnsupportedPlatform,
			Detail:   fmt.Sprintf("unsupported platform %q", req.Platform),
		}
	}

	var id string
	switch platform {
	case fetch.PlatformYouTube:
		id = firstMatch(youtubeIDRe, req.URL)
	case fetch.PlatformInstagram:
		id = firstMatch(instagramIDRe, req.URL)
	case fetch.PlatformTikTok:
		id = firstMatch(tiktokIDRe, req.URL)
		if id == "" {
			id = tiktokShortLinkID(req.URL)
		}
	}

	if id == "" {
		return fetch.Identifier{}, &RowError{
			RowIndex: req.RowIndex,
			Reason:   ReasonInvalidURL,
			Detail:   fmt.Sprintf("could not extract a %s video id from %q", platform, req.URL),
		}
	}

	return fetch.Identifier{Platform: platform, ID: id, URL: req.URL}, nil
}

func firstMatch(re *regexp.Regexp, s string) string {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return ""
	}
	return match[1]
}

// Share links like vm.tiktok.com/<code> carry the id as the only path segment.
func tiktokShortLinkID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	if host != "vm.tiktok.com" && host != "vt.tiktok.com" {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}
	return segments[0]
}
