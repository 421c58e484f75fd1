package ingest

import (
	"math"

	"github.com/viewlens/viewlens/app/fetch"
)

// DeriveEngagementRate computes (likes+comments)/views*100 rounded to two
// decimals. Zero or absent views yield 0, never a division error.
func DeriveEngagementRate(m *fetch.Metrics) float64 {
	views := counterValue(m.Views)
	if views <= 0 {
		return 0
	}

	engaged := counterValue(m.Likes) + counterValue(m.Comments)
	rate := float64(engaged) / float64(views) * 100
	return math.Round(rate*100) / 100
}

func counterValue(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
