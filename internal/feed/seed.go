package feed

import (
	"time"

	"sentiment-pulse/internal/types"
)

// SeedItems is the built-in starting feed used when persistence holds
// nothing, so the index has signal from the first render.
func SeedItems(now time.Time) []types.ScoredItem {
	return []types.ScoredItem{
		{
			ID:         "seed-1",
			Title:      "Institutional inflow surge as major banks unveil multi-billion digital asset custody expansion",
			Impact:     0.92,
			Confidence: 0.95,
			Timestamp:  now.Add(-12 * time.Minute),
			Status:     types.StatusBullish,
			Source:     "Bloomberg Terminal",
			Entities: []types.Entity{
				{Name: "Bitcoin (BTC)", Type: "Asset"},
				{Name: "SEC", Type: "Regulator"},
				{Name: "Fidelity", Type: "Institution"},
			},
			Weights: []types.WeightFactor{
				{Label: "Regulatory Clarity", Value: 0.85},
				{Label: "Adoption Intent", Value: 0.72},
			},
			Summary: "High probability of positive impact due to institutional adoption keywords and a finalized regulatory consensus.",
		},
		{
			ID:         "seed-2",
			Title:      "Updated regulatory framework proposes heightened compliance requirements for cross-border settlements",
			Impact:     0.65,
			Confidence: 0.95,
			Timestamp:  now.Add(-28 * time.Minute),
			Status:     types.StatusBearish,
			Source:     "Financial Times",
			Entities: []types.Entity{
				{Name: "Ripple (XRP)", Type: "Asset"},
				{Name: "IMF", Type: "Global"},
			},
			Weights: []types.WeightFactor{
				{Label: "Compliance Cost", Value: 0.90},
				{Label: "Settlement Speed", Value: 0.45},
			},
			Summary: "Regulatory tightening in cross-border corridors suggests a temporary slowdown in liquidity scaling.",
		},
	}
}
