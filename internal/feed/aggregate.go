package feed

import (
	"math"
	"time"

	"sentiment-pulse/internal/types"
)

// NeutralIndex is the midpoint returned when the feed carries no weight.
const NeutralIndex = 50.0

// Aggregator folds a feed snapshot into one index value in [0,100] using
// exponential half-life decay and per-item confidence weighting.
type Aggregator struct {
	halfLife time.Duration
}

func NewAggregator(halfLife time.Duration) *Aggregator {
	return &Aggregator{halfLife: halfLife}
}

// Index computes the current sentiment index. Pure function of the snapshot
// and now; an empty feed or fully decayed weights yield the neutral midpoint.
func (a *Aggregator) Index(snapshot []types.ScoredItem, now time.Time) float64 {
	if len(snapshot) == 0 {
		return NeutralIndex
	}

	var totalImpact, sumWeights float64
	for _, item := range snapshot {
		age := now.Sub(item.Timestamp)
		weight := math.Exp(-math.Ln2 * float64(age) / float64(a.halfLife))

		var score float64
		switch item.Status {
		case types.StatusBullish:
			score = item.Impact
		case types.StatusBearish:
			score = -item.Impact
		}

		confidence := item.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.95
		}

		totalImpact += score * weight * confidence
		sumWeights += weight
	}

	if sumWeights == 0 {
		return NeutralIndex
	}
	return types.Clamp(NeutralIndex+(totalImpact/sumWeights)*50, 0, 100)
}
