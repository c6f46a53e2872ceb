package feed

import (
	"math/rand"
	"time"

	"sentiment-pulse/internal/types"
)

// Series is the fixed-length OHLC view of the sentiment index for one
// timeframe. Not safe for concurrent use; the engine owns it.
type Series struct {
	points   []types.CandlePoint
	tf       types.Timeframe
	interval time.Duration
	size     int
	rng      *rand.Rand
}

// NewSeries builds a series of size equally spaced buckets ending at now,
// seeded with a synthetic random walk around the neutral midpoint. Real index
// values overwrite the walk as updates arrive.
func NewSeries(tf types.Timeframe, size int, now time.Time, rng *rand.Rand) *Series {
	interval, ok := tf.Interval()
	if !ok {
		tf = types.Timeframe1H
		interval, _ = tf.Interval()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}

	s := &Series{
		points:   make([]types.CandlePoint, 0, size),
		tf:       tf,
		interval: interval,
		size:     size,
		rng:      rng,
	}

	base := NeutralIndex + (rng.Float64()*20 - 10)
	for i := size - 1; i >= 0; i-- {
		open := base
		close := base + (rng.Float64()*16 - 8)
		high := max(open, close) + rng.Float64()*5
		low := min(open, close) - rng.Float64()*5

		s.points = append(s.points, types.CandlePoint{
			Timestamp: now.Add(-time.Duration(i) * interval),
			Open:      types.Clamp(open, 0, 100),
			High:      types.Clamp(high, 0, 100),
			Low:       types.Clamp(low, 0, 100),
			Close:     types.Clamp(close, 0, 100),
		})
		base = close
	}
	return s
}

// Apply folds a freshly computed index value into the series. The last
// bucket's close always becomes the new value and its high/low stretch to
// cover it; open never changes after a bucket is created. When now has moved
// past the last bucket a new one opens at the previous close and the oldest
// point falls off.
func (s *Series) Apply(index float64, now time.Time) {
	if len(s.points) == 0 {
		return
	}

	for now.Sub(s.points[len(s.points)-1].Timestamp) >= s.interval {
		prev := s.points[len(s.points)-1]
		next := types.CandlePoint{
			Timestamp: prev.Timestamp.Add(s.interval),
			Open:      prev.Close,
			High:      prev.Close,
			Low:       prev.Close,
			Close:     prev.Close,
		}
		s.points = append(s.points, next)
		if len(s.points) > s.size {
			s.points = s.points[1:]
		}
	}

	last := &s.points[len(s.points)-1]
	last.Close = index
	last.High = max(last.High, index)
	last.Low = min(last.Low, index)
}

// Timeframe returns the active timeframe.
func (s *Series) Timeframe() types.Timeframe {
	return s.tf
}

// Points returns a copy of the series, oldest first.
func (s *Series) Points() []types.CandlePoint {
	return append([]types.CandlePoint(nil), s.points...)
}
