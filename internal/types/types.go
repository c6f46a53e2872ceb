package types

import "time"

// Status is the sentiment direction assigned by the classifier.
type Status string

const (
	StatusBullish Status = "bullish"
	StatusBearish Status = "bearish"
	StatusNeutral Status = "neutral"
)

// Entity is a named market actor referenced by a scored item.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// WeightFactor is one labeled component of a classifier verdict, value in [-1,1].
type WeightFactor struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Verdict is the structured result of one classification call.
type Verdict struct {
	Title      string         `json:"title"`
	Status     Status         `json:"status"`
	Impact     float64        `json:"impact"`
	Source     string         `json:"source"`
	Entities   []Entity       `json:"entities"`
	Weights    []WeightFactor `json:"weights"`
	Summary    string         `json:"summary"`
	Reasoning  string         `json:"reasoning_logic"`
	Confidence float64        `json:"confidence_score"`
}

// ScoredItem is a classified signal stored in the feed.
// Timestamp is set once at insertion and never mutated.
type ScoredItem struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Status     Status         `json:"status"`
	Impact     float64        `json:"impact"`
	Confidence float64        `json:"confidence_score"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source"`
	Summary    string         `json:"summary"`
	Reasoning  string         `json:"reasoning_logic,omitempty"`
	Entities   []Entity       `json:"entities"`
	Weights    []WeightFactor `json:"weights"`
}

// CandlePoint is one OHLC bucket of the sentiment index, all fields in [0,100].
type CandlePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// Timeframe selects the bucket width of the candle series.
type Timeframe string

const (
	Timeframe30m Timeframe = "30m"
	Timeframe1H  Timeframe = "1H"
	Timeframe2H  Timeframe = "2H"
	Timeframe4H  Timeframe = "4H"
	Timeframe6H  Timeframe = "6H"
	Timeframe8H  Timeframe = "8H"
	Timeframe1D  Timeframe = "1D"
	Timeframe1W  Timeframe = "1W"
	Timeframe1M  Timeframe = "1M"
)

var timeframeIntervals = map[Timeframe]time.Duration{
	Timeframe30m: 30 * time.Minute,
	Timeframe1H:  time.Hour,
	Timeframe2H:  2 * time.Hour,
	Timeframe4H:  4 * time.Hour,
	Timeframe6H:  6 * time.Hour,
	Timeframe8H:  8 * time.Hour,
	Timeframe1D:  24 * time.Hour,
	Timeframe1W:  7 * 24 * time.Hour,
	Timeframe1M:  30 * 24 * time.Hour,
}

// Interval returns the bucket width for the timeframe, or false if unknown.
func (tf Timeframe) Interval() (time.Duration, bool) {
	d, ok := timeframeIntervals[tf]
	return d, ok
}

// ConnState describes the upstream stream connection.
type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
)

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
