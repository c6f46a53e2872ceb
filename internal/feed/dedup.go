package feed

import (
	"strings"
	"time"

	"sentiment-pulse/internal/types"
)

// Deduplicator decides whether a candidate headline is substantially the same
// as an item already in the feed. Two thresholds apply: any item blocks at
// high similarity, and items younger than the recent window also block at a
// lower similarity, which tolerates quick paraphrases of breaking headlines.
type Deduplicator struct {
	strictThreshold float64
	recentThreshold float64
	recentWindow    time.Duration
}

func NewDeduplicator(strict, recent float64, window time.Duration) *Deduplicator {
	return &Deduplicator{
		strictThreshold: strict,
		recentThreshold: recent,
		recentWindow:    window,
	}
}

// IsDuplicate checks candidate against a feed snapshot. Pure; safe to call
// concurrently.
func (d *Deduplicator) IsDuplicate(candidate string, snapshot []types.ScoredItem, now time.Time) bool {
	candidateWords := tokenize(candidate)
	for _, item := range snapshot {
		sim := jaccard(candidateWords, tokenize(item.Title))
		if sim > d.strictThreshold {
			return true
		}
		if now.Sub(item.Timestamp) < d.recentWindow && sim > d.recentThreshold {
			return true
		}
	}
	return false
}

// Similarity returns the Jaccard word-set similarity of two texts.
func Similarity(a, b string) float64 {
	return jaccard(tokenize(a), tokenize(b))
}

func tokenize(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	// Two empty titles share no evidence; treat as dissimilar rather than
	// identical so blank text never blocks real signals.
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
