package feed

import (
	"testing"
	"time"

	"sentiment-pulse/internal/types"
)

func feedWith(title string, age time.Duration, now time.Time) []types.ScoredItem {
	return []types.ScoredItem{{
		ID:        "1",
		Title:     title,
		Status:    types.StatusNeutral,
		Timestamp: now.Add(-age),
	}}
}

func TestSimilarityIdentical(t *testing.T) {
	if sim := Similarity("bitcoin etf approved", "bitcoin etf approved"); sim != 1.0 {
		t.Errorf("Expected similarity 1.0 for identical texts, got %f", sim)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	if sim := Similarity("bitcoin etf approved", "fed raises rates again"); sim != 0 {
		t.Errorf("Expected similarity 0 for disjoint texts, got %f", sim)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a := "SEC approves spot bitcoin ETF applications"
	b := "spot bitcoin ETF applications get SEC nod"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("Expected similarity to be symmetric")
	}
}

func TestSimilarityCaseInsensitive(t *testing.T) {
	if sim := Similarity("Bitcoin ETF Approved", "bitcoin etf approved"); sim != 1.0 {
		t.Errorf("Expected case-insensitive match, got %f", sim)
	}
}

func TestSimilarityEmptyTexts(t *testing.T) {
	if sim := Similarity("", ""); sim != 0 {
		t.Errorf("Expected 0 for two empty texts, got %f", sim)
	}
}

func TestIsDuplicateStrictThreshold(t *testing.T) {
	d := NewDeduplicator(0.70, 0.50, time.Hour)
	now := time.Now()

	// 6 of 7 words shared, similarity above the strict threshold, age beyond
	// the recent window
	old := feedWith("bitcoin etf approved by the SEC today", 3*time.Hour, now)
	if !d.IsDuplicate("bitcoin etf approved by the SEC", old, now) {
		t.Error("Expected near-identical title to be duplicate regardless of age")
	}
}

func TestIsDuplicateRecentWindow(t *testing.T) {
	d := NewDeduplicator(0.70, 0.50, time.Hour)
	now := time.Now()

	// 6 shared of 11 distinct words lands between the two thresholds
	candidate := "bitcoin etf approved by regulators in landmark move today"
	existing := "bitcoin etf approved by regulators in historic decision"

	sim := Similarity(candidate, existing)
	if sim <= 0.50 || sim > 0.70 {
		t.Fatalf("Test fixture drifted out of the threshold band: %f", sim)
	}

	recent := feedWith(existing, 10*time.Minute, now)
	if !d.IsDuplicate(candidate, recent, now) {
		t.Error("Expected mid-similarity candidate to be blocked against recent item")
	}

	old := feedWith(existing, 2*time.Hour, now)
	if d.IsDuplicate(candidate, old, now) {
		t.Error("Expected mid-similarity candidate to pass against old item")
	}
}

func TestIsDuplicateDissimilarPasses(t *testing.T) {
	d := NewDeduplicator(0.70, 0.50, time.Hour)
	now := time.Now()

	recent := feedWith("fed raises interest rates by 25 basis points", time.Minute, now)
	if d.IsDuplicate("ethereum completes major network upgrade", recent, now) {
		t.Error("Expected unrelated headline to pass")
	}
}

func TestIsDuplicateEmptyFeed(t *testing.T) {
	d := NewDeduplicator(0.70, 0.50, time.Hour)
	if d.IsDuplicate("any headline at all", nil, time.Now()) {
		t.Error("Expected no duplicates against empty feed")
	}
}
