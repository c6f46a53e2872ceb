package noop

import (
	"context"

	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/types"
)

// Classifier is a fallback used when no provider is configured. Every signal
// comes back neutral with zero impact, so the index stays at the midpoint.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(ctx context.Context, text string) (types.Verdict, error) {
	logger.Debug(ctx, "Noop classifier called - always returns neutral", "text", text)
	return types.Verdict{
		Title:      text,
		Status:     types.StatusNeutral,
		Impact:     0,
		Source:     "Unclassified",
		Summary:    "No classifier provider configured",
		Confidence: 0.95,
	}, nil
}
