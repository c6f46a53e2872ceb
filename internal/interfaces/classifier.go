package interfaces

import (
	"context"

	"sentiment-pulse/internal/types"
)

// Classifier turns raw signal text into a structured sentiment verdict.
type Classifier interface {
	Classify(ctx context.Context, text string) (types.Verdict, error)
}
