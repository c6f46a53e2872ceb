package classifierobs

import (
	"context"

	"sentiment-pulse/internal/interfaces"
	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/trace"
	"sentiment-pulse/internal/types"
)

// observableClassifier wraps a Classifier with logging and tracing
type observableClassifier struct {
	inner interfaces.Classifier
}

// Compile-time interface check
var _ interfaces.Classifier = (*observableClassifier)(nil)

// Wrap wraps a classifier with observability middleware
func Wrap(c interfaces.Classifier) interfaces.Classifier {
	return &observableClassifier{inner: c}
}

func (oc *observableClassifier) Classify(ctx context.Context, text string) (types.Verdict, error) {
	ctx, span := trace.StartSpan(ctx, "classifier.Classify")
	defer span.End()

	// Skip(1) so the log line reports the actual caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting classification", "text", text)

	verdict, err := oc.inner.Classify(ctx, text)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Classification failed", err, "text", text)
		return types.Verdict{}, err
	}

	logger.InfoSkip(ctx, 1, "Classification received",
		"status", verdict.Status,
		"impact", verdict.Impact,
		"confidence", verdict.Confidence,
	)
	return verdict, nil
}
