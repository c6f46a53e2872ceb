package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentiment-pulse/internal/classifier"
	"sentiment-pulse/internal/interfaces"
	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/trace"
	"sentiment-pulse/internal/types"
)

// State is the worker's observable phase.
type State string

const (
	StateIdle        State = "idle"
	StateProcessing  State = "processing"
	StateRetrying    State = "retrying"
	StateCoolingDown State = "cooling_down"
)

// Config bounds the retry machinery.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Cooldown       time.Duration
}

// Worker drains the pending queue one item at a time, holding the global
// one-classification-in-flight invariant. A failing head item blocks
// everything behind it until it succeeds or is abandoned.
type Worker struct {
	cfg        Config
	pending    *Pending
	classifier interfaces.Classifier
	clock      Clock

	// isDuplicate re-checks the live feed right before submission.
	isDuplicate func(text string) bool
	// onScored hands a successful verdict back to the pipeline owner.
	onScored func(ctx context.Context, text string, v types.Verdict)

	wake chan struct{}

	mu     sync.Mutex
	state  State
	status string
}

func NewWorker(cfg Config, pending *Pending, cl interfaces.Classifier, clock Clock,
	isDuplicate func(text string) bool,
	onScored func(ctx context.Context, text string, v types.Verdict)) *Worker {
	if clock == nil {
		clock = SystemClock()
	}
	return &Worker{
		cfg:         cfg,
		pending:     pending,
		classifier:  cl,
		clock:       clock,
		isDuplicate: isDuplicate,
		onScored:    onScored,
		wake:        make(chan struct{}, 1),
		state:       StateIdle,
	}
}

// Notify signals that the pending queue may have new work.
func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// State returns the current phase.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Status returns the advisory human-readable phase description, empty when
// idle.
func (w *Worker) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Worker) setPhase(state State, status string) {
	w.mu.Lock()
	w.state = state
	w.status = status
	w.mu.Unlock()
}

// Run processes the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		text, ok := w.pending.Peek()
		if !ok {
			w.setPhase(StateIdle, "")
			select {
			case <-w.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		w.processHead(ctx, text)
		if ctx.Err() != nil {
			return
		}
	}
}

// processHead attempts to classify the head item until success, abandonment,
// or shutdown.
func (w *Worker) processHead(ctx context.Context, text string) {
	ctx, span := trace.StartSpan(ctx, "queue.processHead")
	defer span.End()

	attempts := 0
	for {
		// The feed may have gained a near-identical item since this signal
		// was queued (or since the last attempt).
		if w.isDuplicate(text) {
			logger.Debug(ctx, "Pending signal became duplicate, dropping", "text", text)
			w.pending.Remove(text)
			w.setPhase(StateIdle, "")
			return
		}

		attempts++
		w.setPhase(StateProcessing, "Analyzing signal")

		verdict, err := w.classifier.Classify(ctx, text)
		if err == nil {
			w.onScored(ctx, text, verdict)
			w.pending.Remove(text)
			w.setPhase(StateIdle, "")
			return
		}
		if ctx.Err() != nil {
			return
		}

		kind := classifier.KindOf(err)
		retryable := classifier.Retryable(err)

		if !retryable || attempts >= w.cfg.MaxAttempts {
			if retryable {
				logger.Warn(ctx, "Retry budget exhausted, abandoning signal",
					"text", text, "attempts", attempts, "kind", kind.String())
			} else {
				logger.ErrorWithErr(ctx, "Non-retryable classification error, abandoning signal", err,
					"text", text, "attempts", attempts)
			}
			w.pending.Remove(text)
			w.setPhase(StateIdle, "")
			return
		}

		if kind == classifier.KindRateLimited {
			w.setPhase(StateCoolingDown, fmt.Sprintf("Rate limited - cooling down %ds",
				int(w.cfg.Cooldown/time.Second)))
			logger.Warn(ctx, "Classifier rate limited, cooling down",
				"cooldown", w.cfg.Cooldown, "attempt", attempts, "max_attempts", w.cfg.MaxAttempts)
			if !w.sleep(ctx, w.cfg.Cooldown) {
				return
			}
			continue
		}

		backoff := w.cfg.InitialBackoff << (attempts - 1)
		w.setPhase(StateRetrying, fmt.Sprintf("Retry %d/%d in %ds",
			attempts, w.cfg.MaxAttempts, int(backoff/time.Second)))
		logger.Warn(ctx, "Transient classification failure, backing off",
			"error", err, "backoff", backoff, "attempt", attempts, "max_attempts", w.cfg.MaxAttempts)
		if !w.sleep(ctx, backoff) {
			return
		}
	}
}

// sleep waits for d on the injected clock; false means shutdown interrupted
// the wait.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-w.clock.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
