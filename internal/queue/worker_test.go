package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sentiment-pulse/internal/classifier"
	"sentiment-pulse/internal/types"
)

// fakeClock returns immediately from After while recording requested sleeps.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return time.Unix(0, 0) }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// scriptedClassifier fails with the scripted errors in order, then succeeds.
type scriptedClassifier struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *scriptedClassifier) Classify(ctx context.Context, text string) (types.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= len(s.errs) {
		return types.Verdict{}, s.errs[s.calls-1]
	}
	return types.Verdict{
		Title:      text,
		Status:     types.StatusBullish,
		Impact:     0.5,
		Confidence: 0.9,
	}, nil
}

func (s *scriptedClassifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testConfig() Config {
	return Config{
		MaxAttempts:    5,
		InitialBackoff: 3 * time.Second,
		Cooldown:       60 * time.Second,
	}
}

func neverDuplicate(string) bool { return false }

func retryableErr(kind classifier.Kind) error {
	return classifier.NewError(kind, "test", errors.New("boom"))
}

// waitDrained polls until the pending queue is empty and the worker is idle.
func waitDrained(t *testing.T, p *Pending, w *Worker) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Len() == 0 && w.State() == StateIdle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Queue never drained: len=%d state=%s", p.Len(), w.State())
}

func TestWorkerScoresHeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	cl := &scriptedClassifier{}

	scored := make(chan types.Verdict, 1)
	w := NewWorker(testConfig(), pending, cl, clock, neverDuplicate,
		func(ctx context.Context, text string, v types.Verdict) { scored <- v })
	go w.Run(ctx)

	pending.Push("bitcoin rallies on etf inflows")
	w.Notify()

	select {
	case v := <-scored:
		if v.Status != types.StatusBullish {
			t.Errorf("Expected bullish verdict, got %s", v.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for verdict")
	}
	waitDrained(t, pending, w)
}

func TestWorkerRetriesWithExponentialBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	cl := &scriptedClassifier{errs: []error{
		retryableErr(classifier.KindServerError),
		retryableErr(classifier.KindServerError),
	}}

	scored := make(chan struct{}, 1)
	w := NewWorker(testConfig(), pending, cl, clock, neverDuplicate,
		func(ctx context.Context, text string, v types.Verdict) { scored <- struct{}{} })
	go w.Run(ctx)

	pending.Push("headline")
	w.Notify()

	select {
	case <-scored:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for verdict after retries")
	}

	sleeps := clock.recorded()
	if len(sleeps) != 2 || sleeps[0] != 3*time.Second || sleeps[1] != 6*time.Second {
		t.Errorf("Expected backoffs [3s 6s], got %v", sleeps)
	}
	if cl.callCount() != 3 {
		t.Errorf("Expected 3 classification attempts, got %d", cl.callCount())
	}
}

func TestWorkerExhaustsRetryBudget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	errs := make([]error, 6)
	for i := range errs {
		errs[i] = retryableErr(classifier.KindServerError)
	}
	cl := &scriptedClassifier{errs: errs}

	w := NewWorker(testConfig(), pending, cl, clock, neverDuplicate,
		func(ctx context.Context, text string, v types.Verdict) {
			t.Error("Expected no verdict for abandoned signal")
		})
	go w.Run(ctx)

	pending.Push("headline")
	w.Notify()
	waitDrained(t, pending, w)

	if cl.callCount() != 5 {
		t.Errorf("Expected exactly 5 attempts, got %d", cl.callCount())
	}
	sleeps := clock.recorded()
	want := []time.Duration{3 * time.Second, 6 * time.Second, 12 * time.Second, 24 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("Expected 4 backoffs, got %v", sleeps)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("Backoff %d: expected %v, got %v", i, want[i], sleeps[i])
		}
	}
}

func TestWorkerCoolsDownOnRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	cl := &scriptedClassifier{errs: []error{retryableErr(classifier.KindRateLimited)}}

	scored := make(chan struct{}, 1)
	w := NewWorker(testConfig(), pending, cl, clock, neverDuplicate,
		func(ctx context.Context, text string, v types.Verdict) { scored <- struct{}{} })
	go w.Run(ctx)

	pending.Push("headline")
	w.Notify()

	select {
	case <-scored:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for verdict after cooldown")
	}

	sleeps := clock.recorded()
	if len(sleeps) != 1 || sleeps[0] != 60*time.Second {
		t.Errorf("Expected a single 60s cooldown, got %v", sleeps)
	}
}

func TestWorkerRateLimitSharesRetryBudget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	// Alternating rate limits and server errors burn the same counter
	cl := &scriptedClassifier{errs: []error{
		retryableErr(classifier.KindRateLimited),
		retryableErr(classifier.KindServerError),
		retryableErr(classifier.KindRateLimited),
		retryableErr(classifier.KindServerError),
		retryableErr(classifier.KindRateLimited),
	}}

	w := NewWorker(testConfig(), pending, cl, clock, neverDuplicate,
		func(ctx context.Context, text string, v types.Verdict) {
			t.Error("Expected no verdict once the shared budget is spent")
		})
	go w.Run(ctx)

	pending.Push("headline")
	w.Notify()
	waitDrained(t, pending, w)

	if cl.callCount() != 5 {
		t.Errorf("Expected 5 attempts across both failure kinds, got %d", cl.callCount())
	}
}

func TestWorkerAbandonsNonRetryable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	cl := &scriptedClassifier{errs: []error{retryableErr(classifier.KindNonRetryable)}}

	w := NewWorker(testConfig(), pending, cl, clock, neverDuplicate,
		func(ctx context.Context, text string, v types.Verdict) {
			t.Error("Expected no verdict for non-retryable failure")
		})
	go w.Run(ctx)

	pending.Push("headline")
	w.Notify()
	waitDrained(t, pending, w)

	if cl.callCount() != 1 {
		t.Errorf("Expected a single attempt, got %d", cl.callCount())
	}
	if len(clock.recorded()) != 0 {
		t.Errorf("Expected no backoff sleeps, got %v", clock.recorded())
	}
}

func TestWorkerDropsStaleDuplicate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	cl := &scriptedClassifier{}

	w := NewWorker(testConfig(), pending, cl, clock,
		func(string) bool { return true },
		func(ctx context.Context, text string, v types.Verdict) {
			t.Error("Expected duplicate to be dropped without scoring")
		})
	go w.Run(ctx)

	pending.Push("headline")
	w.Notify()
	waitDrained(t, pending, w)

	if cl.callCount() != 0 {
		t.Errorf("Expected classifier never called for duplicate, got %d calls", cl.callCount())
	}
}

func TestWorkerProcessesQueueInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pending := NewPending(30)
	clock := &fakeClock{}
	cl := &scriptedClassifier{}

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})
	w := NewWorker(testConfig(), pending, cl, clock, neverDuplicate,
		func(ctx context.Context, text string, v types.Verdict) {
			mu.Lock()
			order = append(order, text)
			if len(order) == 3 {
				close(done)
			}
			mu.Unlock()
		})

	pending.Push("one")
	pending.Push("two")
	pending.Push("three")

	go w.Run(ctx)
	w.Notify()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for queue to drain")
	}

	mu.Lock()
	defer mu.Unlock()
	if order[0] != "one" || order[1] != "two" || order[2] != "three" {
		t.Errorf("Expected FIFO processing, got %v", order)
	}
}
