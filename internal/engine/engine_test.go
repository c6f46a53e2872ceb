package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"sentiment-pulse/internal/store"
	"sentiment-pulse/internal/types"
)

// memPersister keeps the feed in memory for tests.
type memPersister struct {
	mu    sync.Mutex
	items []types.ScoredItem
}

func (m *memPersister) LoadFeed() ([]types.ScoredItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.ScoredItem(nil), m.items...), nil
}

func (m *memPersister) SaveFeed(items []types.ScoredItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]types.ScoredItem(nil), items...)
	return nil
}

type fixedClassifier struct {
	verdict types.Verdict
}

func (f *fixedClassifier) Classify(ctx context.Context, text string) (types.Verdict, error) {
	v := f.verdict
	v.Title = text
	return v, nil
}

func testEngineConfig() *store.Config {
	cfg := &store.Config{}
	// Unreachable endpoint with a long reconnect delay keeps the stream quiet
	cfg.Stream.URL = "ws://127.0.0.1:1/ws"
	cfg.Stream.SourceMarker = "BWENEWS"
	cfg.Stream.HeartbeatSeconds = 30
	cfg.Stream.ReconnectSeconds = 600
	cfg.Stream.FallbackMinutes = 60
	cfg.Queue.MaxPending = 30
	cfg.Queue.MaxAttempts = 5
	cfg.Queue.InitialBackoffSeconds = 3
	cfg.Queue.CooldownSeconds = 60
	cfg.Feed.Capacity = 100
	cfg.Feed.HalfLifeHours = 6
	cfg.Dedup.StrictThreshold = 0.70
	cfg.Dedup.RecentThreshold = 0.50
	cfg.Dedup.RecentWindowMinutes = 60
	cfg.Candles.Points = 41
	cfg.Candles.Timeframe = "1H"
	cfg.Classifier.Provider = "NONE"
	return cfg
}

func TestLoadInitialFeedFallsBackToSeed(t *testing.T) {
	e := New(testEngineConfig(), &fixedClassifier{}, &memPersister{}, nil)
	e.LoadInitialFeed(context.Background())

	snap := e.Snapshot()
	if len(snap.Feed) == 0 {
		t.Fatal("Expected seed items in empty-store startup")
	}
	if snap.Index <= 0 || snap.Index >= 100 {
		t.Errorf("Expected index inside (0,100), got %f", snap.Index)
	}
	if len(snap.Candles) != 41 {
		t.Errorf("Expected 41 candle points, got %d", len(snap.Candles))
	}
}

func TestLoadInitialFeedRestoresPersisted(t *testing.T) {
	persister := &memPersister{items: []types.ScoredItem{{
		ID: "restored", Title: "stored headline", Status: types.StatusNeutral,
		Confidence: 0.95, Timestamp: time.Now(),
	}}}

	e := New(testEngineConfig(), &fixedClassifier{}, persister, nil)
	e.LoadInitialFeed(context.Background())

	snap := e.Snapshot()
	if len(snap.Feed) != 1 || snap.Feed[0].ID != "restored" {
		t.Errorf("Expected persisted feed restored, got %v", snap.Feed)
	}
}

func TestSubmitAndScoreSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	persister := &memPersister{items: []types.ScoredItem{{
		ID: "base", Title: "unrelated baseline item", Status: types.StatusNeutral,
		Confidence: 0.95, Timestamp: time.Now(),
	}}}
	cl := &fixedClassifier{verdict: types.Verdict{
		Status: types.StatusBullish, Impact: 0.8, Confidence: 1,
	}}

	e := New(testEngineConfig(), cl, persister, nil)
	e.LoadInitialFeed(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()

	e.SubmitSignal("bitcoin etf sees record inflows")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(e.Snapshot().Feed) == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	snap := e.Snapshot()
	if len(snap.Feed) != 2 {
		t.Fatalf("Expected scored item in feed, got %d items", len(snap.Feed))
	}
	if snap.Feed[0].Title != "bitcoin etf sees record inflows" {
		t.Errorf("Expected scored item at front, got %q", snap.Feed[0].Title)
	}
	if snap.Feed[0].ID == "" {
		t.Error("Expected scored item to carry an ID")
	}
	if snap.Index <= 50 {
		t.Errorf("Expected bullish verdict to lift index above 50, got %f", snap.Index)
	}

	stored, _ := persister.LoadFeed()
	if len(stored) != 2 {
		t.Errorf("Expected feed persisted after scoring, got %d items", len(stored))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Engine did not shut down")
	}
}

func TestSubmitSignalDropsDuplicate(t *testing.T) {
	persister := &memPersister{items: []types.ScoredItem{{
		ID: "existing", Title: "bitcoin etf approved by regulators", Status: types.StatusBullish,
		Impact: 0.8, Confidence: 0.95, Timestamp: time.Now(),
	}}}

	e := New(testEngineConfig(), &fixedClassifier{}, persister, nil)
	e.LoadInitialFeed(context.Background())

	e.SubmitSignal("bitcoin etf approved by regulators")

	if got := e.Snapshot().PendingCount; got != 0 {
		t.Errorf("Expected duplicate to be dropped before queueing, got %d pending", got)
	}

	e.SubmitSignal("completely different solana outage headline")
	if got := e.Snapshot().PendingCount; got != 1 {
		t.Errorf("Expected distinct signal queued, got %d pending", got)
	}
}

func TestSetTimeframe(t *testing.T) {
	e := New(testEngineConfig(), &fixedClassifier{}, &memPersister{}, nil)
	e.LoadInitialFeed(context.Background())

	if err := e.SetTimeframe(types.Timeframe4H); err != nil {
		t.Fatalf("Expected valid timeframe accepted, got %v", err)
	}
	snap := e.Snapshot()
	if snap.Timeframe != types.Timeframe4H {
		t.Errorf("Expected timeframe 4H, got %s", snap.Timeframe)
	}
	if len(snap.Candles) != 41 {
		t.Errorf("Expected regenerated series with 41 points, got %d", len(snap.Candles))
	}

	if err := e.SetTimeframe(types.Timeframe("7H")); err == nil {
		t.Error("Expected unknown timeframe rejected")
	}
}
