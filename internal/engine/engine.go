// Package engine owns all mutable pipeline state and wires the stream,
// deduplicator, classification queue, feed, aggregator, and candle series
// together. Every mutation funnels through it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentiment-pulse/internal/eventlog"
	"sentiment-pulse/internal/feed"
	"sentiment-pulse/internal/interfaces"
	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/queue"
	"sentiment-pulse/internal/store"
	"sentiment-pulse/internal/stream"
	"sentiment-pulse/internal/types"

	"github.com/google/uuid"
)

// refreshInterval drives time-only recomputation: decay moves the index and
// candle buckets roll over even when no new signal arrives.
const refreshInterval = 30 * time.Second

// Engine is the single owner of the pipeline.
type Engine struct {
	cfg       *store.Config
	feed      *feed.Store
	dedup     *feed.Deduplicator
	agg       *feed.Aggregator
	pending   *queue.Pending
	worker    *queue.Worker
	stream    *stream.Manager
	persister interfaces.FeedPersister

	now func() time.Time

	mu     sync.Mutex
	series *feed.Series
	index  float64
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	Feed         []types.ScoredItem  `json:"feed"`
	Index        float64             `json:"index"`
	Candles      []types.CandlePoint `json:"candles"`
	Timeframe    types.Timeframe     `json:"timeframe"`
	PendingCount int                 `json:"pending_count"`
	QueueStatus  string              `json:"queue_status"`
	Connection   types.ConnState     `json:"connection"`
	MessageCount int64               `json:"message_count"`
}

// New assembles the pipeline. The classifier and persister are the external
// collaborators; clock may be nil for the system clock.
func New(cfg *store.Config, cl interfaces.Classifier, persister interfaces.FeedPersister, clock queue.Clock) *Engine {
	e := &Engine{
		cfg:       cfg,
		feed:      feed.NewStore(cfg.Feed.Capacity),
		dedup:     feed.NewDeduplicator(cfg.Dedup.StrictThreshold, cfg.Dedup.RecentThreshold, cfg.RecentWindow()),
		agg:       feed.NewAggregator(cfg.HalfLife()),
		pending:   queue.NewPending(cfg.Queue.MaxPending),
		persister: persister,
		now:       time.Now,
	}

	e.worker = queue.NewWorker(queue.Config{
		MaxAttempts:    cfg.Queue.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff(),
		Cooldown:       cfg.Cooldown(),
	}, e.pending, cl, clock, e.isDuplicate, e.onScored)

	e.stream = stream.NewManager(stream.Config{
		URL:              cfg.Stream.URL,
		SourceMarker:     cfg.Stream.SourceMarker,
		Heartbeat:        cfg.HeartbeatInterval(),
		ReconnectDelay:   cfg.ReconnectDelay(),
		FallbackInterval: cfg.FallbackInterval(),
	}, e.SubmitSignal)

	now := e.now()
	e.series = feed.NewSeries(types.Timeframe(cfg.Candles.Timeframe), cfg.Candles.Points, now, nil)
	return e
}

// LoadInitialFeed restores the persisted feed, falling back to the built-in
// seed set when nothing was stored.
func (e *Engine) LoadInitialFeed(ctx context.Context) {
	now := e.now()

	items, err := e.persister.LoadFeed()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load persisted feed, using seed items", err)
		items = nil
	}
	if len(items) == 0 {
		items = feed.SeedItems(now)
		logger.Info(ctx, "Feed empty, starting from seed items", "count", len(items))
	} else {
		logger.Info(ctx, "Feed restored from persistence", "count", len(items))
	}
	e.feed.Replace(items)
	e.recompute(ctx)
}

// Run starts the worker, the stream manager, and the periodic refresh, and
// blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.worker.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.stream.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.recompute(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
}

// SubmitSignal is the ingestion entry point for raw candidate headlines from
// the stream (live or fallback).
func (e *Engine) SubmitSignal(text string) {
	ctx := context.Background()
	if text == "" {
		return
	}
	now := e.now()
	if e.dedup.IsDuplicate(text, e.feed.Snapshot(), now) {
		logger.Debug(ctx, "Duplicate signal dropped at ingestion", "text", text)
		return
	}
	if !e.pending.Push(text) {
		logger.Debug(ctx, "Signal already pending", "text", text)
		return
	}
	logger.Info(ctx, "Signal queued for classification", "text", text, "pending", e.pending.Len())
	e.worker.Notify()
}

// isDuplicate re-checks a pending text against the live feed right before a
// classification attempt.
func (e *Engine) isDuplicate(text string) bool {
	return e.dedup.IsDuplicate(text, e.feed.Snapshot(), e.now())
}

// onScored turns a verdict into a stored feed item and refreshes the derived
// views.
func (e *Engine) onScored(ctx context.Context, text string, v types.Verdict) {
	now := e.now()

	title := v.Title
	if title == "" {
		title = text
	}
	item := types.ScoredItem{
		ID:         uuid.NewString(),
		Title:      title,
		Status:     v.Status,
		Impact:     v.Impact,
		Confidence: v.Confidence,
		Timestamp:  now,
		Source:     v.Source,
		Summary:    v.Summary,
		Reasoning:  v.Reasoning,
		Entities:   v.Entities,
		Weights:    v.Weights,
	}
	item = e.feed.Insert(item, now)

	if err := e.persister.SaveFeed(e.feed.Snapshot()); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist feed", err)
	}

	index := e.recompute(ctx)

	logger.Classification(ctx, item.Title, string(item.Status), item.Impact, item.Confidence, "index", index)
	if err := eventlog.Append(eventlog.Entry{
		Text:       text,
		Outcome:    "scored",
		Status:     string(item.Status),
		Impact:     item.Impact,
		Confidence: item.Confidence,
		Index:      index,
	}); err != nil {
		logger.Warn(ctx, "Failed to append event log entry", "error", err)
	}
}

// recompute refreshes the index from the feed and folds it into the candle
// series. Returns the new index.
func (e *Engine) recompute(ctx context.Context) float64 {
	now := e.now()
	index := e.agg.Index(e.feed.Snapshot(), now)

	e.mu.Lock()
	e.index = index
	e.series.Apply(index, now)
	e.mu.Unlock()

	logger.Debug(ctx, "Index recomputed", "index", index, "feed_len", e.feed.Len())
	return index
}

// SetTimeframe regenerates the candle series for tf. The previous series is
// discarded, not migrated.
func (e *Engine) SetTimeframe(tf types.Timeframe) error {
	if _, ok := tf.Interval(); !ok {
		return fmt.Errorf("unknown timeframe '%s'", tf)
	}
	now := e.now()
	index := e.agg.Index(e.feed.Snapshot(), now)

	e.mu.Lock()
	e.series = feed.NewSeries(tf, e.cfg.Candles.Points, now, nil)
	e.index = index
	e.series.Apply(index, now)
	e.mu.Unlock()
	return nil
}

// Index returns the current sentiment index.
func (e *Engine) Index() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Snapshot assembles the full presentation view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	candles := e.series.Points()
	tf := e.series.Timeframe()
	index := e.index
	e.mu.Unlock()

	return Snapshot{
		Feed:         e.feed.Snapshot(),
		Index:        index,
		Candles:      candles,
		Timeframe:    tf,
		PendingCount: e.pending.Len(),
		QueueStatus:  e.worker.Status(),
		Connection:   e.stream.State(),
		MessageCount: e.stream.MessageCount(),
	}
}
