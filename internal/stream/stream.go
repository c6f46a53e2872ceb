// Package stream owns the live connection to the upstream news feed:
// dialing, heartbeat, decode, reconnect, and the disconnected-mode fallback
// generator. Nothing else touches the connection.
package stream

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/types"

	"github.com/gorilla/websocket"
)

const (
	heartbeatProbe = "ping"
	heartbeatAck   = "pong"
)

// Handler receives an accepted candidate headline.
type Handler func(text string)

// Config configures the connection manager.
type Config struct {
	URL              string
	SourceMarker     string
	Heartbeat        time.Duration
	ReconnectDelay   time.Duration
	FallbackInterval time.Duration
}

// Manager maintains the websocket connection for the life of the process.
// Reconnection is unconditional; the manager never gives up.
type Manager struct {
	cfg    Config
	submit Handler
	dialer *websocket.Dialer

	mu    sync.Mutex
	state types.ConnState
	rng   *rand.Rand

	msgCount atomic.Int64
}

func NewManager(cfg Config, submit Handler) *Manager {
	return &Manager{
		cfg:    cfg,
		submit: submit,
		dialer: websocket.DefaultDialer,
		state:  types.ConnDisconnected,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// State returns the current connection state.
func (m *Manager) State() types.ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s types.ConnState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// MessageCount returns the number of accepted upstream messages.
func (m *Manager) MessageCount() int64 {
	return m.msgCount.Load()
}

// Run connects and serves until ctx is cancelled, reconnecting after every
// failure. The fallback generator runs alongside and fires only while
// disconnected.
func (m *Manager) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.fallbackLoop(ctx)
	}()

	for {
		m.setState(types.ConnConnecting)
		logger.StreamEvent(ctx, "connecting", "url", m.cfg.URL)

		conn, _, err := m.dialer.DialContext(ctx, m.cfg.URL, nil)
		if err != nil {
			m.setState(types.ConnDisconnected)
			if ctx.Err() != nil {
				break
			}
			logger.ErrorWithErr(ctx, "Stream dial failed, will reconnect", err,
				"url", m.cfg.URL, "delay", m.cfg.ReconnectDelay)
			if !sleep(ctx, m.cfg.ReconnectDelay) {
				break
			}
			continue
		}

		m.setState(types.ConnConnected)
		logger.StreamEvent(ctx, "connected", "url", m.cfg.URL)

		m.serve(ctx, conn)

		m.setState(types.ConnDisconnected)
		if ctx.Err() != nil {
			break
		}
		logger.StreamEvent(ctx, "disconnected", "delay", m.cfg.ReconnectDelay)
		if !sleep(ctx, m.cfg.ReconnectDelay) {
			break
		}
	}

	wg.Wait()
}

// serve pumps messages from conn until it fails or ctx is cancelled. The
// heartbeat goroutine is torn down with the connection so a reconnect never
// leaves a stray timer behind.
func (m *Manager) serve(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(m.cfg.Heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(heartbeatProbe)); err != nil {
					logger.Warn(ctx, "Heartbeat write failed", "error", err)
					conn.Close()
					return
				}
				logger.Debug(ctx, "Heartbeat sent")
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn(ctx, "Stream read failed", "error", err)
			}
			conn.Close()
			return
		}
		m.handleMessage(ctx, data)
	}
}

// newsMessage is the recognized upstream article shape.
type newsMessage struct {
	SourceName    string   `json:"source_name"`
	NewsTitle     string   `json:"news_title"`
	CoinsIncluded []string `json:"coins_included"`
	URL           string   `json:"url"`
	Timestamp     int64    `json:"timestamp"`
}

// handleMessage decodes one inbound payload. Malformed payloads are logged
// and dropped; they never take the connection down.
func (m *Manager) handleMessage(ctx context.Context, data []byte) {
	text := string(data)
	if text == heartbeatAck {
		logger.Debug(ctx, "Heartbeat acknowledged")
		return
	}

	var msg newsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Warn(ctx, "Malformed stream payload discarded", "error", err, "payload", truncate(text, 200))
		return
	}

	if msg.SourceName != m.cfg.SourceMarker || msg.NewsTitle == "" {
		logger.Debug(ctx, "Unrecognized stream message discarded", "source", msg.SourceName)
		return
	}

	m.msgCount.Add(1)
	m.submit(DisplayTitle(msg.NewsTitle, msg.CoinsIncluded))
}

// DisplayTitle decorates a headline with its tag list when present.
func DisplayTitle(title string, tags []string) string {
	if len(tags) == 0 {
		return title
	}
	return "[" + strings.Join(tags, ", ") + "] " + title
}

// fallbackLoop keeps the pipeline minimally alive during extended outages by
// injecting one headline from the static pool. It never fires while
// connected.
func (m *Manager) fallbackLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.FallbackInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.State() != types.ConnDisconnected {
				continue
			}
			headline := fallbackPool[m.rng.Intn(len(fallbackPool))]
			logger.StreamEvent(ctx, "fallback_signal", "headline", headline)
			m.msgCount.Add(1)
			m.submit(headline)
		case <-ctx.Done():
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
