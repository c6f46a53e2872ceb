// Package server exposes the pipeline state over a small JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"sentiment-pulse/internal/engine"
	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/types"

	"github.com/gin-gonic/gin"
)

// Server serves read-only snapshots and the timeframe control endpoint.
type Server struct {
	engine *engine.Engine
	http   *http.Server
}

func New(addr string, eng *engine.Engine) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{engine: eng}
	s.registerRoutes(router)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/feed", s.handleFeed)
		api.GET("/index", s.handleIndex)
		api.GET("/candles", s.handleCandles)
		api.POST("/timeframe", s.handleSetTimeframe)
	}
}

// Start serves until Shutdown is called. Blocks.
func (s *Server) Start() error {
	logger.Info(context.Background(), "API server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStatus returns the full pipeline snapshot minus the feed and candle
// bodies.
func (s *Server) handleStatus(c *gin.Context) {
	snap := s.engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"index":         snap.Index,
		"timeframe":     snap.Timeframe,
		"feed_length":   len(snap.Feed),
		"pending_count": snap.PendingCount,
		"queue_status":  snap.QueueStatus,
		"connection":    snap.Connection,
		"message_count": snap.MessageCount,
	})
}

func (s *Server) handleFeed(c *gin.Context) {
	snap := s.engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{"feed": snap.Feed})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"index": s.engine.Index()})
}

func (s *Server) handleCandles(c *gin.Context) {
	snap := s.engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"timeframe": snap.Timeframe,
		"candles":   snap.Candles,
	})
}

type timeframeRequest struct {
	Timeframe string `json:"timeframe" binding:"required"`
}

// handleSetTimeframe switches the candle series to a new bucket width. The
// series is regenerated, not migrated.
func (s *Server) handleSetTimeframe(c *gin.Context) {
	var req timeframeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe is required"})
		return
	}
	if err := s.engine.SetTimeframe(types.Timeframe(req.Timeframe)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap := s.engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"timeframe": snap.Timeframe,
		"candles":   snap.Candles,
	})
}
