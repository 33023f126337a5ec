package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/metrics"
	"taskflow/internal/stream"
	"taskflow/pkg/logger"
)

// Events streams a board's events as server-sent events until the client
// disconnects.
func (h *Handler) Events(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	board, err := h.svc.Authorize(ctx, c.Param("id"), uid)
	if err != nil {
		writeError(c, err, "Failed to open stream")
		return
	}
	w, ok := stream.NewSSEWriter(c.Writer)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
		return
	}
	h.runSession(ctx, "sse", &stream.Session{
		BoardID:   board.ID,
		UserID:    uid,
		Hub:       h.hub,
		Writer:    w,
		Heartbeat: h.heartbeat,
	})
}

// WebSocket streams the same frames over a websocket; heartbeats are pings.
func (h *Handler) WebSocket(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	board, err := h.svc.Authorize(ctx, c.Param("id"), uid)
	if err != nil {
		writeError(c, err, "Failed to open stream")
		return
	}
	w, wsCtx, err := h.upgrader.Upgrade(ctx, c.Writer, c.Request)
	if err != nil {
		// The upgrader has already replied.
		logger.Debug(ctx, "WebSocket upgrade failed", "error", err)
		metrics.StreamRejected.WithLabelValues("upgrade").Inc()
		return
	}
	defer w.Close()
	h.runSession(wsCtx, "ws", &stream.Session{
		BoardID:   board.ID,
		UserID:    uid,
		Hub:       h.hub,
		Writer:    w,
		Heartbeat: h.heartbeat,
	})
}

func (h *Handler) runSession(ctx context.Context, transport string, s *stream.Session) {
	conns := metrics.StreamConnections.WithLabelValues(transport)
	conns.Inc()
	defer conns.Dec()

	logger.Debug(ctx, "Stream opened", "board_id", s.BoardID, "transport", transport)
	err := s.Run(ctx)
	switch {
	case errors.Is(err, stream.ErrSlowConsumer):
		metrics.StreamRejected.WithLabelValues("slow_consumer").Inc()
		logger.Warn(ctx, "Stream dropped slow client", "board_id", s.BoardID, "transport", transport)
	case err != nil:
		logger.Debug(ctx, "Stream write failed", "error", err, "board_id", s.BoardID, "transport", transport)
	}
	logger.Debug(ctx, "Stream closed", "board_id", s.BoardID, "transport", transport)
}
