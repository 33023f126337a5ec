// Package controller holds the gin handlers. Each mutating handler runs the
// service call, then records activity and broadcasts the realtime event.
// Neither side effect can fail the request.
package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/activity"
	"taskflow/internal/apperr"
	"taskflow/internal/middleware"
	"taskflow/internal/realtime"
	"taskflow/internal/service"
	"taskflow/internal/stream"
	"taskflow/pkg/logger"
)

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler serves the board API.
type Handler struct {
	svc       *service.Service
	activity  *activity.Recorder
	events    realtime.Broadcaster
	hub       stream.Subscriber
	heartbeat time.Duration
	upgrader  *stream.Upgrader
	checks    []Check
}

// Options configures the streaming endpoints and readiness probes.
type Options struct {
	Heartbeat time.Duration
	// AllowedOrigins lists browser origins that may open a websocket. Empty
	// means same host only; "*" allows any.
	AllowedOrigins []string
	Checks         []Check
}

// New wires the handlers. events receives every broadcast; hub is where
// streaming connections subscribe, which is the local hub even when events
// go through a relay.
func New(svc *service.Service, rec *activity.Recorder, events realtime.Broadcaster, hub stream.Subscriber, opts Options) *Handler {
	return &Handler{
		svc:       svc,
		activity:  rec,
		events:    events,
		hub:       hub,
		heartbeat: opts.Heartbeat,
		upgrader:  stream.NewUpgrader(opts.AllowedOrigins, opts.Heartbeat),
		checks:    opts.Checks,
	}
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindUnauthorized:     http.StatusUnauthorized,
	apperr.KindAccessDenied:     http.StatusForbidden,
	apperr.KindPermissionDenied: http.StatusForbidden,
	apperr.KindNotFound:         http.StatusNotFound,
	apperr.KindConflict:         http.StatusConflict,
	apperr.KindValidation:       http.StatusBadRequest,
}

// writeError translates err to a status and a stable message. Internal
// causes are logged and never sent.
func writeError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()
	if isContextErr(err) && ctx.Err() != nil {
		c.Abort()
		return
	}
	status, ok := statusByKind[apperr.KindOf(err)]
	if !ok {
		logger.Error(ctx, fallback, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err, fallback)})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// bind decodes the JSON body into dst. An empty body leaves dst untouched so
// the service can report which fields are missing.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

// caller returns the verified user or writes 401.
func caller(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return uid, true
}

func queryInt(c *gin.Context, key string, def int) int {
	if n, err := strconv.Atoi(c.Query(key)); err == nil {
		return n
	}
	return def
}

// record logs an activity entry. Failures stay inside the recorder. The
// mutation is already committed, so a client that hangs up must not cancel it.
func (h *Handler) record(ctx context.Context, e activity.Entry) {
	if h.activity == nil {
		return
	}
	h.activity.Log(context.WithoutCancel(ctx), e)
}

// publish broadcasts p to the board's subscribers.
func (h *Handler) publish(ctx context.Context, boardID, userID string, p realtime.Payload) {
	if h.events == nil {
		return
	}
	h.events.Broadcast(context.WithoutCancel(ctx), realtime.NewEvent(boardID, userID, p))
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health returns 200 if the process is alive. Used by load balancers.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if every dependency answers. Used by readiness probes.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			logger.Warn(ctx, "Readiness check failed", "check", check.Name, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": check.Name + " unavailable"})
			return
		}
	}
	c.String(http.StatusOK, "OK")
}
