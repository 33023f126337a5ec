// Package activity appends the board audit trail and serves it back in pages.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/metrics"
	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

// Store persists entries and reads them back newest first.
type Store interface {
	InsertActivity(ctx context.Context, e *models.ActivityLogEntry) error
	ListActivity(ctx context.Context, boardID string, limit, offset int) ([]models.ActivityView, error)
	CountActivity(ctx context.Context, boardID string) (int, error)
}

// Publisher hands entries to an asynchronous writer such as a queue.
type Publisher interface {
	PublishActivity(ctx context.Context, e *models.ActivityLogEntry) error
}

// Recorder writes activity entries on a best-effort basis: failures are
// logged and counted but never returned to the mutation that caused them.
type Recorder struct {
	store        Store
	pub          Publisher
	now          func() time.Time
	defaultLimit int
	maxLimit     int
}

// NewRecorder returns a Recorder. pub may be nil, in which case entries are
// inserted directly.
func NewRecorder(store Store, pub Publisher, defaultLimit, maxLimit int) *Recorder {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Recorder{
		store:        store,
		pub:          pub,
		now:          func() time.Time { return time.Now().UTC() },
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Entry describes one mutation to record.
type Entry struct {
	BoardID  string
	UserID   string
	Action   models.ActionType
	Entity   models.EntityType
	EntityID string
	Metadata models.Metadata
}

func (r *Recorder) build(e Entry) *models.ActivityLogEntry {
	out := &models.ActivityLogEntry{
		ID:         uuid.NewString(),
		ActionType: e.Action,
		EntityType: e.Entity,
		Metadata:   e.Metadata,
		CreatedAt:  r.now(),
	}
	if e.BoardID != "" {
		out.BoardID = &e.BoardID
	}
	if e.UserID != "" {
		out.UserID = &e.UserID
	}
	if e.EntityID != "" {
		out.EntityID = &e.EntityID
	}
	return out
}

// Log records e. When a publisher is configured the entry is queued, and a
// failed publish falls back to a direct insert.
func (r *Recorder) Log(ctx context.Context, e Entry) {
	entry := r.build(e)
	if r.pub != nil {
		err := r.pub.PublishActivity(ctx, entry)
		if err == nil {
			return
		}
		metrics.ActivityFailures.WithLabelValues("publish").Inc()
		logger.Warn(ctx, "Activity publish failed, writing directly",
			"error", err, "board_id", e.BoardID, "action", e.Action, "entity", e.Entity)
	}
	if err := r.store.InsertActivity(ctx, entry); err != nil {
		metrics.ActivityFailures.WithLabelValues("insert").Inc()
		logger.Error(ctx, "Activity log failed",
			"error", err, "board_id", e.BoardID, "action", e.Action, "entity", e.Entity)
	}
}

// Persist writes an already-built entry. Used by the queue consumer.
func (r *Recorder) Persist(ctx context.Context, e *models.ActivityLogEntry) error {
	return r.store.InsertActivity(ctx, e)
}

// List returns page (1-based) of a board's activity. Out-of-range page and
// limit values are clamped.
func (r *Recorder) List(ctx context.Context, boardID string, page, limit int) (*models.ActivityPage, error) {
	page, limit = r.normalize(page, limit)
	total, err := r.store.CountActivity(ctx, boardID)
	if err != nil {
		return nil, err
	}
	views, err := r.store.ListActivity(ctx, boardID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &models.ActivityPage{
		Activities: views,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(total, limit),
	}, nil
}

func (r *Recorder) normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = r.defaultLimit
	}
	if limit > r.maxLimit {
		limit = r.maxLimit
	}
	return page, limit
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
