// Package service is the authoritative mutation layer for boards, lists,
// tasks, labels and memberships. Every operation checks board access here so
// the rule holds for every entry point.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/ordering"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

// BoardCache caches board detail graphs.
type BoardCache interface {
	Load(ctx context.Context, boardID string, load func(context.Context) (*models.BoardWithDetails, error)) (*models.BoardWithDetails, error)
	Invalidate(ctx context.Context, boardID string)
}

type noCache struct{}

func (noCache) Load(ctx context.Context, _ string, load func(context.Context) (*models.BoardWithDetails, error)) (*models.BoardWithDetails, error) {
	return load(ctx)
}

func (noCache) Invalidate(context.Context, string) {}

type Service struct {
	store    *repository.Store
	ordering *ordering.Manager
	cache    BoardCache
	now      func() time.Time
	maxLimit int
}

// New builds the service. cache may be nil.
func New(store *repository.Store, cache BoardCache, maxPageLimit int) *Service {
	if cache == nil {
		cache = noCache{}
	}
	if maxPageLimit <= 0 {
		maxPageLimit = 100
	}
	return &Service{
		store:    store,
		ordering: ordering.NewManager(store),
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
		maxLimit: maxPageLimit,
	}
}

func newID() string { return uuid.NewString() }

// EnsureUser creates or refreshes the caller's user row. When another account
// already holds the address the profile is saved without it: the caller keeps
// working and invites still resolve to the existing holder.
func (s *Service) EnsureUser(ctx context.Context, u *models.User) error {
	err := s.store.UpsertUser(ctx, u)
	if u.Email == nil || apperr.KindOf(err) != apperr.KindConflict {
		return err
	}
	logger.Warn(ctx, "User email belongs to another account, saving profile without it", "user_id", u.ID)
	withoutEmail := *u
	withoutEmail.Email = nil
	return s.store.UpsertUser(ctx, &withoutEmail)
}

// CanAccess reports whether userID owns boardID or holds any membership on it.
func (s *Service) CanAccess(ctx context.Context, board *models.Board, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if board.OwnerID == userID {
		return true, nil
	}
	return s.store.IsMember(ctx, board.ID, userID)
}

// Authorize loads the board and checks the caller's access to it.
func (s *Service) Authorize(ctx context.Context, boardID, userID string) (*models.Board, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccess(ctx, board, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.AccessDenied()
	}
	return board, nil
}

// authorizeList resolves a list and checks access to its board.
func (s *Service) authorizeList(ctx context.Context, listID, userID string) (*models.List, *models.Board, error) {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, nil, err
	}
	board, err := s.Authorize(ctx, list.BoardID, userID)
	if err != nil {
		return nil, nil, err
	}
	return list, board, nil
}

// authorizeTask resolves a task with its list and checks access to the board.
func (s *Service) authorizeTask(ctx context.Context, taskID, userID string) (*models.Task, *models.List, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	list, _, err := s.authorizeList(ctx, task.ListID, userID)
	if err != nil {
		return nil, nil, err
	}
	return task, list, nil
}

func (s *Service) invalidate(ctx context.Context, boardID string) {
	s.cache.Invalidate(ctx, boardID)
}

// hydrate attaches assignees and labels to tasks.
func (s *Service) hydrate(ctx context.Context, tasks []models.Task) ([]models.TaskWithRelations, error) {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	assignees, err := s.store.AssigneesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	labels, err := s.store.LabelsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.TaskWithRelations, len(tasks))
	for i, t := range tasks {
		out[i] = models.TaskWithRelations{
			Task:      t,
			Assignees: nonNil(assignees[t.ID]),
			Labels:    nonNil(labels[t.ID]),
		}
	}
	return out, nil
}

func (s *Service) hydrateOne(ctx context.Context, task *models.Task) (*models.TaskWithRelations, error) {
	out, err := s.hydrate(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// isNotFound tolerates a missing optional row.
func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
