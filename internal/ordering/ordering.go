// Package ordering assigns display positions to lists within a board and to
// tasks within a list.
//
// Positions are advisory: nothing renumbers siblings, so collections may hold
// gaps or duplicates. Readers sort by position, then creation time, then ID.
package ordering

import (
	"cmp"
	"context"
	"slices"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// NextPosition returns 0 for an empty collection, otherwise max+1.
func NextPosition(positions []int) int {
	if len(positions) == 0 {
		return 0
	}
	return slices.Max(positions) + 1
}

func compareOrder(ap, bp int, at, bt time.Time, aid, bid string) int {
	if c := cmp.Compare(ap, bp); c != 0 {
		return c
	}
	if c := at.Compare(bt); c != 0 {
		return c
	}
	return cmp.Compare(aid, bid)
}

// SortLists orders lists for display in place.
func SortLists(lists []models.List) {
	slices.SortStableFunc(lists, func(a, b models.List) int {
		return compareOrder(a.Position, b.Position, a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

// SortTasks orders tasks for display in place.
func SortTasks(tasks []models.TaskWithRelations) {
	slices.SortStableFunc(tasks, func(a, b models.TaskWithRelations) int {
		return compareOrder(a.Position, b.Position, a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

// Store is the persistence the manager reads positions from and writes moves to.
type Store interface {
	ListPositions(ctx context.Context, boardID string) ([]int, error)
	TaskPositions(ctx context.Context, listID string) ([]int, error)
	GetList(ctx context.Context, id string) (*models.List, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	MoveTask(ctx context.Context, taskID, listID string, position int, at time.Time) error
}

// Manager computes positions against the current persisted sibling set.
type Manager struct {
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// NextListPosition is the position a new list on boardID gets by default.
func (m *Manager) NextListPosition(ctx context.Context, boardID string) (int, error) {
	positions, err := m.store.ListPositions(ctx, boardID)
	if err != nil {
		return 0, err
	}
	return NextPosition(positions), nil
}

// NextTaskPosition is the position a new task in listID gets by default.
func (m *Manager) NextTaskPosition(ctx context.Context, listID string) (int, error) {
	positions, err := m.store.TaskPositions(ctx, listID)
	if err != nil {
		return 0, err
	}
	return NextPosition(positions), nil
}

// Move describes a task relocation. FromList and FromPosition are read before
// the write.
type Move struct {
	Task         *models.Task
	FromList     *models.List
	ToList       *models.List
	FromPosition int
	ToPosition   int
	NoOp         bool
}

// MoveTask puts a task into targetListID at position, or at the end of the
// target list when position is nil. The target list must exist on the same
// board as the task; otherwise NotFound is returned and nothing is written.
// Moving to the current list and position is a no-op.
func (m *Manager) MoveTask(ctx context.Context, taskID, targetListID string, position *int) (*Move, error) {
	task, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	from, err := m.store.GetList(ctx, task.ListID)
	if err != nil {
		return nil, err
	}
	to, err := m.store.GetList(ctx, targetListID)
	if err != nil {
		return nil, err
	}
	if to.BoardID != from.BoardID {
		return nil, apperr.NotFound("List not found")
	}

	var pos int
	switch {
	case position == nil:
		if pos, err = m.NextTaskPosition(ctx, to.ID); err != nil {
			return nil, err
		}
	case *position < 0:
		return nil, apperr.Validation("position must be at least 0")
	default:
		pos = *position
	}

	mv := &Move{Task: task, FromList: from, ToList: to, FromPosition: task.Position, ToPosition: pos}
	if from.ID == to.ID && task.Position == pos {
		mv.NoOp = true
		return mv, nil
	}

	at := m.now()
	if err := m.store.MoveTask(ctx, task.ID, to.ID, pos, at); err != nil {
		return nil, err
	}
	moved := *task
	moved.ListID = to.ID
	moved.Position = pos
	moved.UpdatedAt = at
	mv.Task = &moved
	return mv, nil
}
