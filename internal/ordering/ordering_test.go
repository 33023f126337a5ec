package ordering

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

type memStore struct {
	lists map[string]*models.List
	tasks map[string]*models.Task
	moves int
}

func newMemStore() *memStore {
	return &memStore{lists: map[string]*models.List{}, tasks: map[string]*models.Task{}}
}

func (s *memStore) ListPositions(_ context.Context, boardID string) ([]int, error) {
	var out []int
	for _, l := range s.lists {
		if l.BoardID == boardID {
			out = append(out, l.Position)
		}
	}
	return out, nil
}

func (s *memStore) TaskPositions(_ context.Context, listID string) ([]int, error) {
	var out []int
	for _, t := range s.tasks {
		if t.ListID == listID {
			out = append(out, t.Position)
		}
	}
	return out, nil
}

func (s *memStore) GetList(_ context.Context, id string) (*models.List, error) {
	if l, ok := s.lists[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, apperr.NotFound("List not found")
}

func (s *memStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	if t, ok := s.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, apperr.NotFound("Task not found")
}

func (s *memStore) MoveTask(_ context.Context, taskID, listID string, position int, at time.Time) error {
	s.moves++
	t := s.tasks[taskID]
	t.ListID, t.Position, t.UpdatedAt = listID, position, at
	return nil
}

func intPtr(n int) *int { return &n }

func TestNextPosition(t *testing.T) {
	assert.Equal(t, 0, NextPosition(nil))
	assert.Equal(t, 8, NextPosition([]int{3, 7, 0, 7}))

	positions := []int{}
	for i := 0; i < 5; i++ {
		next := NextPosition(positions)
		if i > 0 {
			assert.Greater(t, next, positions[len(positions)-1])
		}
		positions = append(positions, next)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, positions)
}

func TestSortTasksBreaksTies(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []models.TaskWithRelations{
		{Task: models.Task{ID: "c", Position: 1, CreatedAt: base}},
		{Task: models.Task{ID: "b", Position: 0, CreatedAt: base.Add(time.Second)}},
		{Task: models.Task{ID: "a", Position: 0, CreatedAt: base.Add(time.Second)}},
		{Task: models.Task{ID: "d", Position: 0, CreatedAt: base}},
	}
	SortTasks(tasks)
	ids := []string{}
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}

func TestMoveTask(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.lists["todo"] = &models.List{ID: "todo", BoardID: "b1", Title: "Todo"}
	s.lists["doing"] = &models.List{ID: "doing", BoardID: "b1", Title: "Doing", Position: 1}
	s.lists["elsewhere"] = &models.List{ID: "elsewhere", BoardID: "b2"}
	s.tasks["t1"] = &models.Task{ID: "t1", ListID: "todo", Position: 0}
	s.tasks["t2"] = &models.Task{ID: "t2", ListID: "doing", Position: 4}
	m := NewManager(s)

	mv, err := m.MoveTask(ctx, "t1", "doing", intPtr(0))
	require.NoError(t, err)
	assert.False(t, mv.NoOp)
	assert.Equal(t, "Todo", mv.FromList.Title)
	assert.Equal(t, "Doing", mv.ToList.Title)
	assert.Equal(t, "doing", mv.Task.ListID)
	assert.Equal(t, "doing", s.tasks["t1"].ListID)
	assert.Equal(t, 4, s.tasks["t2"].Position, "siblings are not renumbered")

	mv, err = m.MoveTask(ctx, "t1", "doing", intPtr(0))
	require.NoError(t, err)
	assert.True(t, mv.NoOp)
	assert.Equal(t, 1, s.moves)

	mv, err = m.MoveTask(ctx, "t1", "todo", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, mv.ToPosition)
	assert.Equal(t, 0, mv.FromPosition)
	assert.Equal(t, "Doing", mv.FromList.Title)
}

func TestMoveTaskRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.lists["todo"] = &models.List{ID: "todo", BoardID: "b1"}
	s.lists["elsewhere"] = &models.List{ID: "elsewhere", BoardID: "b2"}
	s.tasks["t1"] = &models.Task{ID: "t1", ListID: "todo"}
	m := NewManager(s)

	_, err := m.MoveTask(ctx, "t1", "missing", intPtr(0))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = m.MoveTask(ctx, "t1", "elsewhere", intPtr(0))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = m.MoveTask(ctx, "t1", "todo", intPtr(-1))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = m.MoveTask(ctx, "nope", "todo", intPtr(0))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.Zero(t, s.moves)
	assert.Equal(t, "todo", s.tasks["t1"].ListID)
}
