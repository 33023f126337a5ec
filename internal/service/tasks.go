package service

import (
	"context"
	"strings"
	"time"

	"taskflow/internal/activity"
	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/ordering"
	"taskflow/internal/repository"
	"taskflow/internal/validation"
)

// TaskChange is a task after a mutation, with the list it now lives in.
type TaskChange struct {
	Task    *models.TaskWithRelations
	List    *models.List
	Changes map[string]any
}

// BoardID is the board the task belongs to.
func (c *TaskChange) BoardID() string { return c.List.BoardID }

// TaskMove is the outcome of MoveTask, including what the task was before.
type TaskMove struct {
	*ordering.Move
	Hydrated *models.TaskWithRelations
}

func (s *Service) GetTask(ctx context.Context, taskID, userID string) (*models.TaskWithRelations, error) {
	task, _, err := s.authorizeTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrateOne(ctx, task)
}

// CreateTask appends a task to its list unless a position is given.
func (s *Service) CreateTask(ctx context.Context, userID string, in CreateTaskInput) (*TaskChange, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	list, _, err := s.authorizeList(ctx, in.ListID, userID)
	if err != nil {
		return nil, err
	}
	var pos int
	if in.Position != nil {
		pos = *in.Position
	} else if pos, err = s.ordering.NextTaskPosition(ctx, list.ID); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNone
	}
	now := s.now()
	task := &models.Task{
		ID:          newID(),
		ListID:      list.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Position:    pos,
		Priority:    priority,
		DueDate:     utc(in.DueDate),
		CreatedBy:   &userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	s.invalidate(ctx, list.BoardID)
	return &TaskChange{
		Task: &models.TaskWithRelations{Task: *task, Assignees: []models.UserSummary{}, Labels: []models.Label{}},
		List: list,
	}, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// UpdateTask applies the provided fields. Changes lists what was set.
func (s *Service) UpdateTask(ctx context.Context, taskID, userID string, in UpdateTaskInput) (*TaskChange, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	task, list, err := s.authorizeTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title is required")
		}
		task.Title = title
		changes["title"] = title
	}
	if in.Description != nil {
		task.Description = in.Description
		changes["description"] = *in.Description
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
		changes["priority"] = string(*in.Priority)
	}
	if in.DueDate != nil {
		task.DueDate = utc(in.DueDate)
		changes["dueDate"] = task.DueDate.Format(time.RFC3339)
	}
	if in.Position != nil {
		task.Position = *in.Position
		changes["position"] = *in.Position
	}
	if in.ProgressCompleted != nil {
		task.ProgressCompleted = *in.ProgressCompleted
		changes["progressCompleted"] = *in.ProgressCompleted
	}
	if in.ProgressTotal != nil {
		task.ProgressTotal = *in.ProgressTotal
		changes["progressTotal"] = *in.ProgressTotal
	}
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	s.invalidate(ctx, list.BoardID)
	hydrated, err := s.hydrateOne(ctx, task)
	if err != nil {
		return nil, err
	}
	return &TaskChange{Task: hydrated, List: list, Changes: changes}, nil
}

// DeleteTask removes a task and returns it as it was.
func (s *Service) DeleteTask(ctx context.Context, taskID, userID string) (*TaskChange, error) {
	task, list, err := s.authorizeTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTask(ctx, task.ID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, list.BoardID)
	return &TaskChange{Task: &models.TaskWithRelations{Task: *task}, List: list}, nil
}

// MoveTask relocates a task within its board. The prior list is read before
// the write so callers can describe where the task came from.
func (s *Service) MoveTask(ctx context.Context, taskID, userID string, in MoveTaskInput) (*TaskMove, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if _, _, err := s.authorizeTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	var mv *ordering.Move
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		mv, err = ordering.NewManager(tx).MoveTask(ctx, taskID, in.ListID, in.Position)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !mv.NoOp {
		s.invalidate(ctx, mv.ToList.BoardID)
	}
	hydrated, err := s.hydrateOne(ctx, mv.Task)
	if err != nil {
		return nil, err
	}
	return &TaskMove{Move: mv, Hydrated: hydrated}, nil
}

// MoveMetadata describes the move for the activity log.
func (m *TaskMove) MoveMetadata() models.Metadata {
	return activity.Moved(m.Task.Title, m.FromList.Title, m.ToList.Title, m.FromPosition, m.ToPosition)
}

// AssignUser adds assigneeID to the task. The assignee must have access to the
// board. Assigning twice is not an error.
func (s *Service) AssignUser(ctx context.Context, taskID, userID string, in AssignInput) (*TaskChange, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	task, list, err := s.authorizeTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	board, err := s.store.GetBoard(ctx, list.BoardID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccess(ctx, board, in.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("Assignee must be a member of the board")
	}
	if _, err := s.store.AddAssignee(ctx, task.ID, in.UserID, s.now()); err != nil {
		return nil, err
	}
	s.invalidate(ctx, list.BoardID)
	hydrated, err := s.hydrateOne(ctx, task)
	if err != nil {
		return nil, err
	}
	return &TaskChange{Task: hydrated, List: list}, nil
}

// UnassignUser removes assigneeID from the task; absent assignments are ignored.
func (s *Service) UnassignUser(ctx context.Context, taskID, userID string, in AssignInput) (*TaskChange, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	task, list, err := s.authorizeTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveAssignee(ctx, task.ID, in.UserID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, list.BoardID)
	hydrated, err := s.hydrateOne(ctx, task)
	if err != nil {
		return nil, err
	}
	return &TaskChange{Task: hydrated, List: list}, nil
}

// SearchTasks matches query against title and description, case-insensitively.
func (s *Service) SearchTasks(ctx context.Context, boardID, userID string, in SearchInput) (*models.TaskSearchPage, error) {
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	filter := repository.TaskFilter{
		BoardID:    board.ID,
		Query:      in.Query,
		AssigneeID: in.AssigneeID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if p := models.Priority(in.Priority); p != "" && p != "all" {
		if !p.Valid() {
			return nil, apperr.Validation("priority is invalid")
		}
		filter.Priority = p
	}
	tasks, total, err := s.store.SearchTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.TaskSearchPage{
		Tasks:      tasks,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: activity.TotalPages(total, limit),
	}, nil
}
