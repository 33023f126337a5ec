package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskflow/internal/models"
)

var taskColumns = []string{
	"id", "list_id", "title", "description", "position", "priority", "due_date",
	"progress_completed", "progress_total", "comments_count", "attachments_count",
	"links_count", "created_by", "created_at", "updated_at",
}

func prefixed(prefix string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + "." + c
	}
	return out
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	_, err := s.exec(ctx, s.sb.Insert("tasks").
		Columns(taskColumns...).
		Values(t.ID, t.ListID, t.Title, t.Description, t.Position, t.Priority, t.DueDate,
			t.ProgressCompleted, t.ProgressTotal, t.CommentsCount, t.AttachmentsCount,
			t.LinksCount, t.CreatedBy, t.CreatedAt, t.UpdatedAt))
	return err
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.get(ctx, &t, s.sb.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}), "Task not found"); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask writes every mutable field of t except its list.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	return s.execOne(ctx, s.sb.Update("tasks").SetMap(map[string]any{
		"title":              t.Title,
		"description":        t.Description,
		"position":           t.Position,
		"priority":           t.Priority,
		"due_date":           t.DueDate,
		"progress_completed": t.ProgressCompleted,
		"progress_total":     t.ProgressTotal,
		"updated_at":         t.UpdatedAt,
	}).Where(sq.Eq{"id": t.ID}), "Task not found")
}

// MoveTask sets a task's list and position in a single statement.
func (s *Store) MoveTask(ctx context.Context, taskID, listID string, position int, at time.Time) error {
	return s.execOne(ctx, s.sb.Update("tasks").
		Set("list_id", listID).
		Set("position", position).
		Set("updated_at", at).
		Where(sq.Eq{"id": taskID}), "Task not found")
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.execOne(ctx, s.sb.Delete("tasks").Where(sq.Eq{"id": id}), "Task not found")
}

// TaskPositions returns the positions currently held by a list's tasks.
func (s *Store) TaskPositions(ctx context.Context, listID string) ([]int, error) {
	var positions []int
	err := s.selectInto(ctx, &positions, s.sb.Select("position").From("tasks").Where(sq.Eq{"list_id": listID}))
	return positions, err
}

// ListTasksByBoard returns every task on a board in display order within
// each list.
func (s *Store) ListTasksByBoard(ctx context.Context, boardID string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.selectInto(ctx, &tasks, s.sb.Select(prefixed("t", taskColumns)...).
		From("tasks t").
		Join("lists l ON l.id = t.list_id").
		Where(sq.Eq{"l.board_id": boardID}).
		OrderBy("t.list_id", "t.position", "t.created_at", "t.id"))
	return tasks, err
}

// AddAssignee inserts the pair unless it already exists. added reports
// whether a row was written.
func (s *Store) AddAssignee(ctx context.Context, taskID, userID string, at time.Time) (added bool, err error) {
	n, err := s.exec(ctx, s.sb.Insert("task_assignees").
		Columns("task_id", "user_id", "assigned_at").
		Values(taskID, userID, at).
		Suffix("ON CONFLICT (task_id, user_id) DO NOTHING"))
	return n > 0, err
}

// RemoveAssignee deletes the pair if present.
func (s *Store) RemoveAssignee(ctx context.Context, taskID, userID string) error {
	_, err := s.exec(ctx, s.sb.Delete("task_assignees").Where(sq.Eq{"task_id": taskID, "user_id": userID}))
	return err
}

type assigneeRow struct {
	TaskID     string  `db:"task_id"`
	UserID     string  `db:"user_id"`
	UserName   *string `db:"user_name"`
	UserEmail  *string `db:"user_email"`
	UserAvatar *string `db:"user_avatar"`
}

// AssigneesFor returns assignees keyed by task ID, in assignment order.
func (s *Store) AssigneesFor(ctx context.Context, taskIDs []string) (map[string][]models.UserSummary, error) {
	out := make(map[string][]models.UserSummary, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	var rows []assigneeRow
	err := s.selectInto(ctx, &rows, s.sb.
		Select("a.task_id", "a.user_id", "u.name AS user_name", "u.email AS user_email", "u.avatar_url AS user_avatar").
		From("task_assignees a").
		LeftJoin("users u ON u.id = a.user_id").
		Where(sq.Eq{"a.task_id": taskIDs}).
		OrderBy("a.assigned_at", "a.user_id"))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TaskID] = append(out[r.TaskID], models.UserSummary{
			ID: r.UserID, Name: r.UserName, Email: r.UserEmail, AvatarURL: r.UserAvatar,
		})
	}
	return out, nil
}

// TaskFilter narrows SearchTasks. Empty fields are ignored.
type TaskFilter struct {
	BoardID    string
	Query      string
	Priority   models.Priority
	AssigneeID string
	Limit      int
	Offset     int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f TaskFilter) where() sq.And {
	cond := sq.And{sq.Eq{"l.board_id": f.BoardID}}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		cond = append(cond, sq.Or{
			sq.Expr(`LOWER(t.title) LIKE ? ESCAPE '\'`, like),
			sq.Expr(`LOWER(COALESCE(t.description, '')) LIKE ? ESCAPE '\'`, like),
		})
	}
	if f.Priority != "" {
		cond = append(cond, sq.Eq{"t.priority": f.Priority})
	}
	if f.AssigneeID != "" {
		cond = append(cond, sq.Expr(
			"EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = ?)", f.AssigneeID))
	}
	return cond
}

// SearchTasks returns one page of matching tasks and the total match count.
func (s *Store) SearchTasks(ctx context.Context, f TaskFilter) ([]models.Task, int, error) {
	cond := f.where()

	var total int
	if err := s.get(ctx, &total, s.sb.Select("COUNT(*)").
		From("tasks t").Join("lists l ON l.id = t.list_id").Where(cond), ""); err != nil {
		return nil, 0, err
	}

	tasks := []models.Task{}
	q := s.sb.Select(prefixed("t", taskColumns)...).
		From("tasks t").Join("lists l ON l.id = t.list_id").Where(cond).
		OrderBy("t.position", "t.created_at", "t.id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	if err := s.selectInto(ctx, &tasks, q); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
