package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"taskflow/internal/models"
)

var labelColumns = []string{"id", "board_id", "name", "color", "created_at"}

func (s *Store) CreateLabel(ctx context.Context, l *models.Label) error {
	_, err := s.exec(ctx, s.sb.Insert("labels").
		Columns(labelColumns...).
		Values(l.ID, l.BoardID, l.Name, l.Color, l.CreatedAt))
	return err
}

func (s *Store) GetLabel(ctx context.Context, id string) (*models.Label, error) {
	var l models.Label
	if err := s.get(ctx, &l, s.sb.Select(labelColumns...).From("labels").Where(sq.Eq{"id": id}), "Label not found"); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) ListLabels(ctx context.Context, boardID string) ([]models.Label, error) {
	labels := []models.Label{}
	err := s.selectInto(ctx, &labels, s.sb.Select(labelColumns...).From("labels").
		Where(sq.Eq{"board_id": boardID}).OrderBy("created_at", "id"))
	return labels, err
}

// AttachLabel links a label to a task unless already linked.
func (s *Store) AttachLabel(ctx context.Context, taskID, labelID string) (added bool, err error) {
	n, err := s.exec(ctx, s.sb.Insert("task_labels").
		Columns("task_id", "label_id").
		Values(taskID, labelID).
		Suffix("ON CONFLICT (task_id, label_id) DO NOTHING"))
	return n > 0, err
}

func (s *Store) DetachLabel(ctx context.Context, taskID, labelID string) error {
	_, err := s.exec(ctx, s.sb.Delete("task_labels").Where(sq.Eq{"task_id": taskID, "label_id": labelID}))
	return err
}

type taskLabelRow struct {
	TaskID string `db:"task_id"`
	models.Label
}

// LabelsFor returns labels keyed by task ID.
func (s *Store) LabelsFor(ctx context.Context, taskIDs []string) (map[string][]models.Label, error) {
	out := make(map[string][]models.Label, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	var rows []taskLabelRow
	err := s.selectInto(ctx, &rows, s.sb.
		Select("tl.task_id", "l.id", "l.board_id", "l.name", "l.color", "l.created_at").
		From("task_labels tl").
		Join("labels l ON l.id = tl.label_id").
		Where(sq.Eq{"tl.task_id": taskIDs}).
		OrderBy("l.created_at", "l.id"))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TaskID] = append(out[r.TaskID], r.Label)
	}
	return out, nil
}
