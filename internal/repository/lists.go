package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskflow/internal/models"
)

var listColumns = []string{"id", "board_id", "title", "position", "created_at", "updated_at"}

func (s *Store) CreateList(ctx context.Context, l *models.List) error {
	_, err := s.exec(ctx, s.sb.Insert("lists").
		Columns(listColumns...).
		Values(l.ID, l.BoardID, l.Title, l.Position, l.CreatedAt, l.UpdatedAt))
	return err
}

func (s *Store) GetList(ctx context.Context, id string) (*models.List, error) {
	var l models.List
	if err := s.get(ctx, &l, s.sb.Select(listColumns...).From("lists").Where(sq.Eq{"id": id}), "List not found"); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) UpdateList(ctx context.Context, l *models.List) error {
	return s.execOne(ctx, s.sb.Update("lists").
		Set("title", l.Title).
		Set("position", l.Position).
		Set("updated_at", l.UpdatedAt).
		Where(sq.Eq{"id": l.ID}), "List not found")
}

// DeleteList removes the list and, by cascade, its tasks.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	return s.execOne(ctx, s.sb.Delete("lists").Where(sq.Eq{"id": id}), "List not found")
}

// ListLists returns a board's lists in display order.
func (s *Store) ListLists(ctx context.Context, boardID string) ([]models.List, error) {
	lists := []models.List{}
	err := s.selectInto(ctx, &lists, s.sb.Select(listColumns...).From("lists").
		Where(sq.Eq{"board_id": boardID}).
		OrderBy("position", "created_at", "id"))
	return lists, err
}

// ListPositions returns the positions currently held by a board's lists.
func (s *Store) ListPositions(ctx context.Context, boardID string) ([]int, error) {
	var positions []int
	err := s.selectInto(ctx, &positions, s.sb.Select("position").From("lists").Where(sq.Eq{"board_id": boardID}))
	return positions, err
}

// SetListPosition repositions a list, scoped to its board.
func (s *Store) SetListPosition(ctx context.Context, boardID, listID string, position int, at time.Time) error {
	return s.execOne(ctx, s.sb.Update("lists").
		Set("position", position).
		Set("updated_at", at).
		Where(sq.Eq{"id": listID, "board_id": boardID}), "List not found")
}
