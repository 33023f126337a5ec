package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"taskflow/internal/models"
)

var boardColumns = []string{"id", "title", "description", "owner_id", "created_at", "updated_at"}

func (s *Store) CreateBoard(ctx context.Context, b *models.Board) error {
	_, err := s.exec(ctx, s.sb.Insert("boards").
		Columns(boardColumns...).
		Values(b.ID, b.Title, b.Description, b.OwnerID, b.CreatedAt, b.UpdatedAt))
	return err
}

func (s *Store) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	var b models.Board
	if err := s.get(ctx, &b, s.sb.Select(boardColumns...).From("boards").Where(sq.Eq{"id": id}), "Board not found"); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) UpdateBoard(ctx context.Context, b *models.Board) error {
	return s.execOne(ctx, s.sb.Update("boards").
		Set("title", b.Title).
		Set("description", b.Description).
		Set("updated_at", b.UpdatedAt).
		Where(sq.Eq{"id": b.ID}), "Board not found")
}

// DeleteBoard removes the board; memberships, lists, tasks, labels and
// activity go with it through ON DELETE CASCADE.
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	return s.execOne(ctx, s.sb.Delete("boards").Where(sq.Eq{"id": id}), "Board not found")
}

// ListBoardsForUser returns boards the user owns or is a member of, newest first.
func (s *Store) ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error) {
	boards := []models.Board{}
	err := s.selectInto(ctx, &boards, s.sb.Select(boardColumns...).From("boards").
		Where(sq.Or{
			sq.Eq{"owner_id": userID},
			sq.Expr("id IN (SELECT board_id FROM board_members WHERE user_id = ?)", userID),
		}).
		OrderBy("created_at DESC", "id"))
	return boards, err
}
