package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"taskflow/internal/models"
)

func (s *Store) AddMember(ctx context.Context, m *models.BoardMember) error {
	_, err := s.exec(ctx, s.sb.Insert("board_members").
		Columns("board_id", "user_id", "role", "joined_at").
		Values(m.BoardID, m.UserID, m.Role, m.JoinedAt))
	return err
}

func (s *Store) GetMember(ctx context.Context, boardID, userID string) (*models.BoardMember, error) {
	var m models.BoardMember
	err := s.get(ctx, &m, s.sb.Select("board_id", "user_id", "role", "joined_at").From("board_members").
		Where(sq.Eq{"board_id": boardID, "user_id": userID}), "Member not found")
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// IsMember reports whether any membership row exists for (board, user).
func (s *Store) IsMember(ctx context.Context, boardID, userID string) (bool, error) {
	var n int
	err := s.get(ctx, &n, s.sb.Select("COUNT(*)").From("board_members").
		Where(sq.Eq{"board_id": boardID, "user_id": userID}), "")
	return n > 0, err
}

func (s *Store) RemoveMember(ctx context.Context, boardID, userID string) error {
	return s.execOne(ctx, s.sb.Delete("board_members").
		Where(sq.Eq{"board_id": boardID, "user_id": userID}), "Member not found")
}

type memberRow struct {
	models.BoardMember
	UserName   *string `db:"user_name"`
	UserEmail  *string `db:"user_email"`
	UserAvatar *string `db:"user_avatar"`
}

// ListMembers returns the board's memberships joined with user profiles.
func (s *Store) ListMembers(ctx context.Context, boardID string) ([]models.MemberWithUser, error) {
	var rows []memberRow
	err := s.selectInto(ctx, &rows, s.sb.
		Select("m.board_id", "m.user_id", "m.role", "m.joined_at",
			"u.name AS user_name", "u.email AS user_email", "u.avatar_url AS user_avatar").
		From("board_members m").
		LeftJoin("users u ON u.id = m.user_id").
		Where(sq.Eq{"m.board_id": boardID}).
		OrderBy("m.joined_at", "m.user_id"))
	if err != nil {
		return nil, err
	}
	members := make([]models.MemberWithUser, 0, len(rows))
	for _, r := range rows {
		members = append(members, models.MemberWithUser{
			BoardMember: r.BoardMember,
			User: models.UserSummary{
				ID:        r.UserID,
				Name:      r.UserName,
				Email:     r.UserEmail,
				AvatarURL: r.UserAvatar,
			},
		})
	}
	return members, nil
}
