package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"taskflow/internal/models"
)

func (s *Store) InsertActivity(ctx context.Context, e *models.ActivityLogEntry) error {
	_, err := s.exec(ctx, s.sb.Insert("activity_log").
		Columns("id", "board_id", "user_id", "action_type", "entity_type", "entity_id", "metadata", "created_at").
		Values(e.ID, e.BoardID, e.UserID, e.ActionType, e.EntityType, e.EntityID, e.Metadata, e.CreatedAt))
	return err
}

func (s *Store) CountActivity(ctx context.Context, boardID string) (int, error) {
	var n int
	err := s.get(ctx, &n, s.sb.Select("COUNT(*)").From("activity_log").Where(sq.Eq{"board_id": boardID}), "")
	return n, err
}

type activityRow struct {
	models.ActivityLogEntry
	UserName   *string `db:"user_name"`
	UserEmail  *string `db:"user_email"`
	UserAvatar *string `db:"user_avatar"`
}

// ListActivity returns a board's entries newest first, joined with the
// acting user where that user still exists.
func (s *Store) ListActivity(ctx context.Context, boardID string, limit, offset int) ([]models.ActivityView, error) {
	var rows []activityRow
	err := s.selectInto(ctx, &rows, s.sb.
		Select("a.id", "a.board_id", "a.user_id", "a.action_type", "a.entity_type", "a.entity_id",
			"a.metadata", "a.created_at",
			"u.name AS user_name", "u.email AS user_email", "u.avatar_url AS user_avatar").
		From("activity_log a").
		LeftJoin("users u ON u.id = a.user_id").
		Where(sq.Eq{"a.board_id": boardID}).
		OrderBy("a.created_at DESC", "a.id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)))
	if err != nil {
		return nil, err
	}
	views := make([]models.ActivityView, 0, len(rows))
	for _, r := range rows {
		v := models.ActivityView{ActivityLogEntry: r.ActivityLogEntry}
		if r.UserID != nil {
			v.User = &models.UserSummary{ID: *r.UserID, Name: r.UserName, Email: r.UserEmail, AvatarURL: r.UserAvatar}
		}
		views = append(views, v)
	}
	return views, nil
}
