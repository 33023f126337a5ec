package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"taskflow/internal/models"
)

var userColumns = []string{"id", "email", "name", "avatar_url", "created_at", "updated_at"}

// UpsertUser inserts u or refreshes the profile fields of an existing row.
// Nil profile fields keep their stored value.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := s.exec(ctx, s.sb.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Email, u.Name, u.AvatarURL, u.CreatedAt, u.UpdatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(excluded.email, users.email),
			name = COALESCE(excluded.name, users.name),
			avatar_url = COALESCE(excluded.avatar_url, users.avatar_url),
			updated_at = excluded.updated_at`))
	return err
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.get(ctx, &u, s.sb.Select(userColumns...).From("users").Where(sq.Eq{"id": id}), "User not found")
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByEmail looks a user up by contact address, ignoring case.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.get(ctx, &u, s.sb.Select(userColumns...).From("users").
		Where(sq.Expr("LOWER(email) = LOWER(?)", email)).Limit(1), "User not found")
	if err != nil {
		return nil, err
	}
	return &u, nil
}
