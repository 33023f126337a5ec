package models

import "time"

// User is an identity known to the system, keyed by the identity provider's subject.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     *string   `db:"email" json:"email"`
	Name      *string   `db:"name" json:"name"`
	AvatarURL *string   `db:"avatar_url" json:"avatarUrl"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the display identity attached to members, assignees and
// activity entries. Fields are nil when the user row is missing.
type UserSummary struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatarUrl"`
}

// Summary returns the display identity of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
}
