package models

import "time"

// Role is a board membership role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Board is the top-level collaborative workspace.
type Board struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	OwnerID     string    `db:"owner_id" json:"ownerId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// BoardMember grants a user access to a board.
type BoardMember struct {
	BoardID  string    `db:"board_id" json:"boardId"`
	UserID   string    `db:"user_id" json:"userId"`
	Role     Role      `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// MemberWithUser is a membership hydrated with the member's display identity.
type MemberWithUser struct {
	BoardMember
	User UserSummary `json:"user"`
}

// BoardWithDetails is the full board graph served to clients.
type BoardWithDetails struct {
	Board
	Lists   []ListWithTasks  `json:"lists"`
	Members []MemberWithUser `json:"members"`
	Owner   *User            `json:"owner"`
}
