package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ActionType of an activity entry.
type ActionType string

const (
	ActionCreated ActionType = "created"
	ActionUpdated ActionType = "updated"
	ActionDeleted ActionType = "deleted"
	ActionMoved   ActionType = "moved"
	ActionAdded   ActionType = "added"
)

// EntityType of an activity entry.
type EntityType string

const (
	EntityTask   EntityType = "task"
	EntityList   EntityType = "list"
	EntityBoard  EntityType = "board"
	EntityMember EntityType = "member"
)

// Metadata is the free-form payload of an activity entry, stored as JSON.
type Metadata map[string]any

// Value implements driver.Valuer. The JSON is sent as text so it lands in
// both jsonb and text columns.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
	if len(b) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(b, m)
}

// ActivityLogEntry is one immutable record of a mutation.
type ActivityLogEntry struct {
	ID         string     `db:"id" json:"id"`
	BoardID    *string    `db:"board_id" json:"boardId"`
	UserID     *string    `db:"user_id" json:"userId"`
	ActionType ActionType `db:"action_type" json:"actionType"`
	EntityType EntityType `db:"entity_type" json:"entityType"`
	EntityID   *string    `db:"entity_id" json:"entityId"`
	Metadata   Metadata   `db:"metadata" json:"metadata"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// ActivityView is an activity entry joined with the acting user.
type ActivityView struct {
	ActivityLogEntry
	User *UserSummary `json:"user"`
}

// ActivityPage is one page of a board's activity, newest first.
type ActivityPage struct {
	Activities []ActivityView `json:"activities"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}
