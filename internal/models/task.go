package models

import "time"

// Priority of a task.
type Priority string

const (
	PriorityNone   Priority = "no-priority"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of work within a list.
type Task struct {
	ID                string     `db:"id" json:"id"`
	ListID            string     `db:"list_id" json:"listId"`
	Title             string     `db:"title" json:"title"`
	Description       *string    `db:"description" json:"description"`
	Position          int        `db:"position" json:"position"`
	Priority          Priority   `db:"priority" json:"priority"`
	DueDate           *time.Time `db:"due_date" json:"dueDate"`
	ProgressCompleted int        `db:"progress_completed" json:"progressCompleted"`
	ProgressTotal     int        `db:"progress_total" json:"progressTotal"`
	CommentsCount     int        `db:"comments_count" json:"commentsCount"`
	AttachmentsCount  int        `db:"attachments_count" json:"attachmentsCount"`
	LinksCount        int        `db:"links_count" json:"linksCount"`
	CreatedBy         *string    `db:"created_by" json:"createdBy"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// TaskWithRelations is a task hydrated with its assignees and labels.
type TaskWithRelations struct {
	Task
	Assignees []UserSummary `json:"assignees"`
	Labels    []Label       `json:"labels"`
}

// Label is a board-scoped tag that can be attached to tasks.
type Label struct {
	ID        string    `db:"id" json:"id"`
	BoardID   string    `db:"board_id" json:"boardId"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// TaskSearchPage is one page of task search results.
type TaskSearchPage struct {
	Tasks      []Task `json:"tasks"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}
