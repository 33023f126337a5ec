package models

import "time"

// List is an ordered column of tasks within a board.
type List struct {
	ID        string    `db:"id" json:"id"`
	BoardID   string    `db:"board_id" json:"boardId"`
	Title     string    `db:"title" json:"title"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ListWithTasks is a list with its ordered, hydrated tasks.
type ListWithTasks struct {
	List
	Tasks []TaskWithRelations `json:"tasks"`
}
