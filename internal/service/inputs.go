package service

import (
	"time"

	"taskflow/internal/models"
)

type CreateBoardInput struct {
	Title       string  `json:"title" validate:"notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type UpdateBoardInput struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type CreateListInput struct {
	Title    string `json:"title" validate:"notblank,max=200"`
	Position *int   `json:"position" validate:"omitempty,min=0"`
}

type UpdateListInput struct {
	Title    *string `json:"title" validate:"omitempty,notblank,max=200"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
}

type ReorderListsInput struct {
	ListIDs []string `json:"listIds" validate:"required,min=1,dive,required"`
}

type CreateTaskInput struct {
	ListID      string          `json:"listId" validate:"required"`
	Title       string          `json:"title" validate:"notblank,max=500"`
	Description *string         `json:"description" validate:"omitempty,max=10000"`
	Priority    models.Priority `json:"priority" validate:"omitempty,oneof=no-priority low medium high urgent"`
	DueDate     *time.Time      `json:"dueDate"`
	Position    *int            `json:"position" validate:"omitempty,min=0"`
}

type UpdateTaskInput struct {
	Title             *string          `json:"title" validate:"omitempty,notblank,max=500"`
	Description       *string          `json:"description" validate:"omitempty,max=10000"`
	Priority          *models.Priority `json:"priority" validate:"omitempty,oneof=no-priority low medium high urgent"`
	DueDate           *time.Time       `json:"dueDate"`
	Position          *int             `json:"position" validate:"omitempty,min=0"`
	ProgressCompleted *int             `json:"progressCompleted" validate:"omitempty,min=0"`
	ProgressTotal     *int             `json:"progressTotal" validate:"omitempty,min=0"`
}

type MoveTaskInput struct {
	ListID   string `json:"listId" validate:"required"`
	Position *int   `json:"position" validate:"omitempty,min=0"`
}

type AssignInput struct {
	UserID string `json:"userId" validate:"required"`
}

type AddMemberInput struct {
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role" validate:"omitempty,oneof=member viewer"`
}

type RemoveMemberInput struct {
	UserID string `json:"userId" validate:"required"`
}

type CreateLabelInput struct {
	Name  string `json:"name" validate:"notblank,max=50"`
	Color string `json:"color" validate:"required,hexcolor"`
}

type LabelRefInput struct {
	LabelID string `json:"labelId" validate:"required"`
}

// SearchInput filters a board's tasks. Priority "all" is the same as empty.
type SearchInput struct {
	Query      string
	Priority   string
	AssigneeID string
	Page       int
	Limit      int
}
