package realtime

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"taskflow/internal/models"
)

// EventType names a realtime event.
type EventType string

const (
	TaskCreatedEvent   EventType = "task_created"
	TaskUpdatedEvent   EventType = "task_updated"
	TaskDeletedEvent   EventType = "task_deleted"
	TaskMovedEvent     EventType = "task_moved"
	ListCreatedEvent   EventType = "list_created"
	ListUpdatedEvent   EventType = "list_updated"
	ListDeletedEvent   EventType = "list_deleted"
	BoardUpdatedEvent  EventType = "board_updated"
	MemberAddedEvent   EventType = "member_added"
	MemberRemovedEvent EventType = "member_removed"
)

// Payload is the type-specific body of an Event. Each variant reports the
// event type it belongs to.
type Payload interface {
	EventType() EventType
}

type TaskCreated struct{ models.TaskWithRelations }

type TaskUpdated struct{ models.TaskWithRelations }

type TaskMoved struct {
	Task       models.TaskWithRelations `json:"task"`
	FromListID string                   `json:"fromListId"`
	ToListID   string                   `json:"toListId"`
	Position   int                      `json:"position"`
}

type TaskDeleted struct {
	TaskID string `json:"taskId"`
	ListID string `json:"listId"`
}

type ListCreated struct{ models.List }

type ListUpdated struct{ models.List }

type ListDeleted struct {
	ListID string `json:"listId"`
}

type BoardUpdated struct{ models.Board }

type MemberAdded struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
}

type MemberRemoved struct {
	UserID string `json:"userId"`
}

func (TaskCreated) EventType() EventType   { return TaskCreatedEvent }
func (TaskUpdated) EventType() EventType   { return TaskUpdatedEvent }
func (TaskMoved) EventType() EventType     { return TaskMovedEvent }
func (TaskDeleted) EventType() EventType   { return TaskDeletedEvent }
func (ListCreated) EventType() EventType   { return ListCreatedEvent }
func (ListUpdated) EventType() EventType   { return ListUpdatedEvent }
func (ListDeleted) EventType() EventType   { return ListDeletedEvent }
func (BoardUpdated) EventType() EventType  { return BoardUpdatedEvent }
func (MemberAdded) EventType() EventType   { return MemberAddedEvent }
func (MemberRemoved) EventType() EventType { return MemberRemovedEvent }

// Event is a transient notification about a change on one board.
type Event struct {
	Type      EventType `json:"type"`
	BoardID   string    `json:"boardId"`
	Payload   Payload   `json:"payload"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps p with its type and the current time.
func NewEvent(boardID, userID string, p Payload) Event {
	return Event{
		Type:      p.EventType(),
		BoardID:   boardID,
		Payload:   p,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// Frame encodes e as a wire frame.
func (e Event) Frame() ([]byte, error) {
	return json.Marshal(e)
}

func newPayload(t EventType) (Payload, error) {
	switch t {
	case TaskCreatedEvent:
		return &TaskCreated{}, nil
	case TaskUpdatedEvent:
		return &TaskUpdated{}, nil
	case TaskMovedEvent:
		return &TaskMoved{}, nil
	case TaskDeletedEvent:
		return &TaskDeleted{}, nil
	case ListCreatedEvent:
		return &ListCreated{}, nil
	case ListUpdatedEvent:
		return &ListUpdated{}, nil
	case ListDeletedEvent:
		return &ListDeleted{}, nil
	case BoardUpdatedEvent:
		return &BoardUpdated{}, nil
	case MemberAddedEvent:
		return &MemberAdded{}, nil
	case MemberRemovedEvent:
		return &MemberRemoved{}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", t)
}

// UnmarshalJSON decodes the payload into the variant named by type.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type      EventType       `json:"type"`
		BoardID   string          `json:"boardId"`
		Payload   json.RawMessage `json:"payload"`
		UserID    string          `json:"userId"`
		Timestamp time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p, err := newPayload(raw.Type)
	if err != nil {
		return err
	}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, p); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
	}
	*e = Event{Type: raw.Type, BoardID: raw.BoardID, Payload: deref(p), UserID: raw.UserID, Timestamp: raw.Timestamp}
	return nil
}

// deref stores payloads by value so consumers can type-switch on the
// variant types directly.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *TaskCreated:
		return *v
	case *TaskUpdated:
		return *v
	case *TaskMoved:
		return *v
	case *TaskDeleted:
		return *v
	case *ListCreated:
		return *v
	case *ListUpdated:
		return *v
	case *ListDeleted:
		return *v
	case *BoardUpdated:
		return *v
	case *MemberAdded:
		return *v
	case *MemberRemoved:
		return *v
	}
	return p
}
