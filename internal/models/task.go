package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusIncomplete = "incomplete"
	TaskStatusComplete   = "complete"
)

// TaskRecord is the assignment/completion state layered over a checklist item.
// The checklist itself is regenerated from trip attributes whenever they
// change, so this state is keyed by the item's stable task id instead of
// living on the item.
type TaskRecord struct {
	ID          uuid.UUID  `json:"id"`
	TripID      uuid.UUID  `json:"trip_id"`
	TaskID      string     `json:"task_id"`
	Status      string     `json:"status"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	AssignedBy  *string    `json:"assigned_by,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedBy *string    `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskComment is append-only: never edited or deleted after creation.
type TaskComment struct {
	ID          uuid.UUID `json:"id"`
	TripID      uuid.UUID `json:"trip_id"`
	TaskID      string    `json:"task_id"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReadinessItem is one checklist entry as the UI consumes it: the generated
// base item with any ledger state overlaid.
type ReadinessItem struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Subtitle    string        `json:"subtitle,omitempty"`
	Category    string        `json:"category"`
	Status      string        `json:"status"`
	Urgent      bool          `json:"urgent"`
	IsCustom    bool          `json:"is_custom"`
	AssignedTo  *string       `json:"assigned_to,omitempty"`
	AssignedBy  *string       `json:"assigned_by,omitempty"`
	AssignedAt  *time.Time    `json:"assigned_at,omitempty"`
	CompletedBy *string       `json:"completed_by,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Comments    []TaskComment `json:"comments,omitempty"`
}

type MemberTaskStats struct {
	Assigned  int `json:"assigned"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

type TaskStats struct {
	Total      int                        `json:"total"`
	Assigned   int                        `json:"assigned"`
	Unassigned int                        `json:"unassigned"`
	Completed  int                        `json:"completed"`
	Overdue    int                        `json:"overdue"`
	ByMember   map[string]MemberTaskStats `json:"by_member"`
}
