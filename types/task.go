package types

import (
	"strings"
	"time"
)

// Priority ranks a task. The zero value is not a valid priority; use
// ParsePriority to apply the default.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DefaultPriority is assigned to tasks created without a priority.
const DefaultPriority = PriorityMedium

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ParsePriority normalizes raw. An empty value yields DefaultPriority;
// an unknown value returns false.
func ParsePriority(raw string) (Priority, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultPriority, true
	}
	p := Priority(raw)
	return p, p.IsValid()
}

// Task is a single to-do item owned by exactly one user.
type Task struct {
	// ID is the unique identifier of the task.
	ID int `json:"id" db:"id"`

	// Text is the task description shown to the user.
	Text string `json:"text" db:"text"`

	// Completed marks the task as done.
	Completed bool `json:"completed" db:"completed"`

	// Priority is one of high, medium or low.
	Priority Priority `json:"priority" db:"priority"`

	// OwnerID references the user that owns the task. Only the owner
	// may read or mutate it.
	OwnerID int `json:"ownerId" db:"owner_id"`

	// CreatedAt is the timestamp when the task was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the task.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TaskStatus selects tasks by completion state.
type TaskStatus string

const (
	TaskStatusAll       TaskStatus = "all"
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	Status   TaskStatus
	Priority Priority
}

// Matches reports whether t passes the filter.
func (f TaskFilter) Matches(t Task) bool {
	switch f.Status {
	case TaskStatusActive:
		if t.Completed {
			return false
		}
	case TaskStatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

// TaskPatch carries the fields of a partial task update. Nil fields are
// left untouched.
type TaskPatch struct {
	Text      *string
	Priority  *Priority
	Completed *bool
}

// Apply returns t with the non-nil patch fields applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Priority == nil && p.Completed == nil
}
