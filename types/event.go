package types

import "time"

// TaskEventType names a task lifecycle transition.
type TaskEventType string

const (
	TaskCreated TaskEventType = "task.created"
	TaskUpdated TaskEventType = "task.updated"
	TaskDeleted TaskEventType = "task.deleted"
)

// TaskEvent is published after a task mutation commits.
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     int           `json:"taskId"`
	OwnerID    int           `json:"ownerId"`
	Task       *Task         `json:"task,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}
