package services

import (
	"context"

	"github.com/tasklane/apiserver/types"
)

// TaskEventPublisher delivers task lifecycle events to interested parties.
type TaskEventPublisher interface {
	PublishTaskEvent(ctx context.Context, event types.TaskEvent) error
}

// NopPublisher discards events. It is used when no events backend is
// configured.
type NopPublisher struct{}

func (NopPublisher) PublishTaskEvent(context.Context, types.TaskEvent) error {
	return nil
}
