package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tasklane/apiserver/types"
)

const (
	AttrEventType = "event_type"
	AttrOwnerID   = "owner_id"
	AttrTaskID    = "task_id"
)

// TaskEventPublisher publishes task events as JSON on a single channel.
type TaskEventPublisher struct {
	mq      *MQ
	channel string
}

func NewTaskEventPublisher(m *MQ, channel string) *TaskEventPublisher {
	return &TaskEventPublisher{mq: m, channel: channel}
}

// PublishTaskEvent encodes and sends event. Attributes let consumers route
// on event type and owner without decoding the body.
func (p *TaskEventPublisher) PublishTaskEvent(ctx context.Context, event types.TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode task event: %w", err)
	}
	_, err = p.mq.Publish(ctx, p.channel, data, map[string]string{
		AttrEventType: string(event.Type),
		AttrOwnerID:   strconv.Itoa(event.OwnerID),
		AttrTaskID:    strconv.Itoa(event.TaskID),
	})
	return err
}

// DecodeTaskEvent parses a message produced by TaskEventPublisher.
func DecodeTaskEvent(msg Message) (types.TaskEvent, error) {
	var event types.TaskEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.TaskEvent{}, fmt.Errorf("decode task event %s: %w", msg.ID, err)
	}
	if event.Type == "" {
		if t, ok := msg.Attributes[AttrEventType]; ok {
			event.Type = types.TaskEventType(t)
		}
	}
	return event, nil
}
