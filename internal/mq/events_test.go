package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tasklane/apiserver/config"
	"github.com/tasklane/apiserver/types"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakeBackend struct {
	published []published
	err       error
	closed    bool
}

func (f *fakeBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, published{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	for _, p := range f.published {
		if p.channel != channel {
			continue
		}
		if err := handler(ctx, Message{ID: "msg-1", Data: p.data, Attributes: p.attrs}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func TestTaskEventPublisherRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	publisher := NewTaskEventPublisher(New(backend), "task-events")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := types.TaskEvent{
		Type:       types.TaskCreated,
		TaskID:     7,
		OwnerID:    3,
		Task:       &types.Task{ID: 7, Text: "buy milk", Priority: types.PriorityHigh, OwnerID: 3, CreatedAt: now, UpdatedAt: now},
		OccurredAt: now,
	}
	if err := publisher.PublishTaskEvent(context.Background(), event); err != nil {
		t.Fatalf("PublishTaskEvent: %v", err)
	}
	if len(backend.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(backend.published))
	}

	got := backend.published[0]
	if got.channel != "task-events" {
		t.Fatalf("channel = %q, want task-events", got.channel)
	}
	if got.attrs[AttrEventType] != "task.created" || got.attrs[AttrOwnerID] != "3" || got.attrs[AttrTaskID] != "7" {
		t.Fatalf("unexpected attributes %v", got.attrs)
	}

	var decoded types.TaskEvent
	err := New(backend).Subscribe(context.Background(), "task-events", func(_ context.Context, msg Message) error {
		var err error
		decoded, err = DecodeTaskEvent(msg)
		return err
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if decoded.Type != types.TaskCreated || decoded.TaskID != 7 || decoded.OwnerID != 3 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Task == nil || decoded.Task.Text != "buy milk" {
		t.Fatalf("decoded task = %+v", decoded.Task)
	}
}

func TestTaskEventPublisherPropagatesBackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("broker down")}
	publisher := NewTaskEventPublisher(New(backend), "task-events")

	err := publisher.PublishTaskEvent(context.Background(), types.TaskEvent{Type: types.TaskDeleted, TaskID: 1, OwnerID: 1})
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("err = %v, want broker down", err)
	}
}

func TestDecodeTaskEventFallsBackToAttribute(t *testing.T) {
	data, _ := json.Marshal(map[string]any{"taskId": 4, "ownerId": 2})
	event, err := DecodeTaskEvent(Message{ID: "m", Data: data, Attributes: map[string]string{AttrEventType: "task.deleted"}})
	if err != nil {
		t.Fatalf("DecodeTaskEvent: %v", err)
	}
	if event.Type != types.TaskDeleted || event.TaskID != 4 {
		t.Fatalf("event = %+v", event)
	}
}

func TestDecodeTaskEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeTaskEvent(Message{ID: "bad", Data: []byte("{not json")}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestNewFromConfig(t *testing.T) {
	m, err := NewFromConfig(context.Background(), configWithBackend(""))
	if err != nil || m != nil {
		t.Fatalf("empty backend: got (%v, %v), want (nil, nil)", m, err)
	}
	if _, err := NewFromConfig(context.Background(), configWithBackend("kafka")); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
	if _, err := NewFromConfig(context.Background(), configWithBackend(BackendRabbitMQ)); err == nil {
		t.Fatal("expected error for rabbitmq without url")
	}
}

func TestRoutingKey(t *testing.T) {
	if got := routingKey(map[string]string{AttrEventType: "task.updated"}); got != "task.updated" {
		t.Fatalf("routingKey = %q", got)
	}
	if got := routingKey(nil); got != "task.unknown" {
		t.Fatalf("routingKey(nil) = %q", got)
	}
}

func configWithBackend(backend string) config.EventsConfig {
	return config.EventsConfig{Backend: backend, Topic: "task-events"}
}
