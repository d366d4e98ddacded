package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/store"
	"github.com/tasklane/apiserver/types"
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	ListByOwner(ctx context.Context, ownerID int, filter types.TaskFilter) ([]types.Task, error)
	Get(ctx context.Context, id int) (types.Task, error)
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, id, ownerID int) error
}

// TaskService encapsulates task use-cases. Every operation is scoped to
// the calling user.
type TaskService struct {
	repo   TaskRepository
	events TaskEventPublisher
	logger logrus.FieldLogger
}

func NewTaskService(repo TaskRepository, events TaskEventPublisher, logger logrus.FieldLogger) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskService{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// ParseTaskFilter validates raw status and priority query values. Empty
// values and "all" match everything.
func ParseTaskFilter(status, priority string) (types.TaskFilter, error) {
	var filter types.TaskFilter

	switch s := types.TaskStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case "", types.TaskStatusAll:
	case types.TaskStatusActive, types.TaskStatusCompleted:
		filter.Status = s
	default:
		return types.TaskFilter{}, invalid("status", "must be one of all, active, completed")
	}

	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority != "" && priority != string(types.TaskStatusAll) {
		p := types.Priority(priority)
		if !p.IsValid() {
			return types.TaskFilter{}, invalid("priority", "must be one of high, medium, low")
		}
		filter.Priority = p
	}
	return filter, nil
}

// List returns the caller's tasks.
func (s *TaskService) List(ctx context.Context, userID int, filter types.TaskFilter) ([]types.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns a single task owned by the caller.
func (s *TaskService) Get(ctx context.Context, userID, taskID int) (types.Task, error) {
	return s.owned(ctx, userID, taskID)
}

// Create adds a task for the caller. An empty priority defaults to medium.
func (s *TaskService) Create(ctx context.Context, userID int, text, priority string) (types.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Task{}, invalid("text", "is required")
	}
	p, ok := types.ParsePriority(priority)
	if !ok {
		return types.Task{}, invalid("priority", "must be one of high, medium, low")
	}

	task, err := s.repo.Create(ctx, types.Task{
		Text:     text,
		Priority: p,
		OwnerID:  userID,
	})
	if err != nil {
		return types.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.publish(ctx, types.TaskCreated, task)
	return task, nil
}

// Update applies the supplied fields to a task owned by the caller.
func (s *TaskService) Update(ctx context.Context, userID, taskID int, patch types.TaskPatch) (types.Task, error) {
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return types.Task{}, invalid("text", "must not be empty")
		}
		patch.Text = &text
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		return types.Task{}, invalid("priority", "must be one of high, medium, low")
	}

	current, err := s.owned(ctx, userID, taskID)
	if err != nil {
		return types.Task{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, patch.Apply(current))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, errTaskNotFound
		}
		return types.Task{}, fmt.Errorf("update task: %w", err)
	}

	s.publish(ctx, types.TaskUpdated, updated)
	return updated, nil
}

// Delete permanently removes a task owned by the caller.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int) error {
	current, err := s.owned(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, taskID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.publish(ctx, types.TaskDeleted, current)
	return nil
}

// owned loads a task and checks that userID owns it.
func (s *TaskService) owned(ctx context.Context, userID, taskID int) (types.Task, error) {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, errTaskNotFound
		}
		return types.Task{}, fmt.Errorf("load task: %w", err)
	}
	if task.OwnerID != userID {
		return types.Task{}, ErrForbidden
	}
	return task, nil
}

func (s *TaskService) publish(ctx context.Context, eventType types.TaskEventType, task types.Task) {
	event := types.TaskEvent{
		Type:       eventType,
		TaskID:     task.ID,
		OwnerID:    task.OwnerID,
		OccurredAt: time.Now().UTC(),
	}
	if eventType != types.TaskDeleted {
		event.Task = &task
	}

	if err := s.events.PublishTaskEvent(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":   eventType,
			"task_id": task.ID,
		}).Error("publish task event failed")
	}
}
