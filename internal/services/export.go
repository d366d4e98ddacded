package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/store"
	"github.com/tasklane/apiserver/types"
)

// ObjectWriter stores a single object under key.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// TaskExport is the document written for each export.
type TaskExport struct {
	User       types.User   `json:"user"`
	ExportedAt time.Time    `json:"exportedAt"`
	Tasks      []types.Task `json:"tasks"`
}

// ExportResult describes a completed export.
type ExportResult struct {
	Key   string
	Tasks int
	Bytes int
}

// ExportService snapshots a user's tasks into object storage.
type ExportService struct {
	users   UserRepository
	tasks   TaskRepository
	objects ObjectWriter
	prefix  string
	logger  logrus.FieldLogger
}

func NewExportService(users UserRepository, tasks TaskRepository, objects ObjectWriter, prefix string, logger logrus.FieldLogger) *ExportService {
	return &ExportService{
		users:   users,
		tasks:   tasks,
		objects: objects,
		prefix:  prefix,
		logger:  logger,
	}
}

// Export writes every task owned by the user with the given email.
func (s *ExportService) Export(ctx context.Context, email string) (ExportResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return ExportResult{}, invalid("email", "is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ExportResult{}, fmt.Errorf("user %s %w", email, ErrNotFound)
		}
		return ExportResult{}, fmt.Errorf("load user: %w", err)
	}

	tasks, err := s.tasks.ListByOwner(ctx, user.ID, types.TaskFilter{})
	if err != nil {
		return ExportResult{}, fmt.Errorf("list tasks: %w", err)
	}

	now := time.Now().UTC()
	data, err := json.MarshalIndent(TaskExport{User: user, ExportedAt: now, Tasks: tasks}, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	key := exportKey(s.prefix, user.ID, now)
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return ExportResult{}, fmt.Errorf("upload export: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"key":     key,
		"tasks":   len(tasks),
	}).Info("tasks exported")
	return ExportResult{Key: key, Tasks: len(tasks), Bytes: len(data)}, nil
}

func exportKey(prefix string, userID int, at time.Time) string {
	name := fmt.Sprintf("%s-%s.json", at.Format("20060102T150405Z"), uuid.NewString())
	return path.Join(prefix, fmt.Sprintf("user-%d", userID), name)
}
