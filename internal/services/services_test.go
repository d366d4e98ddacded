package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/store"
	"github.com/tasklane/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAuthService(t *testing.T) (*AuthService, *store.MemoryUserRepository) {
	t.Helper()

	tokens, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	users := store.NewMemoryUserRepository()
	svc := NewAuthService(users, tokens, discardLogger())
	svc.hashCost = bcrypt.MinCost
	return svc, users
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.TaskEvent
	err    error
}

func (p *recordingPublisher) PublishTaskEvent(_ context.Context, event types.TaskEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) eventTypes() []types.TaskEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.TaskEventType, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

type memoryObjects struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (m *memoryObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}
