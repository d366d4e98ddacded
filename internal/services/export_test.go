package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tasklane/apiserver/internal/store"
)

func TestExportWritesOwnerTasks(t *testing.T) {
	ctx := context.Background()
	auth, users := newTestAuthService(t)
	taskRepo := store.NewMemoryTaskRepository()
	tasks := NewTaskService(taskRepo, nil, discardLogger())

	alice, _ := auth.Register(ctx, "alice", "alice@x.com", "pw123")
	bob, _ := auth.Register(ctx, "bob", "bob@x.com", "pw456")
	_, _ = tasks.Create(ctx, alice.User.ID, "buy milk", "high")
	_, _ = tasks.Create(ctx, alice.User.ID, "walk dog", "")
	_, _ = tasks.Create(ctx, bob.User.ID, "bob's task", "low")

	objects := newMemoryObjects()
	export := NewExportService(users, taskRepo, objects, "exports", discardLogger())

	result, err := export.Export(ctx, " Alice@x.com")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Tasks != 2 {
		t.Fatalf("exported %d tasks, want 2", result.Tasks)
	}
	if !strings.HasPrefix(result.Key, "exports/user-1/") || !strings.HasSuffix(result.Key, ".json") {
		t.Fatalf("unexpected key %q", result.Key)
	}
	if objects.contentTypes[result.Key] != "application/json" {
		t.Fatalf("content type = %q", objects.contentTypes[result.Key])
	}

	var doc TaskExport
	if err := json.Unmarshal(objects.objects[result.Key], &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.User.ID != alice.User.ID || len(doc.Tasks) != 2 {
		t.Fatalf("unexpected export: %+v", doc)
	}
	for _, task := range doc.Tasks {
		if task.OwnerID != alice.User.ID {
			t.Fatalf("foreign task in export: %+v", task)
		}
	}
	if strings.Contains(string(objects.objects[result.Key]), "password") {
		t.Fatalf("export leaked password hash")
	}
}

func TestExportUnknownUser(t *testing.T) {
	_, users := newTestAuthService(t)
	export := NewExportService(users, store.NewMemoryTaskRepository(), newMemoryObjects(), "exports", discardLogger())

	if _, err := export.Export(context.Background(), "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := export.Export(context.Background(), " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
