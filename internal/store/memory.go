package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tasklane/apiserver/types"
)

// MemoryUserRepository keeps users in process memory. It is used when
// DB_DRIVER=memory and by tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	nextID  int
	byID    map[int]types.User
	byEmail map[string]int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[int]types.User),
		byEmail: make(map[string]int),
	}
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return types.User{}, ErrConflict
	}

	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user, nil
}

// MemoryTaskRepository keeps tasks in process memory.
type MemoryTaskRepository struct {
	mu     sync.RWMutex
	nextID int
	tasks  map[int]types.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[int]types.Task)}
}

func (r *MemoryTaskRepository) ListByOwner(_ context.Context, ownerID int, filter types.TaskFilter) ([]types.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]types.Task, 0)
	for _, task := range r.tasks {
		if task.OwnerID == ownerID && filter.Matches(task) {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID > tasks[j].ID
	})
	return tasks, nil
}

func (r *MemoryTaskRepository) Get(_ context.Context, id int) (types.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

func (r *MemoryTaskRepository) Create(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	task.ID = r.nextID
	task.CreatedAt = now
	task.UpdatedAt = now

	r.tasks[task.ID] = task
	return task, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tasks[task.ID]
	if !ok || current.OwnerID != task.OwnerID {
		return types.Task{}, ErrNotFound
	}

	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = time.Now().UTC()
	r.tasks[task.ID] = task
	return task, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id, ownerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tasks[id]
	if !ok || current.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}
