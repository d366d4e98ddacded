package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/services"
	"github.com/tasklane/apiserver/types"
)

// TaskHandler provides HTTP handlers for the caller's tasks.
type TaskHandler struct {
	taskService *services.TaskService
	logger      logrus.FieldLogger
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(taskService *services.TaskService, logger logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// TaskRouter registers task routes on the given router. Every route
// requires authMiddleware.
func TaskRouter(
	r chi.Router,
	taskService *services.TaskService,
	logger logrus.FieldLogger,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTaskHandler(taskService, logger)

	r.Use(authMiddleware)
	r.Get("/", handler.ListTasks)
	r.Post("/", handler.CreateTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)
		r.Put("/", handler.UpdateTask)
		r.Delete("/", handler.DeleteTask)
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query()
	filter, err := services.ParseTaskFilter(query.Get("status"), query.Get("priority"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list tasks")
		return
	}

	tasks, err := h.taskService.List(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskScope(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to fetch task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, req.Text, req.Priority)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskScope(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, req.Patch())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to update task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskScope(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		writeServiceError(w, r, h.logger, err, "failed to delete task")
		return
	}

	writeJSON(w, http.StatusOK, DeleteTaskResponse{Success: true})
}

// taskScope resolves the caller and the task id from the URL.
func (h *TaskHandler) taskScope(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, 0, false
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return userID, taskID, true
}

type CreateTaskRequest struct {
	Text     string `json:"text" validate:"required,max=1000"`
	Priority string `json:"priority" validate:"omitempty,priority"`
}

// UpdateTaskRequest carries a partial update; absent fields stay as they are.
type UpdateTaskRequest struct {
	Text      *string `json:"text" validate:"omitempty,max=1000"`
	Priority  *string `json:"priority" validate:"omitempty,priority"`
	Completed *bool   `json:"completed"`
}

func (r UpdateTaskRequest) Patch() types.TaskPatch {
	patch := types.TaskPatch{
		Text:      r.Text,
		Completed: r.Completed,
	}
	if r.Priority != nil {
		p := types.Priority(*r.Priority)
		patch.Priority = &p
	}
	return patch
}

type DeleteTaskResponse struct {
	Success bool `json:"success"`
}
