package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/taskhive-app/apiserver/internal/services"
	"github.com/taskhive-app/apiserver/types"
)

// TaskHandler provides HTTP handlers for the tasks of a project. It is
// always mounted below projectCtx, so membership is already enforced.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler constructs a handler with the provided service.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// TaskRouter registers task routes on a project subrouter.
func TaskRouter(r chi.Router, taskService *services.TaskService) {
	handler := NewTaskHandler(taskService)

	r.Get("/", handler.ListTasks)
	r.Post("/", handler.CreateTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)
		r.Put("/", handler.UpdateTask)
		r.Delete("/", handler.DeleteTask)
		r.Post("/status", handler.UpdateTaskStatus)
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return
	}

	tasks, err := h.taskService.ListForProject(r.Context(), project.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return
	}

	req, err := decodeTaskRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.taskService.Create(r.Context(), project.ID, types.Task{
		Name:        req.Name,
		Description: req.Description,
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Tarea creada correctamente")
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	project, taskID, ok := taskScope(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), project.ID, taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	project, taskID, ok := taskScope(w, r)
	if !ok {
		return
	}

	req, err := decodeTaskRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.taskService.Update(r.Context(), project.ID, types.Task{
		ID:          taskID,
		Name:        req.Name,
		Description: req.Description,
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Tarea actualizada correctamente")
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	project, taskID, ok := taskScope(w, r)
	if !ok {
		return
	}

	var req TaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Estado no válido")
		return
	}

	if _, err := h.taskService.UpdateStatus(r.Context(), project.ID, taskID, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Estado actualizado correctamente")
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	project, taskID, ok := taskScope(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), project.ID, taskID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Tarea eliminada correctamente")
}

// TaskRequest carries the mutable task fields.
type TaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TaskStatusRequest struct {
	Status types.TaskStatus `json:"status"`
}

func decodeTaskRequest(r *http.Request) (TaskRequest, error) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return TaskRequest{}, errInvalidRequest
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return TaskRequest{}, errMissingFields
	}
	return req, nil
}

func taskScope(w http.ResponseWriter, r *http.Request) (types.Project, int, bool) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return types.Project{}, 0, false
	}

	taskID, err := strconv.Atoi(chi.URLParam(r, "taskID"))
	if err != nil || taskID < 1 {
		writeError(w, http.StatusBadRequest, errInvalidTaskID.Error())
		return types.Project{}, 0, false
	}
	return project, taskID, true
}
