package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taskhive-app/apiserver/internal/store"
	"github.com/taskhive-app/apiserver/types"
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Get(ctx context.Context, id int) (types.Task, error)
	ListByProject(ctx context.Context, projectID int) ([]types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, id int) error
}

// TaskService encapsulates task use-cases. Every operation is scoped to a
// project: a task reached through the wrong project behaves as missing.
type TaskService struct {
	repo   TaskRepository
	logger *slog.Logger
}

func NewTaskService(repo TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, projectID int, task types.Task) (types.Task, error) {
	task.ProjectID = projectID
	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return types.Task{}, s.internal(ctx, "create task", err)
	}
	return created, nil
}

func (s *TaskService) ListForProject(ctx context.Context, projectID int) ([]types.Task, error) {
	tasks, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, s.internal(ctx, "list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, projectID, taskID int) (types.Task, error) {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, NotFound("Tarea no encontrada")
		}
		return types.Task{}, s.internal(ctx, "get task", err)
	}
	if task.ProjectID != projectID {
		return types.Task{}, NotFound("Tarea no encontrada")
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, projectID int, task types.Task) (types.Task, error) {
	existing, err := s.Get(ctx, projectID, task.ID)
	if err != nil {
		return types.Task{}, err
	}

	existing.Name = task.Name
	existing.Description = task.Description
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return types.Task{}, s.internal(ctx, "update task", err)
	}
	return updated, nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, projectID, taskID int, status types.TaskStatus) (types.Task, error) {
	task, err := s.Get(ctx, projectID, taskID)
	if err != nil {
		return types.Task{}, err
	}

	task.Status = status
	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return types.Task{}, s.internal(ctx, "update task status", err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, projectID, taskID int) error {
	if _, err := s.Get(ctx, projectID, taskID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID); err != nil {
		return s.internal(ctx, "delete task", err)
	}
	return nil
}

func (s *TaskService) internal(ctx context.Context, op string, err error) *Error {
	s.logger.ErrorContext(ctx, op, "error", err)
	return Internal()
}
