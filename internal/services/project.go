package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taskhive-app/apiserver/internal/store"
	"github.com/taskhive-app/apiserver/types"
)

// ProjectRepository defines persistence operations for projects and teams.
type ProjectRepository interface {
	Create(ctx context.Context, project types.Project) (types.Project, error)
	Get(ctx context.Context, id int) (types.Project, error)
	ListForUser(ctx context.Context, userID int) ([]types.Project, error)
	Update(ctx context.Context, project types.Project) (types.Project, error)
	Delete(ctx context.Context, id int) error
	AddMember(ctx context.Context, projectID, userID int) error
	RemoveMember(ctx context.Context, projectID, userID int) error
	ListMembers(ctx context.Context, projectID int) ([]types.User, error)
}

// ProjectService encapsulates project and team use-cases, including the
// membership predicate the authorization guard applies to every project
// route.
type ProjectService struct {
	repo   ProjectRepository
	users  UserRepository
	logger *slog.Logger
}

func NewProjectService(repo ProjectRepository, users UserRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{repo: repo, users: users, logger: logger}
}

// CanAccess reports whether the user is the project's manager or on its
// team. It answers membership only; manager-level restrictions live with
// the individual operations.
func (s *ProjectService) CanAccess(project types.Project, userID int) bool {
	return project.HasMember(userID)
}

func (s *ProjectService) Create(ctx context.Context, managerID int, project types.Project) (types.Project, error) {
	project.ManagerID = managerID
	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return types.Project{}, s.internal(ctx, "create project", err)
	}
	return created, nil
}

func (s *ProjectService) Get(ctx context.Context, id int) (types.Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Project{}, NotFound("Proyecto no encontrado")
		}
		return types.Project{}, s.internal(ctx, "get project", err)
	}
	return project, nil
}

func (s *ProjectService) ListForUser(ctx context.Context, userID int) ([]types.Project, error) {
	projects, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, s.internal(ctx, "list projects", err)
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, project types.Project) (types.Project, error) {
	updated, err := s.repo.Update(ctx, project)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Project{}, NotFound("Proyecto no encontrado")
		}
		return types.Project{}, s.internal(ctx, "update project", err)
	}
	return updated, nil
}

func (s *ProjectService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Proyecto no encontrado")
		}
		return s.internal(ctx, "delete project", err)
	}
	return nil
}

// FindUserByEmail resolves a user for the add-member form.
func (s *ProjectService) FindUserByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, NotFound("Usuario no encontrado")
		}
		return types.User{}, s.internal(ctx, "find member", err)
	}
	return user, nil
}

// AddMember puts a user on the project team. The manager is never added;
// they already hold full access.
func (s *ProjectService) AddMember(ctx context.Context, project types.Project, userID int) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Usuario no encontrado")
		}
		return s.internal(ctx, "add member: load user", err)
	}

	if project.HasMember(userID) {
		return Conflict("El usuario ya existe en el proyecto")
	}

	if err := s.repo.AddMember(ctx, project.ID, userID); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return Conflict("El usuario ya existe en el proyecto")
		}
		return s.internal(ctx, "add member", err)
	}
	return nil
}

func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID int) error {
	if err := s.repo.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("El usuario no existe en el proyecto")
		}
		return s.internal(ctx, "remove member", err)
	}
	return nil
}

func (s *ProjectService) ListTeam(ctx context.Context, projectID int) ([]types.User, error) {
	members, err := s.repo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, s.internal(ctx, "list team", err)
	}
	return members, nil
}

func (s *ProjectService) internal(ctx context.Context, op string, err error) *Error {
	s.logger.ErrorContext(ctx, op, "error", err)
	return Internal()
}
