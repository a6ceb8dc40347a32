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

// ProjectHandler provides HTTP handlers for projects and their teams.
type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
}

// NewProjectHandler constructs a handler with the provided services.
func NewProjectHandler(projectService *services.ProjectService, taskService *services.TaskService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		taskService:    taskService,
	}
}

// ProjectRouter registers project, team, and task routes. Every route
// requires an authenticated user; routes under {projectID} additionally
// pass the membership check, and mutations require the manager.
func ProjectRouter(
	r chi.Router,
	projectService *services.ProjectService,
	taskService *services.TaskService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewProjectHandler(projectService, taskService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListProjects)
	r.Post("/", handler.CreateProject)
	r.Route("/{projectID}", func(r chi.Router) {
		r.Use(handler.projectCtx)
		r.Get("/", handler.GetProject)
		r.With(handler.requireManager).Put("/", handler.UpdateProject)
		r.With(handler.requireManager).Delete("/", handler.DeleteProject)

		r.Route("/team", func(r chi.Router) {
			r.Get("/", handler.ListTeam)
			r.With(handler.requireManager).Post("/find", handler.FindMember)
			r.With(handler.requireManager).Post("/", handler.AddMember)
			r.With(handler.requireManager).Delete("/{userID}", handler.RemoveMember)
		})

		r.Route("/tasks", func(r chi.Router) {
			TaskRouter(r, handler.taskService)
		})
	})
}

// projectCtx loads the routed project, applies the membership predicate,
// and injects the project into the request context.
func (h *ProjectHandler) projectCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeServiceError(w, services.Unauthenticated("No autorizado"))
			return
		}

		id, err := parseProjectID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		project, err := h.projectService.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if !h.projectService.CanAccess(project, user.ID) {
			writeServiceError(w, services.Forbidden("Acción no válida"))
			return
		}

		ctx := contextWithProject(r.Context(), project)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireManager restricts a route to the project's manager.
func (h *ProjectHandler) requireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeServiceError(w, services.Unauthenticated("No autorizado"))
			return
		}
		project, err := projectFromContext(r.Context())
		if err != nil {
			writeServiceError(w, services.NotFound("Proyecto no encontrado"))
			return
		}
		if project.ManagerID != user.ID {
			writeServiceError(w, services.Forbidden("Sólo el manager puede realizar esta acción"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.Unauthenticated("No autorizado"))
		return
	}

	projects, err := h.projectService.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.Unauthenticated("No autorizado"))
		return
	}

	req, err := decodeProjectRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.projectService.Create(r.Context(), user.ID, types.Project{
		ProjectName: req.ProjectName,
		ClientName:  req.ClientName,
		Description: req.Description,
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Proyecto creado exitosamente")
}

// GetProject returns the routed project with its tasks populated.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
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
	project.Tasks = tasks
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return
	}

	req, err := decodeProjectRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	project.ProjectName = req.ProjectName
	project.ClientName = req.ClientName
	project.Description = req.Description
	if _, err := h.projectService.Update(r.Context(), project); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "El proyecto ha sido actualizado con éxito")
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return
	}

	if err := h.projectService.Delete(r.Context(), project.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Proyecto eliminado exitosamente")
}

// FindMember resolves a user by email for the add-member form.
func (h *ProjectHandler) FindMember(w http.ResponseWriter, r *http.Request) {
	email, ok := decodeEmail(w, r)
	if !ok {
		return
	}

	user, err := h.projectService.FindUserByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TeamMemberResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

func (h *ProjectHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return
	}

	members, err := h.projectService.ListTeam(r.Context(), project.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]TeamMemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, TeamMemberResponse{ID: m.ID, Name: m.Name, Email: m.Email})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID < 1 {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.projectService.AddMember(r.Context(), project, req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Usuario agregado correctamente")
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	project, err := projectFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.NotFound("Proyecto no encontrado"))
		return
	}

	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.projectService.RemoveMember(r.Context(), project.ID, userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Usuario eliminado correctamente")
}

// ProjectRequest carries the mutable project fields.
type ProjectRequest struct {
	ProjectName string `json:"project_name"`
	ClientName  string `json:"client_name"`
	Description string `json:"description"`
}

type AddMemberRequest struct {
	ID int `json:"id"`
}

// TeamMemberResponse exposes the member fields the frontend needs.
type TeamMemberResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func decodeProjectRequest(r *http.Request) (ProjectRequest, error) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ProjectRequest{}, errInvalidRequest
	}
	req.ProjectName = strings.TrimSpace(req.ProjectName)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Description = strings.TrimSpace(req.Description)
	if req.ProjectName == "" || req.ClientName == "" || req.Description == "" {
		return ProjectRequest{}, errMissingFields
	}
	return req, nil
}

func parseProjectID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "projectID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errInvalidProjectID
	}
	return id, nil
}
