package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-app/apiserver/types"
)

func (e *testEnv) createProject(t *testing.T, token string) int {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/api/projects", token, map[string]string{
		"project_name": "Sitio web",
		"client_name":  "ACME",
		"description":  "Rediseño completo",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	projects := e.listProjects(t, token)
	require.NotEmpty(t, projects)
	return projects[len(projects)-1].ID
}

func (e *testEnv) listProjects(t *testing.T, token string) []types.Project {
	t.Helper()

	rr := e.do(t, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var projects []types.Project
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&projects))
	return projects
}

func (e *testEnv) findMember(t *testing.T, token string, projectID int, email string) int {
	t.Helper()

	rr := e.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/team/find", projectID), token, map[string]string{"email": email})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var member TeamMemberResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&member))
	return member.ID
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv()
	token := env.signup(t, "Ana", "a@x.com")

	assert.Empty(t, env.listProjects(t, token))

	projectID := env.createProject(t, token)

	rr := env.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var project types.Project
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&project))
	assert.Equal(t, "Sitio web", project.ProjectName)
	assert.Empty(t, project.Tasks)

	rr = env.do(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", projectID), token, map[string]string{
		"project_name": "Sitio web v2",
		"client_name":  "ACME",
		"description":  "Rediseño completo",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, env.listProjects(t, token))
}

func TestProjectValidation(t *testing.T) {
	env := newTestEnv()
	token := env.signup(t, "Ana", "a@x.com")

	rr := env.do(t, http.MethodPost, "/api/projects", token, map[string]string{
		"project_name": "Sitio web",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/projects/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/projects/999", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Proyecto no encontrado", decodeError(t, rr))
}

func TestProjectMembershipGuard(t *testing.T) {
	env := newTestEnv()
	manager := env.signup(t, "Ana", "a@x.com")
	member := env.signup(t, "Beto", "b@x.com")
	outsider := env.signup(t, "Carla", "c@x.com")

	projectID := env.createProject(t, manager)
	memberID := env.findMember(t, manager, projectID, "b@x.com")

	rr := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/team", projectID), manager, map[string]int{"id": memberID})
	require.Equal(t, http.StatusOK, rr.Code)

	target := fmt.Sprintf("/api/projects/%d", projectID)

	// Outsiders never reach a project they are not on.
	rr = env.do(t, http.MethodGet, target, outsider, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Acción no válida", decodeError(t, rr))
	assert.Empty(t, env.listProjects(t, outsider))

	// Team members read but do not mutate.
	rr = env.do(t, http.MethodGet, target, member, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, env.listProjects(t, member), 1)

	update := map[string]string{
		"project_name": "Otro nombre",
		"client_name":  "ACME",
		"description":  "Rediseño completo",
	}
	rr = env.do(t, http.MethodPut, target, member, update)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Sólo el manager puede realizar esta acción", decodeError(t, rr))

	rr = env.do(t, http.MethodDelete, target, member, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPost, fmt.Sprintf("%s/team", target), member, map[string]int{"id": memberID})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTeamManagement(t *testing.T) {
	env := newTestEnv()
	manager := env.signup(t, "Ana", "a@x.com")
	env.signup(t, "Beto", "b@x.com")

	projectID := env.createProject(t, manager)
	base := fmt.Sprintf("/api/projects/%d/team", projectID)

	rr := env.do(t, http.MethodPost, base+"/find", manager, map[string]string{"email": "nadie@x.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Usuario no encontrado", decodeError(t, rr))

	memberID := env.findMember(t, manager, projectID, "b@x.com")

	rr = env.do(t, http.MethodPost, base, manager, map[string]int{"id": memberID})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, base, manager, map[string]int{"id": memberID})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "El usuario ya existe en el proyecto", decodeError(t, rr))

	rr = env.do(t, http.MethodGet, base, manager, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var team []TeamMemberResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&team))
	require.Len(t, team, 1)
	assert.Equal(t, "b@x.com", team[0].Email)

	rr = env.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, memberID), manager, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, memberID), manager, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "El usuario no existe en el proyecto", decodeError(t, rr))
}

func TestTaskRoutes(t *testing.T) {
	env := newTestEnv()
	token := env.signup(t, "Ana", "a@x.com")
	projectID := env.createProject(t, token)
	base := fmt.Sprintf("/api/projects/%d/tasks", projectID)

	rr := env.do(t, http.MethodPost, base, token, map[string]string{
		"name":        "Maquetar",
		"description": "Header y footer",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	taskID := env.listTasks(t, token, base)[0].ID
	target := fmt.Sprintf("%s/%d", base, taskID)

	rr = env.do(t, http.MethodPost, target+"/status", token, map[string]string{"status": "inProgress"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, target+"/status", token, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Estado no válido", decodeError(t, rr))

	rr = env.do(t, http.MethodPut, target, token, map[string]string{
		"name":        "Maquetar v2",
		"description": "Header y footer",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, target, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var task types.Task
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&task))
	assert.Equal(t, "Maquetar v2", task.Name)
	assert.Equal(t, types.TaskStatusInProgress, task.Status)

	rr = env.do(t, http.MethodDelete, target, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, target, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Tarea no encontrada", decodeError(t, rr))
}

func TestTaskScopedToRoutedProject(t *testing.T) {
	env := newTestEnv()
	token := env.signup(t, "Ana", "a@x.com")

	first := env.createProject(t, token)
	second := env.createProject(t, token)

	rr := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", first), token, map[string]string{
		"name":        "Maquetar",
		"description": "Header",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	taskID := env.listTasks(t, token, fmt.Sprintf("/api/projects/%d/tasks", first))[0].ID

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks/%d", second, taskID), token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Tarea no encontrada", decodeError(t, rr))
}

func (e *testEnv) listTasks(t *testing.T, token, base string) []types.Task {
	t.Helper()

	rr := e.do(t, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var tasks []types.Task
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&tasks))
	return tasks
}
