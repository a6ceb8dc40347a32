package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-app/apiserver/internal/auth"
	"github.com/taskhive-app/apiserver/internal/services"
	"github.com/taskhive-app/apiserver/internal/testutil"
)

// testEnv wires the real routers and services over in-memory fakes so
// handler tests exercise the full middleware chain.
type testEnv struct {
	router   chi.Router
	users    *testutil.UserRepo
	tokens   *testutil.TokenRepo
	mail     *testutil.Mailer
	projects *testutil.ProjectRepo
	tasks    *testutil.TaskRepo
	sessions *auth.SessionIssuer
}

func newTestEnv() *testEnv {
	users := testutil.NewUserRepo()
	tokens := testutil.NewTokenRepo()
	mail := &testutil.Mailer{}
	projects := testutil.NewProjectRepo(users)
	tasks := testutil.NewTaskRepo()
	sessions := auth.NewSessionIssuer("test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	accounts := services.NewAccountService(users, tokens, sessions, mail, logger)
	projectService := services.NewProjectService(projects, users, logger)
	taskService := services.NewTaskService(tasks, logger)
	authHandler := NewAuthHandler(accounts, sessions)

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)
	r.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, accounts, sessions)
	})
	r.Route("/api/projects", func(r chi.Router) {
		ProjectRouter(r, projectService, taskService, authHandler.RequireAuth)
	})

	return &testEnv{
		router:   r,
		users:    users,
		tokens:   tokens,
		mail:     mail,
		projects: projects,
		tasks:    tasks,
		sessions: sessions,
	}
}

func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// signup registers, confirms, and logs a user in, returning the session
// token.
func (e *testEnv) signup(t *testing.T, name, email string) string {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/api/auth/create-account", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	code := e.mail.LastConfirmation().Code
	rr = e.do(t, http.MethodPost, "/api/auth/confirm-account", "", map[string]string{"token": code})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Error
}

func TestHealthz(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAccountFlow(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodPost, "/api/auth/create-account", "", map[string]string{
		"name": "Ana", "email": "a@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	// Login before confirming fails and reissues a code.
	rr = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, decodeError(t, rr), "no ha sido confirmada")
	assert.Len(t, env.mail.Confirmations(), 2)

	code := env.mail.LastConfirmation().Code
	rr = env.do(t, http.MethodPost, "/api/auth/confirm-account", "", map[string]string{"token": code})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	rr = env.do(t, http.MethodGet, "/api/auth/user", resp.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "a@x.com")
	assert.NotContains(t, body, "password")
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv()

	for _, tc := range []struct {
		name    string
		payload map[string]string
		want    string
	}{
		{"empty name", map[string]string{"name": "  ", "email": "a@x.com", "password": "secret123"}, "El nombre no puede ir vacío"},
		{"bad email", map[string]string{"name": "Ana", "email": "not-an-email", "password": "secret123"}, "E-mail no válido"},
		{"short password", map[string]string{"name": "Ana", "email": "a@x.com", "password": "corto"}, "Password muy corto, mínimo 8 caracteres"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/auth/create-account", "", tc.payload)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.want, decodeError(t, rr))
		})
	}
}

func TestDuplicateAccount(t *testing.T) {
	env := newTestEnv()
	env.signup(t, "Ana", "a@x.com")

	rr := env.do(t, http.MethodPost, "/api/auth/create-account", "", map[string]string{
		"name": "Otra", "email": "a@x.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Usuario ya está registrado", decodeError(t, rr))
}

func TestRequireAuthRejections(t *testing.T) {
	env := newTestEnv()
	env.signup(t, "Ana", "a@x.com")

	foreign, err := auth.NewSessionIssuer("other-secret").Issue(1)
	require.NoError(t, err)

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "garbage"},
		{"wrong secret", foreign},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/auth/user", tc.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "No autorizado", decodeError(t, rr))
		})
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv()
	env.signup(t, "Ana", "a@x.com")

	rr := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rr.Code)

	code := env.mail.LastReset().Code
	rr = env.do(t, http.MethodPost, "/api/auth/validate-token", "", map[string]string{"token": code})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/update-password/"+code, "", map[string]string{"password": "brandnew99"})
	require.Equal(t, http.StatusOK, rr.Code)

	// The code is single-use.
	rr = env.do(t, http.MethodPost, "/api/auth/validate-token", "", map[string]string{"token": code})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "brandnew99",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateProfileAndPassword(t *testing.T) {
	env := newTestEnv()
	token := env.signup(t, "Ana", "a@x.com")
	env.signup(t, "Beto", "b@x.com")

	rr := env.do(t, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"name": "Ana", "email": "b@x.com",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Ese email ya está registrado", decodeError(t, rr))

	rr = env.do(t, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"name": "Ana María", "email": "ana@x.com",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/check-password", token, map[string]string{"password": "secret123"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/update-password", token, map[string]string{
		"current_password": "wrongpass", "password": "brandnew99",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "El password actual no es correcto", decodeError(t, rr))

	rr = env.do(t, http.MethodPost, "/api/auth/update-password", token, map[string]string{
		"current_password": "secret123", "password": "brandnew99",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/auth/check-password", token, map[string]string{"password": "brandnew99"})
	assert.Equal(t, http.StatusOK, rr.Code)
}
