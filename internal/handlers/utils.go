package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskhive-app/apiserver/internal/services"
	"github.com/taskhive-app/apiserver/types"
)

type contextKey string

const (
	contextUserKey    contextKey = "user"
	contextProjectKey contextKey = "project"
)

var (
	errInvalidRequest   = errors.New("invalid request")
	errMissingFields    = errors.New("missing required fields")
	errInvalidProjectID = errors.New("invalid project id")
	errInvalidTaskID    = errors.New("invalid task id")
)

func contextWithProject(ctx context.Context, project types.Project) context.Context {
	return context.WithValue(ctx, contextProjectKey, project)
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a simple success payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, errors.New("missing user")
	}
	return user, nil
}

func projectFromContext(ctx context.Context) (types.Project, error) {
	project, ok := ctx.Value(contextProjectKey).(types.Project)
	if !ok {
		return types.Project{}, errors.New("missing project")
	}
	return project, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeServiceError maps a workflow error onto its HTTP status. Anything
// outside the taxonomy is treated as internal.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		writeError(w, http.StatusInternalServerError, "Hubo un error")
		return
	}
	writeError(w, statusForKind(svcErr.Kind), svcErr.Message)
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindConflict:
		return http.StatusConflict
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnauthorized, services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
