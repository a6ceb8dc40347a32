package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/taskhive-app/apiserver/internal/auth"
	"github.com/taskhive-app/apiserver/internal/services"
)

const minPasswordLen = 8

// AuthHandler provides the account and session endpoints.
type AuthHandler struct {
	accounts *services.AccountService
	sessions *auth.SessionIssuer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(accounts *services.AccountService, sessions *auth.SessionIssuer) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, accounts *services.AccountService, sessions *auth.SessionIssuer) {
	handler := NewAuthHandler(accounts, sessions)

	r.Post("/create-account", handler.CreateAccount)
	r.Post("/confirm-account", handler.ConfirmAccount)
	r.Post("/login", handler.Login)
	r.Post("/request-code", handler.RequestCode)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/validate-token", handler.ValidateToken)
	r.Post("/update-password/{token}", handler.UpdatePasswordWithToken)

	r.Group(func(r chi.Router) {
		r.Use(handler.RequireAuth)
		r.Get("/user", handler.User)
		r.Put("/profile", handler.UpdateProfile)
		r.Post("/update-password", handler.UpdateOwnPassword)
		r.Post("/check-password", handler.CheckPassword)
	})
}

// RequireAuth verifies the bearer session, resolves the acting user, and
// injects it into the request context. Missing or invalid sessions fail
// 401; a session whose user no longer exists fails 404.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeServiceError(w, services.Unauthenticated("No autorizado"))
			return
		}

		userID, err := h.sessions.Verify(tokenString)
		if err != nil {
			writeServiceError(w, services.Unauthenticated("No autorizado"))
			return
		}

		user, err := h.accounts.GetByID(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CreateAccount registers a new user and mails a confirmation code.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "El nombre no puede ir vacío")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "E-mail no válido")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "Password muy corto, mínimo 8 caracteres")
		return
	}

	if err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Cuenta creada con éxito. Revisa tu email para confirmarla")
}

// ConfirmAccount redeems a confirmation code.
func (h *AuthHandler) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "Token no válido")
		return
	}

	if err := h.accounts.ConfirmAccount(r.Context(), strings.TrimSpace(req.Token)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Cuenta confirmada con éxito")
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: token})
}

// RequestCode reissues a confirmation code for an unconfirmed account.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	email, ok := decodeEmail(w, r)
	if !ok {
		return
	}
	if err := h.accounts.RequestConfirmationCode(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Se ha enviado un nuevo token a tu email")
}

// ForgotPassword starts the password-reset flow.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email, ok := decodeEmail(w, r)
	if !ok {
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Revisa tu email para instrucciones")
}

// ValidateToken checks a reset code without consuming it.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "Token no válido")
		return
	}

	if err := h.accounts.ValidateToken(r.Context(), strings.TrimSpace(req.Token)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Token válido. Define tu nuevo password")
}

// UpdatePasswordWithToken consumes a reset code and sets a new password.
func (h *AuthHandler) UpdatePasswordWithToken(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "token"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "Token no válido")
		return
	}

	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "Password muy corto, mínimo 8 caracteres")
		return
	}

	if err := h.accounts.UpdatePasswordWithToken(r.Context(), code, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password actualizado con éxito")
}

// User returns the acting user.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.Unauthenticated("No autorizado"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the acting user's name and email.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.Unauthenticated("No autorizado"))
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "El nombre no puede ir vacío")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "E-mail no válido")
		return
	}

	if err := h.accounts.UpdateProfile(r.Context(), user.ID, req.Name, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Perfil actualizado con éxito")
}

// UpdateOwnPassword replaces the acting user's password.
func (h *AuthHandler) UpdateOwnPassword(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.Unauthenticated("No autorizado"))
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "Password muy corto, mínimo 8 caracteres")
		return
	}

	if err := h.accounts.UpdateOwnPassword(r.Context(), user.ID, req.CurrentPassword, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password actualizado con éxito")
}

// CheckPassword verifies the acting user's password.
func (h *AuthHandler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeServiceError(w, services.Unauthenticated("No autorizado"))
		return
	}

	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.accounts.CheckOwnPassword(r.Context(), user.ID, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password Correcto")
}

type CreateAccountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

func decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return "", false
	}
	email := strings.TrimSpace(req.Email)
	if !validEmail(email) {
		writeError(w, http.StatusBadRequest, "E-mail no válido")
		return "", false
	}
	return email, true
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
