package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taskhive-app/apiserver/internal/auth"
	"github.com/taskhive-app/apiserver/internal/mailer"
	"github.com/taskhive-app/apiserver/internal/store"
	"github.com/taskhive-app/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// TokenRepository defines persistence operations for confirmation and
// reset codes. GetByCode never returns expired rows.
type TokenRepository interface {
	Create(ctx context.Context, token types.Token) (types.Token, error)
	GetByCode(ctx context.Context, code string) (types.Token, error)
	Delete(ctx context.Context, id int) error
}

// AccountService orchestrates registration, confirmation, login, and the
// password-reset flow. All collaborators are injected; unexpected errors
// are logged and downgraded to the generic Internal failure so callers
// never see persistence detail.
type AccountService struct {
	users    UserRepository
	tokens   TokenRepository
	sessions *auth.SessionIssuer
	mail     mailer.Mailer
	logger   *slog.Logger
}

func NewAccountService(
	users UserRepository,
	tokens TokenRepository,
	sessions *auth.SessionIssuer,
	mail mailer.Mailer,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		mail:     mail,
		logger:   logger,
	}
}

// Register creates an unconfirmed user, issues a confirmation code, and
// mails it. The user insert and the token insert are sequenced; a token
// insert failure after the user exists is recoverable via
// RequestConfirmationCode, so it is reported but the user stays.
func (s *AccountService) Register(ctx context.Context, name, email, password string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return Conflict("Usuario ya está registrado")
	} else if !errors.Is(err, store.ErrNotFound) {
		return s.internal(ctx, "register: check email", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return s.internal(ctx, "register: hash password", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost the check-then-insert race; the unique index caught it.
			return Conflict("Usuario ya está registrado")
		}
		return s.internal(ctx, "register: create user", err)
	}

	return s.issueConfirmationCode(ctx, user)
}

// ConfirmAccount redeems a confirmation code. The user save happens before
// the token delete: if the delete fails the account is already confirmed
// and the leftover code ages out via expiry.
func (s *AccountService) ConfirmAccount(ctx context.Context, code string) error {
	token, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Token no válido")
		}
		return s.internal(ctx, "confirm: lookup token", err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return s.internal(ctx, "confirm: load user", err)
	}

	user.Confirmed = true
	if _, err := s.users.Update(ctx, user); err != nil {
		return s.internal(ctx, "confirm: save user", err)
	}
	if err := s.tokens.Delete(ctx, token.ID); err != nil {
		s.logger.WarnContext(ctx, "confirm: delete token", "error", err, "token_id", token.ID)
	}
	return nil
}

// Login verifies credentials and returns a signed session token. An
// unconfirmed account gets a fresh confirmation code mailed and fails
// Unauthorized; this path deliberately writes state.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", NotFound("Usuario no encontrado")
		}
		return "", s.internal(ctx, "login: lookup user", err)
	}

	if !user.Confirmed {
		if err := s.issueConfirmationCode(ctx, user); err != nil {
			return "", err
		}
		return "", Unauthorized("La cuenta no ha sido confirmada. Hemos enviado un email de confirmación")
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", Unauthorized("Password incorrecto")
	}

	session, err := s.sessions.Issue(user.ID)
	if err != nil {
		return "", s.internal(ctx, "login: issue session", err)
	}
	return session, nil
}

// RequestConfirmationCode reissues a confirmation code for an unconfirmed
// account.
func (s *AccountService) RequestConfirmationCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Usuario no está registrado")
		}
		return s.internal(ctx, "request code: lookup user", err)
	}

	if user.Confirmed {
		return Forbidden("El usuario ya está confirmado")
	}
	return s.issueConfirmationCode(ctx, user)
}

// ForgotPassword issues a password-reset code to a registered email.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Usuario no está registrado")
		}
		return s.internal(ctx, "forgot password: lookup user", err)
	}

	code, err := s.issueCode(ctx, user)
	if err != nil {
		return s.internal(ctx, "forgot password: issue code", err)
	}
	if err := s.mail.SendPasswordResetCode(ctx, user.Email, user.Name, code); err != nil {
		s.logger.ErrorContext(ctx, "forgot password: send email", "error", err, "user_id", user.ID)
	}
	return nil
}

// ValidateToken checks that a code is live without consuming it. Clients
// call it before presenting the new-password form.
func (s *AccountService) ValidateToken(ctx context.Context, code string) error {
	if _, err := s.tokens.GetByCode(ctx, code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Token no válido")
		}
		return s.internal(ctx, "validate token", err)
	}
	return nil
}

// UpdatePasswordWithToken consumes a reset code and replaces the owning
// user's password hash. Same write ordering as ConfirmAccount.
func (s *AccountService) UpdatePasswordWithToken(ctx context.Context, code, newPassword string) error {
	token, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Token no válido")
		}
		return s.internal(ctx, "reset password: lookup token", err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return s.internal(ctx, "reset password: load user", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return s.internal(ctx, "reset password: hash password", err)
	}

	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return s.internal(ctx, "reset password: save user", err)
	}
	if err := s.tokens.Delete(ctx, token.ID); err != nil {
		s.logger.WarnContext(ctx, "reset password: delete token", "error", err, "token_id", token.ID)
	}
	return nil
}

// GetByID resolves a user id to its account, for the authorization guard.
func (s *AccountService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, NotFound("Usuario no encontrado")
		}
		return types.User{}, s.internal(ctx, "get user", err)
	}
	return user, nil
}

// UpdateProfile changes the acting user's name and email. The email must
// not belong to another account.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int, name, email string) error {
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != userID {
		return Conflict("Ese email ya está registrado")
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return s.internal(ctx, "update profile: check email", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.internal(ctx, "update profile: load user", err)
	}

	user.Name = name
	user.Email = email
	if _, err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return Conflict("Ese email ya está registrado")
		}
		return s.internal(ctx, "update profile: save user", err)
	}
	return nil
}

// UpdateOwnPassword replaces the acting user's password after verifying
// the current one.
func (s *AccountService) UpdateOwnPassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.internal(ctx, "update password: load user", err)
	}

	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return Unauthorized("El password actual no es correcto")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return s.internal(ctx, "update password: hash password", err)
	}

	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return s.internal(ctx, "update password: save user", err)
	}
	return nil
}

// CheckOwnPassword verifies the acting user's password without mutating
// anything.
func (s *AccountService) CheckOwnPassword(ctx context.Context, userID int, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.internal(ctx, "check password: load user", err)
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return Unauthorized("El password no es correcto")
	}
	return nil
}

// issueConfirmationCode creates a code for the user and mails it. A send
// failure does not fail the operation; the code can be reissued.
func (s *AccountService) issueConfirmationCode(ctx context.Context, user types.User) error {
	code, err := s.issueCode(ctx, user)
	if err != nil {
		return s.internal(ctx, "issue confirmation code", err)
	}
	if err := s.mail.SendConfirmationCode(ctx, user.Email, user.Name, code); err != nil {
		s.logger.ErrorContext(ctx, "send confirmation email", "error", err, "user_id", user.ID)
	}
	return nil
}

func (s *AccountService) issueCode(ctx context.Context, user types.User) (string, error) {
	code, err := auth.GenerateCode()
	if err != nil {
		return "", err
	}
	if _, err := s.tokens.Create(ctx, types.Token{Code: code, UserID: user.ID}); err != nil {
		return "", err
	}
	return code, nil
}

func (s *AccountService) internal(ctx context.Context, op string, err error) *Error {
	s.logger.ErrorContext(ctx, op, "error", err)
	return Internal()
}
