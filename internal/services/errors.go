package services

// Kind classifies a workflow failure. The set is closed; handlers map each
// kind onto an HTTP status without string matching.
type Kind int

const (
	// KindConflict signals a duplicate, e.g. an email already registered.
	KindConflict Kind = iota
	// KindNotFound signals a missing user, token, or project.
	KindNotFound
	// KindUnauthorized signals a bad credential or an unconfirmed account.
	KindUnauthorized
	// KindForbidden signals an operation the acting user may not perform.
	KindForbidden
	// KindUnauthenticated signals a missing or invalid session.
	KindUnauthenticated
	// KindInternal signals an unexpected failure. The message is fixed so
	// no internal detail leaks to the client.
	KindInternal
)

// Error is a workflow failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Internal returns the generic failure. Callers log the underlying error
// server-side before returning this.
func Internal() *Error {
	return &Error{Kind: KindInternal, Message: "Hubo un error"}
}
