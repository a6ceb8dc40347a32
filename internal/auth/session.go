package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the validity window of an issued session token.
const SessionTTL = 180 * 24 * time.Hour

// ErrInvalidSession is returned when a session token fails verification
// for any reason: bad signature, wrong method, expiry, or a bad subject.
var ErrInvalidSession = errors.New("invalid session")

// SessionIssuer signs and verifies stateless session tokens. Validity is
// decided purely by signature and expiry; nothing is persisted.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionIssuer(secret string) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    SessionTTL,
	}
}

// Issue signs a token whose subject is the user id.
func (s *SessionIssuer) Issue(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the embedded user id.
func (s *SessionIssuer) Verify(tokenString string) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidSession
	}
	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrInvalidSession
	}
	return userID, nil
}
