package types

import "time"

// TokenTTL is the validity window of a confirmation or reset code.
const TokenTTL = 10 * time.Minute

// Token is a single-use 6-digit code mailed to a user to prove control
// of their email address. Codes are not globally unique; a user may hold
// several live codes at once.
type Token struct {
	// ID is the unique identifier of the token row.
	ID int `json:"id" db:"id"`

	// Code is the 6-digit decimal code, zero-padded.
	Code string `json:"token" db:"code"`

	// UserID references the user the code was issued to.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp the code was issued.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// ExpiresAt is CreatedAt plus TokenTTL. Expired codes are treated
	// as nonexistent by every lookup.
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}
