// Package mailer delivers account emails. The account workflow treats
// delivery as best-effort: a failed send is logged and never rolls back
// the write that preceded it.
package mailer

import "context"

// Mailer sends the two account emails carrying a 6-digit code.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, toEmail, name, code string) error
	SendPasswordResetCode(ctx context.Context, toEmail, name, code string) error
}
