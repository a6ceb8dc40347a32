package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskhive-app/apiserver/types"
)

// TokenRepository handles persistence for confirmation and reset codes.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token types.Token) (types.Token, error) {
	token.CreatedAt = time.Now()
	token.ExpiresAt = token.CreatedAt.Add(types.TokenTTL)

	const query = `
		INSERT INTO tokens (code, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		token.Code,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
	).Scan(&token.ID); err != nil {
		return types.Token{}, err
	}
	return token, nil
}

// GetByCode resolves a live code. Expired rows are invisible here, so a
// stale code behaves exactly like one that never existed.
func (r *TokenRepository) GetByCode(ctx context.Context, code string) (types.Token, error) {
	const query = `
		SELECT id, code, user_id, created_at, expires_at
		FROM tokens
		WHERE code = $1 AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1`
	var token types.Token
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&token.ID,
		&token.Code,
		&token.UserID,
		&token.CreatedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Token{}, ErrNotFound
		}
		return types.Token{}, err
	}
	return token, nil
}

func (r *TokenRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM tokens WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
