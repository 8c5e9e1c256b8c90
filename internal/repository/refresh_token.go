package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/medflow/auth-starter/internal/errors"
	"github.com/medflow/auth-starter/internal/model"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, params model.CreateRefreshTokenParams) (*model.RefreshToken, error)
	FindByTokenHash(ctx context.Context, hashedToken string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	MarkReplaced(ctx context.Context, id, replacedByID string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	CountForUser(ctx context.Context, userID string) (int, error)
	DeleteExpired(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) RefreshTokenRepository
}

type refreshTokenRepo struct {
	db sqlxDB
}

func NewRefreshTokenRepository(db *sqlx.DB) RefreshTokenRepository {
	return &refreshTokenRepo{db: db}
}

func (r *refreshTokenRepo) WithTx(tx *sqlx.Tx) RefreshTokenRepository {
	return &refreshTokenRepo{db: tx}
}

func (r *refreshTokenRepo) Create(ctx context.Context, params model.CreateRefreshTokenParams) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO refresh_tokens (user_id, hashed_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.UserID, params.HashedToken, params.ExpiresAt)
	if err != nil {
		return nil, apperrors.FromPostgres(err)
	}
	return &token, nil
}

func (r *refreshTokenRepo) FindByTokenHash(ctx context.Context, hashedToken string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM refresh_tokens WHERE hashed_token = $1
	`, hashedToken)
	return HandleNotFound(&token, err)
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = true WHERE id = $1
	`, id)
	return err
}

// MarkReplaced revokes the token and points it at its successor, extending
// the rotation chain.
func (r *refreshTokenRepo) MarkReplaced(ctx context.Context, id, replacedByID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = true, replaced_by = $2 WHERE id = $1
	`, id, replacedByID)
	return apperrors.FromPostgres(err)
}

func (r *refreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = true
		WHERE user_id = $1 AND NOT revoked
	`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *refreshTokenRepo) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1`, userID)
	return count, err
}

// DeleteExpired removes tokens that are past expiry and no longer the head
// of anyone's rotation chain. Referencing predecessors go first by virtue of
// the chain pointing forward, so the self-referential FK never blocks this.
func (r *refreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < now()
		  AND id NOT IN (SELECT replaced_by FROM refresh_tokens WHERE replaced_by IS NOT NULL)
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
