package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/medflow/auth-starter/internal/errors"
	"github.com/medflow/auth-starter/internal/model"
)

type OAuthAccountRepository interface {
	Create(ctx context.Context, params model.CreateOAuthAccountParams) (*model.OAuthAccount, error)
	FindByProviderUserID(ctx context.Context, provider, providerUserID string) (*model.OAuthAccount, error)
	FindByUserID(ctx context.Context, userID string) ([]model.OAuthAccount, error)
	UpdateTokens(ctx context.Context, id string, accessToken, refreshToken *string, expiresAt *int64) error
	Delete(ctx context.Context, id string) error
	CountForUser(ctx context.Context, userID string) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) OAuthAccountRepository
}

type oauthAccountRepo struct {
	db sqlxDB
}

func NewOAuthAccountRepository(db *sqlx.DB) OAuthAccountRepository {
	return &oauthAccountRepo{db: db}
}

func (r *oauthAccountRepo) WithTx(tx *sqlx.Tx) OAuthAccountRepository {
	return &oauthAccountRepo{db: tx}
}

func (r *oauthAccountRepo) Create(ctx context.Context, params model.CreateOAuthAccountParams) (*model.OAuthAccount, error) {
	var account model.OAuthAccount
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO oauth_accounts (user_id, provider, provider_user_id, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.UserID, params.Provider, params.ProviderUserID,
		params.AccessToken, params.RefreshToken, params.ExpiresAt)
	if err != nil {
		return nil, apperrors.FromPostgres(err)
	}
	return &account, nil
}

func (r *oauthAccountRepo) FindByProviderUserID(ctx context.Context, provider, providerUserID string) (*model.OAuthAccount, error) {
	var account model.OAuthAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM oauth_accounts
		WHERE provider = $1 AND provider_user_id = $2
	`, provider, providerUserID)
	return HandleNotFound(&account, err)
}

func (r *oauthAccountRepo) FindByUserID(ctx context.Context, userID string) ([]model.OAuthAccount, error) {
	var accounts []model.OAuthAccount
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM oauth_accounts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *oauthAccountRepo) UpdateTokens(ctx context.Context, id string, accessToken, refreshToken *string, expiresAt *int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE oauth_accounts SET
			access_token = $2,
			refresh_token = $3,
			expires_at = $4
		WHERE id = $1
	`, id, accessToken, refreshToken, expiresAt)
	return err
}

func (r *oauthAccountRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oauth_accounts WHERE id = $1`, id)
	return err
}

func (r *oauthAccountRepo) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM oauth_accounts WHERE user_id = $1`, userID)
	return count, err
}
