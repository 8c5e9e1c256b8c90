package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/auth-starter/internal/database"
	apperrors "github.com/medflow/auth-starter/internal/errors"
	"github.com/medflow/auth-starter/internal/model"
	"github.com/medflow/auth-starter/internal/repository"
	"github.com/medflow/auth-starter/internal/schema"
	"github.com/medflow/auth-starter/internal/util"
)

func TestAuthService_Register(t *testing.T) {
	svc, db := setupAuthService(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("registers with hashed password", func(t *testing.T) {
		user, err := svc.Register(ctx, "doc@clinic.test", "hunter22", "")
		require.NoError(t, err)
		assert.Equal(t, model.RoleDoctor, user.Role)
		require.NotNil(t, user.HashedPassword)
		assert.NotEqual(t, "hunter22", *user.HashedPassword)
		assert.True(t, util.CheckPasswordHash("hunter22", *user.HashedPassword))
	})

	t.Run("rejects duplicate email with ALREADY_EXISTS", func(t *testing.T) {
		_, err := svc.Register(ctx, "doc@clinic.test", "hunter22", "")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
	})

	t.Run("rejects admin self-registration", func(t *testing.T) {
		_, err := svc.Register(ctx, "boss@clinic.test", "hunter22", model.RoleAdmin)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	})

	t.Run("rejects unknown role before hitting storage", func(t *testing.T) {
		_, err := svc.Register(ctx, "nurse@clinic.test", "hunter22", model.Role("nurse"))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := svc.Register(ctx, "", "hunter22", "")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))

		_, err = svc.Register(ctx, "x@clinic.test", "", "")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	svc, db := setupAuthService(t)
	defer db.Close()
	ctx := context.Background()

	_, err := svc.Register(ctx, "login@clinic.test", "hunter22", model.RolePatient)
	require.NoError(t, err)

	t.Run("issues a token pair on valid credentials", func(t *testing.T) {
		user, pair, err := svc.Login(ctx, "login@clinic.test", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, model.RolePatient, user.Role)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)

		claims, err := util.ParseAccessToken("test-secret", pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.Subject)
		assert.Equal(t, "patient", claims.Role)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "login@clinic.test", "wrong")
		assert.Equal(t, apperrors.ErrCodeInvalidCredentials, apperrors.GetCode(err))
	})

	t.Run("rejects unknown email with the same error", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "who@clinic.test", "hunter22")
		assert.Equal(t, apperrors.ErrCodeInvalidCredentials, apperrors.GetCode(err))
	})
}

func TestAuthService_Refresh(t *testing.T) {
	svc, db := setupAuthService(t)
	defer db.Close()
	ctx := context.Background()

	_, err := svc.Register(ctx, "refresh@clinic.test", "hunter22", "")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "refresh@clinic.test", "hunter22")
	require.NoError(t, err)

	t.Run("rotates the refresh token", func(t *testing.T) {
		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// old token is now revoked and points at its replacement
		tokenRepo := repository.NewRefreshTokenRepository(db.DB)
		old, err := tokenRepo.FindByTokenHash(ctx, util.HashToken(pair.RefreshToken))
		require.NoError(t, err)
		require.NotNil(t, old)
		assert.True(t, old.Revoked)
		require.NotNil(t, old.ReplacedBy)

		replacement, err := tokenRepo.FindByTokenHash(ctx, util.HashToken(next.RefreshToken))
		require.NoError(t, err)
		require.NotNil(t, replacement)
		assert.Equal(t, replacement.ID, *old.ReplacedBy)
	})

	t.Run("reusing the rotated token revokes the whole family", func(t *testing.T) {
		// a second live session that reuse detection must also kill
		_, sibling, err := svc.Login(ctx, "refresh@clinic.test", "hunter22")
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeTokenRevoked, apperrors.GetCode(err))

		// the revocation must have been committed, not rolled back with
		// the failed refresh: the sibling token is now unusable and a
		// direct read sees it revoked
		tokenRepo := repository.NewRefreshTokenRepository(db.DB)
		stored, err := tokenRepo.FindByTokenHash(ctx, util.HashToken(sibling.RefreshToken))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.Revoked, "family revocation must persist after the refresh error")

		_, err = svc.Refresh(ctx, sibling.RefreshToken)
		assert.Equal(t, apperrors.ErrCodeTokenRevoked, apperrors.GetCode(err))

		user, err := repository.NewUserRepository(db.DB).FindByEmail(ctx, "refresh@clinic.test")
		require.NoError(t, err)

		revoked, err := tokenRepo.RevokeAllForUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, revoked, "reuse detection should already have revoked everything")
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "never-issued")
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})
}

func TestAuthService_Logout(t *testing.T) {
	svc, db := setupAuthService(t)
	defer db.Close()
	ctx := context.Background()

	_, err := svc.Register(ctx, "logout@clinic.test", "hunter22", "")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "logout@clinic.test", "hunter22")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, apperrors.ErrCodeTokenRevoked, apperrors.GetCode(err))

	// logging out twice is fine
	assert.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	assert.NoError(t, svc.Logout(ctx, "never-issued"))
}

func setupAuthService(t *testing.T) (*AuthService, *database.DB) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping live database test")
	}

	db, err := database.Connect(url, "test")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, schema.Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `DELETE FROM users`)
	require.NoError(t, err)

	svc := NewAuthService(
		db,
		repository.NewUserRepository(db.DB),
		repository.NewRefreshTokenRepository(db.DB),
		"test-secret",
		15*time.Minute,
		30*24*time.Hour,
	)
	return svc, db
}
