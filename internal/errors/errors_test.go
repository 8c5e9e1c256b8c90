package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("Error includes code and message", func(t *testing.T) {
		err := New(ErrCodeNotFound, "user not found")
		assert.Equal(t, "NOT_FOUND: user not found", err.Error())
	})

	t.Run("Wrap preserves the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeDatabase, "query failed", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("GetCode falls back to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
		assert.Equal(t, ErrCodeTokenExpired, GetCode(TokenExpired()))
	})

	t.Run("AsAppError unwraps through fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("service: %w", InvalidCredentials())
		appErr, ok := AsAppError(wrapped)
		require.True(t, ok)
		assert.Equal(t, ErrCodeInvalidCredentials, appErr.Code)
	})
}

func TestFromPostgres(t *testing.T) {
	t.Run("maps unique violation", func(t *testing.T) {
		pqErr := &pq.Error{Code: "23505", Constraint: "users_email_unique"}
		err := FromPostgres(pqErr)
		assert.Equal(t, ErrCodeUniqueViolation, GetCode(err))
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("maps check violation", func(t *testing.T) {
		pqErr := &pq.Error{Code: "23514", Constraint: "users_role_check"}
		err := FromPostgres(pqErr)
		assert.Equal(t, ErrCodeCheckViolation, GetCode(err))
		assert.True(t, IsCheckViolation(err))
	})

	t.Run("maps foreign key violation", func(t *testing.T) {
		pqErr := &pq.Error{Code: "23503", Constraint: "oauth_accounts_user_id_fkey"}
		err := FromPostgres(pqErr)
		assert.Equal(t, ErrCodeForeignKeyViolation, GetCode(err))
	})

	t.Run("passes through non-constraint errors", func(t *testing.T) {
		plain := errors.New("broken pipe")
		assert.Equal(t, plain, FromPostgres(plain))
		assert.Nil(t, FromPostgres(nil))
	})

	t.Run("keeps driver error reachable via errors.As", func(t *testing.T) {
		pqErr := &pq.Error{Code: "23505"}
		err := FromPostgres(pqErr)
		var unwrapped *pq.Error
		assert.True(t, errors.As(err, &unwrapped))
	})
}
