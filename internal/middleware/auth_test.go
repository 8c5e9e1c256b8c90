package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/auth-starter/internal/model"
	"github.com/medflow/auth-starter/internal/repository"
	"github.com/medflow/auth-starter/internal/util"
)

const testSecret = "middleware-test-secret"

// stubUserRepo serves a single fixed user.
type stubUserRepo struct {
	repository.UserRepository
	user *model.User
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository { return s }

func TestAuthMiddleware(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "doc@clinic.test", Role: model.RoleDoctor}
	m := NewAuthMiddleware(&stubUserRepo{user: user}, testSecret)

	var captured *model.User
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("accepts a valid bearer token", func(t *testing.T) {
		token, err := util.NewAccessToken(testSecret, "user-1", "doctor", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "user-1", captured.ID)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token, err := util.NewAccessToken("other-secret", "user-1", "doctor", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token, err := util.NewAccessToken(testSecret, "user-1", "doctor", -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token for a deleted user", func(t *testing.T) {
		token, err := util.NewAccessToken(testSecret, "user-gone", "doctor", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetUser(t *testing.T) {
	t.Run("returns nil without a user in context", func(t *testing.T) {
		assert.Nil(t, GetUser(context.Background()))
	})
}
