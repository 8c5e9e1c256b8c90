package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/medflow/auth-starter/internal/errors"
	"github.com/medflow/auth-starter/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error)
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
	MarkEmailVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db sqlxDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	role := params.Role
	if role == "" {
		role = model.RoleDoctor
	}

	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (email, hashed_password, role)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.Email, params.HashedPassword, role)
	if err != nil {
		return nil, apperrors.FromPostgres(err)
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE email = $1
	`, email)
	return HandleNotFound(&user, err)
}

// Update refreshes updated_at from the application clock; created_at is
// never touched after insert.
func (r *userRepo) Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			email = COALESCE($2, email),
			email_verified = COALESCE($3, email_verified),
			role = COALESCE($4, role),
			updated_at = $5
		WHERE id = $1
		RETURNING *
	`, id, params.Email, params.EmailVerified, params.Role, time.Now())
	if err != nil {
		return HandleNotFound(&user, apperrors.FromPostgres(err))
	}
	return &user, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET hashed_password = $2, updated_at = $3 WHERE id = $1
	`, id, hashedPassword, time.Now())
	return err
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET email_verified = true, updated_at = $2 WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}
