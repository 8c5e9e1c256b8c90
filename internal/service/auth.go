package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medflow/auth-starter/internal/database"
	apperrors "github.com/medflow/auth-starter/internal/errors"
	"github.com/medflow/auth-starter/internal/model"
	"github.com/medflow/auth-starter/internal/repository"
	"github.com/medflow/auth-starter/internal/util"
)

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

type AuthService struct {
	db         *database.DB
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	db *database.DB,
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string, role model.Role) (*model.User, error) {
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	if password == "" {
		return nil, apperrors.MissingRequired("password")
	}
	if role == "" {
		role = model.RoleDoctor
	}
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role", "must be doctor, patient or admin")
	}
	// Admin accounts are seeded out-of-band (see scripts/hash-password.go),
	// never self-registered.
	if role == model.RoleAdmin {
		return nil, apperrors.Forbidden("Admin accounts cannot self-register")
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, model.CreateUserParams{
		Email:          email,
		HashedPassword: &hashed,
		Role:           role,
	})
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("User").WithCause(err)
		}
		return nil, err
	}

	log.Info().Str("userId", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.HashedPassword == nil {
		return nil, nil, apperrors.InvalidCredentials()
	}
	if !util.CheckPasswordHash(password, *user.HashedPassword) {
		log.Warn().Str("userId", user.ID).Msg("failed login attempt")
		return nil, nil, apperrors.InvalidCredentials()
	}

	pair, err := s.issueTokens(ctx, s.tokenRepo, user)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("userId", user.ID).Msg("user logged in")
	return user, pair, nil
}

// Refresh exchanges a live refresh token for a new pair. The old token is
// revoked and pointed at its successor inside one transaction, so a crash
// mid-rotation never leaves both tokens usable. Presenting an
// already-revoked token revokes every token the user holds: the raw secret
// has leaked or the client is replaying.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	if rawToken == "" {
		return nil, apperrors.MissingRequired("refreshToken")
	}
	tokenHash := util.HashToken(rawToken)

	var pair *TokenPair
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		tokenRepo := s.tokenRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		current, err := tokenRepo.FindByTokenHash(ctx, tokenHash)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.InvalidToken("Unknown refresh token")
		}

		if current.Revoked {
			// Returning an error aborts the surrounding transaction, so the
			// family revocation must go through the shared handle or it
			// would be rolled back along with it.
			revoked, revokeErr := s.tokenRepo.RevokeAllForUser(ctx, current.UserID)
			if revokeErr != nil {
				return revokeErr
			}
			log.Warn().
				Str("userId", current.UserID).
				Int64("revoked", revoked).
				Msg("revoked token reuse detected; all user tokens revoked")
			return apperrors.TokenRevoked()
		}
		if !current.Valid(time.Now()) {
			return apperrors.TokenExpired()
		}

		user, err := userRepo.FindByID(ctx, current.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.InvalidToken("Token owner no longer exists")
		}

		pair, err = s.issueTokens(ctx, tokenRepo, user)
		if err != nil {
			return err
		}

		next, err := tokenRepo.FindByTokenHash(ctx, util.HashToken(pair.RefreshToken))
		if err != nil {
			return err
		}
		return tokenRepo.MarkReplaced(ctx, current.ID, next.ID)
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return apperrors.MissingRequired("refreshToken")
	}

	token, err := s.tokenRepo.FindByTokenHash(ctx, util.HashToken(rawToken))
	if err != nil {
		return err
	}
	if token == nil {
		// Nothing to revoke; logout is idempotent.
		return nil
	}

	return s.tokenRepo.Revoke(ctx, token.ID)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, tokenRepo repository.RefreshTokenRepository, user *model.User) (*TokenPair, error) {
	access, err := util.NewAccessToken(s.jwtSecret, user.ID, string(user.Role), s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	raw, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	_, err = tokenRepo.Create(ctx, model.CreateRefreshTokenParams{
		UserID:      user.ID,
		HashedToken: util.HashToken(raw),
		ExpiresAt:   time.Now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}
