package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/medflow/auth-starter/internal/errors"
	"github.com/medflow/auth-starter/internal/model"
	"github.com/medflow/auth-starter/internal/repository"
)

// OAuthService manages the external identities linked to a user. Provider
// handshakes happen at the edge; by the time this service runs, the
// provider's user id and tokens are already verified.
type OAuthService struct {
	userRepo  repository.UserRepository
	oauthRepo repository.OAuthAccountRepository
}

func NewOAuthService(userRepo repository.UserRepository, oauthRepo repository.OAuthAccountRepository) *OAuthService {
	return &OAuthService{
		userRepo:  userRepo,
		oauthRepo: oauthRepo,
	}
}

func (s *OAuthService) Link(ctx context.Context, userID string, params model.CreateOAuthAccountParams) (*model.OAuthAccount, error) {
	if params.Provider == "" {
		return nil, apperrors.MissingRequired("provider")
	}
	if params.ProviderUserID == "" {
		return nil, apperrors.MissingRequired("providerUserId")
	}
	params.UserID = userID

	existing, err := s.oauthRepo.FindByProviderUserID(ctx, params.Provider, params.ProviderUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID == userID {
			return nil, apperrors.AlreadyExists("OAuth account")
		}
		return nil, apperrors.New(apperrors.ErrCodeConflict, "External identity is linked to another user")
	}

	account, err := s.oauthRepo.Create(ctx, params)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("OAuth account").WithCause(err)
		}
		return nil, err
	}

	log.Info().
		Str("userId", userID).
		Str("provider", params.Provider).
		Msg("oauth account linked")
	return account, nil
}

func (s *OAuthService) List(ctx context.Context, userID string) ([]model.OAuthAccount, error) {
	return s.oauthRepo.FindByUserID(ctx, userID)
}

// Unlink removes a linked identity, refusing to strip the user's last way
// of signing in: a password-less user keeps at least one OAuth account.
func (s *OAuthService) Unlink(ctx context.Context, userID, accountID string) error {
	accounts, err := s.oauthRepo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}

	var target *model.OAuthAccount
	for i := range accounts {
		if accounts[i].ID == accountID {
			target = &accounts[i]
			break
		}
	}
	if target == nil {
		return apperrors.NotFound("OAuth account")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("User")
	}
	if user.HashedPassword == nil && len(accounts) == 1 {
		return apperrors.New(apperrors.ErrCodeConflict, "Cannot unlink the last authentication method")
	}

	if err := s.oauthRepo.Delete(ctx, target.ID); err != nil {
		return err
	}

	log.Info().
		Str("userId", userID).
		Str("provider", target.Provider).
		Msg("oauth account unlinked")
	return nil
}
