package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/medflow/auth-starter/internal/errors"
	"github.com/medflow/auth-starter/internal/middleware"
	"github.com/medflow/auth-starter/internal/model"
	"github.com/medflow/auth-starter/internal/service"
)

// OAuthHandler serves the authenticated user's linked identities; mounted
// behind the auth middleware.
type OAuthHandler struct {
	oauthService *service.OAuthService
}

func NewOAuthHandler(oauthService *service.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

func (h *OAuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Link)
	r.Delete("/{id}", h.Unlink)

	return r
}

func (h *OAuthHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	accounts, err := h.oauthService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if accounts == nil {
		accounts = []model.OAuthAccount{}
	}

	writeJSON(w, http.StatusOK, accounts)
}

type linkRequest struct {
	Provider       string  `json:"provider"`
	ProviderUserID string  `json:"providerUserId"`
	AccessToken    *string `json:"accessToken"`
	RefreshToken   *string `json:"refreshToken"`
	ExpiresAt      *int64  `json:"expiresAt"`
}

func (h *OAuthHandler) Link(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}

	account, err := h.oauthService.Link(r.Context(), user.ID, model.CreateOAuthAccountParams{
		Provider:       req.Provider,
		ProviderUserID: req.ProviderUserID,
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *OAuthHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	if err := h.oauthService.Unlink(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
