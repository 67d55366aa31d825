package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"go.uber.org/zap"

	"restora/internal/auth"
	"restora/internal/config"
	"restora/internal/repo"
	"restora/models"
)

// UserHandler runs the OAuth login flow and serves the profile endpoint.
// Identity itself is delegated to the external provider; the callback only
// upserts a profile row and mints the bearer token the API middleware checks.
type UserHandler struct {
	Profiles repo.ProfileRepository
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

func NewUserHandler(profiles repo.ProfileRepository, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{Profiles: profiles, Logger: logger, Config: cfg}
}

// BeginAuth handles GET /auth/{provider}.
func (h *UserHandler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	if user, err := gothic.CompleteUserAuth(w, r); err == nil {
		h.finishLogin(w, r, user.Email, user.Name, user.AvatarURL, user.Provider)
		return
	}
	gothic.BeginAuthHandler(w, r)
}

// Callback handles GET /auth/{provider}/callback.
func (h *UserHandler) Callback(w http.ResponseWriter, r *http.Request) {
	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.Logger.Warnw("oauth callback failed", "error", err)
		writeError(w, http.StatusUnauthorized, "authentication failed")
		return
	}
	h.finishLogin(w, r, user.Email, user.Name, user.AvatarURL, user.Provider)
}

func (h *UserHandler) finishLogin(w http.ResponseWriter, r *http.Request, email, name, avatarURL, provider string) {
	if email == "" {
		writeError(w, http.StatusUnauthorized, "provider returned no email")
		return
	}

	profile, err := h.Profiles.UpsertByEmail(r.Context(), &models.Profile{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: name,
		AvatarURL:   avatarURL,
		Provider:    provider,
	})
	if err != nil {
		h.Logger.Errorw("upsert profile", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := auth.IssueToken(profile.ID, h.Config.AuthSecret)
	if err != nil {
		h.Logger.Errorw("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"profile": profile,
	})
}

// Logout handles POST /logout/{provider}.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_ = gothic.Logout(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

// GetProfile handles GET /api/profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	profile, err := h.Profiles.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
