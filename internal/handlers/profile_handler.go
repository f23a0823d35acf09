package handlers

import (
	"encoding/json"
	"net/http"

	"famnote/internal/service"
)

// ProfileHandler serves the caller's own profile
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile handles GET /api/me, creating or syncing the profile row from
// the token's identity claims as a side effect.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	user, err := h.profileService.Profile(identity.UserID, service.IdentityClaims{
		Email: identity.Email,
		Name:  identity.Name,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/me
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var req struct {
		Username string  `json:"username"`
		Image    *string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.profileService.UpdateProfile(identity.UserID, req.Username, req.Image)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
