package handlers

import (
	"encoding/json"
	"net/http"

	"famnote/internal/service"
	"famnote/internal/utils"
)

// FamilyHandler serves the family membership endpoints
type FamilyHandler struct {
	familyService  *service.FamilyService
	profileService *service.ProfileService
	emailService   *service.EmailService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService, profileService *service.ProfileService, emailService *service.EmailService) *FamilyHandler {
	return &FamilyHandler{
		familyService:  familyService,
		profileService: profileService,
		emailService:   emailService,
	}
}

// CreateFamily handles POST /api/family
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	family, err := h.familyService.CreateFamily(req.Name, identity.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, family)
}

// JoinFamily handles POST /api/family/join
func (h *FamilyHandler) JoinFamily(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	family, err := h.familyService.JoinFamily(req.Code, identity.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, family)
}

// GetFamily handles GET /api/family
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	family, err := h.familyService.GetUserFamily(identity.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if family == nil {
		respondError(w, http.StatusNotFound, "you do not belong to a family")
		return
	}

	respondJSON(w, http.StatusOK, family)
}

// GetMembers handles GET /api/family/members
func (h *FamilyHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	family, err := h.familyService.GetUserFamily(identity.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if family == nil {
		respondError(w, http.StatusNotFound, "you do not belong to a family")
		return
	}

	members, err := h.familyService.MembersWithNoteCounts(family.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, members)
}

// GetStats handles GET /api/family/stats
func (h *FamilyHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	family, err := h.familyService.GetUserFamily(identity.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if family == nil {
		respondError(w, http.StatusNotFound, "you do not belong to a family")
		return
	}

	stats, err := h.familyService.FamilyStats(family.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// SendInvite handles POST /api/family/invite, emailing the family's invite
// code to a prospective member.
func (h *FamilyHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		respondServiceError(w, err)
		return
	}

	family, err := h.familyService.GetUserFamily(identity.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if family == nil {
		respondError(w, http.StatusNotFound, "you do not belong to a family")
		return
	}

	inviter, err := h.profileService.Profile(identity.UserID, service.IdentityClaims{Email: identity.Email, Name: identity.Name})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.emailService.SendInviteEmail(r.Context(), req.Email, inviter.Username, family.Name, family.InviteCode); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
