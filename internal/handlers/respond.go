package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"famnote/internal/service"
	"famnote/internal/utils"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service layer's sentinel errors onto HTTP
// statuses. Anything unrecognized is a 500 with a generic body; the detail
// goes to the log only.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr utils.ValidationError
	if errors.As(err, &validationErr) {
		respondError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrAlreadyInFamily):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInviteCode):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownNoteCategory):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrFamilyNotFound), errors.Is(err, service.ErrNoteNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotFamilyMember):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
