package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"famnote/internal/models"
	"famnote/internal/service"
)

// maxImageSize bounds uploaded note images to 10 MB
const maxImageSize = 10 << 20

// NoteHandler serves the note feed endpoints
type NoteHandler struct {
	noteService   *service.NoteService
	familyService *service.FamilyService
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteService *service.NoteService, familyService *service.FamilyService) *NoteHandler {
	return &NoteHandler{noteService: noteService, familyService: familyService}
}

// ListNotes handles GET /api/notes, returning the caller's family feed
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
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

	feed, err := h.noteService.Notes(family.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, feed)
}

// CreateNote handles POST /api/notes. A multipart request may carry an
// image part alongside the note fields; a JSON body carries fields only.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
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

	input := service.CreateNoteInput{FamilyID: family.ID, UserID: identity.UserID}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.createFromMultipart(w, r, input)
		return
	}

	var req struct {
		Text  string  `json:"text"`
		Type  *string `json:"type"`
		Emoji *string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.Text = req.Text
	input.Type = categoryPtr(req.Type)
	input.Emoji = req.Emoji

	note, err := h.noteService.CreateNote(input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

// createFromMultipart reads note fields from the form and uploads the image
// part, when present, before creating the note.
func (h *NoteHandler) createFromMultipart(w http.ResponseWriter, r *http.Request, input service.CreateNoteInput) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	input.Text = r.FormValue("text")
	if v := r.FormValue("type"); v != "" {
		input.Type = categoryPtr(&v)
	}
	if v := r.FormValue("emoji"); v != "" {
		input.Emoji = &v
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		note, err := h.noteService.CreateNote(input)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, note)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image upload")
		return
	}
	defer file.Close()

	note, err := h.noteService.CreateNoteWithImage(r.Context(), input, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /api/notes/{id}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	note, err := h.noteService.NoteByID(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.familyService.VerifyMembership(identity.UserID, note.FamilyID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/notes/{id}. Only the author may edit.
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	existing, err := h.noteService.NoteByID(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if existing.UserID != identity.UserID {
		respondError(w, http.StatusForbidden, "only the author can edit a note")
		return
	}

	var req struct {
		Text  *string `json:"text"`
		Image *string `json:"image"`
		Type  *string `json:"type"`
		Emoji *string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.noteService.UpdateNote(existing.ID, service.UpdateNoteInput{
		Text:  req.Text,
		Image: req.Image,
		Type:  categoryPtr(req.Type),
		Emoji: req.Emoji,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}. Only the author may delete.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	existing, err := h.noteService.NoteByID(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if existing.UserID != identity.UserID {
		respondError(w, http.StatusForbidden, "only the author can delete a note")
		return
	}

	if err := h.noteService.DeleteNote(existing.ID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// categoryPtr converts an optional request string into a note category
func categoryPtr(s *string) *models.NoteCategory {
	if s == nil {
		return nil
	}
	category := models.NoteCategory(*s)
	return &category
}
