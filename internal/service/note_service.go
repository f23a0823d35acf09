package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"famnote/internal/models"
	"famnote/internal/utils"
)

var (
	ErrNoteNotFound        = errors.New("note not found")
	ErrUnknownNoteCategory = errors.New("unknown note category")
)

type noteStore interface {
	CreateNote(note *models.Note) error
	GetNoteByID(id string) (*models.Note, error)
	ListByFamily(familyID string) ([]models.Note, error)
	UpdateNote(id, text string, image *string, noteType *models.NoteCategory, emoji *string) (*models.Note, error)
	DeleteNote(id string) error
}

// authorStore is the batched user lookup the feed join needs.
type authorStore interface {
	GetUsersByIDs(ids []string) ([]models.User, error)
}

// ImageStore uploads note images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// NoteService assembles the family note feed and manages notes
type NoteService struct {
	notes  noteStore
	users  authorStore
	images ImageStore
}

// NewNoteService creates a new note service
func NewNoteService(notes noteStore, users authorStore, images ImageStore) *NoteService {
	return &NoteService{notes: notes, users: users, images: images}
}

// CreateNoteInput carries the fields for a new note. Optional fields stay
// nil when absent.
type CreateNoteInput struct {
	FamilyID string
	UserID   string
	Text     string
	Image    *string
	Type     *models.NoteCategory
	Emoji    *string
}

// UpdateNoteInput patches a note; nil fields keep their current value.
type UpdateNoteInput struct {
	Text  *string
	Image *string
	Type  *models.NoteCategory
	Emoji *string
}

// Notes returns a family's feed, newest first, with each note's author
// stitched in. Notes and authors are fetched in two queries total: one for
// the notes, one batched lookup for all distinct authors.
func (s *NoteService) Notes(familyID string) ([]models.NoteWithUser, error) {
	notes, err := s.notes.ListByFamily(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	if len(notes) == 0 {
		return []models.NoteWithUser{}, nil
	}

	users, err := s.users.GetUsersByIDs(distinctAuthorIDs(notes))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch note authors: %w", err)
	}

	return attachAuthors(notes, users), nil
}

// NoteByID returns a single note with its author attached
func (s *NoteService) NoteByID(id string) (*models.NoteWithUser, error) {
	note, err := s.notes.GetNoteByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch note: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}

	users, err := s.users.GetUsersByIDs([]string{note.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch note author: %w", err)
	}

	joined := attachAuthors([]models.Note{*note}, users)
	return &joined[0], nil
}

// CreateNote inserts a new note. Text must be non-empty after trimming; it
// is stored as provided otherwise.
func (s *NoteService) CreateNote(input CreateNoteInput) (*models.Note, error) {
	if err := utils.ValidateNoteText(input.Text); err != nil {
		return nil, err
	}
	if input.Type != nil && !input.Type.Valid() {
		return nil, ErrUnknownNoteCategory
	}

	note := &models.Note{
		FamilyID: input.FamilyID,
		UserID:   input.UserID,
		Text:     input.Text,
		Image:    input.Image,
		Type:     input.Type,
		Emoji:    input.Emoji,
	}
	if err := s.notes.CreateNote(note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

// CreateNoteWithImage uploads the image first and only inserts the note
// once the upload succeeded, so no note ever references an image that was
// never stored.
func (s *NoteService) CreateNoteWithImage(ctx context.Context, input CreateNoteInput, image io.Reader, filename, contentType string) (*models.Note, error) {
	if err := utils.ValidateNoteText(input.Text); err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, imageKey(input.UserID, filename), contentType, image)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	input.Image = &url
	return s.CreateNote(input)
}

// UpdateNote applies a patch to a note. Fields left nil keep their value;
// provided fields replace the old ones outright.
func (s *NoteService) UpdateNote(id string, input UpdateNoteInput) (*models.Note, error) {
	existing, err := s.notes.GetNoteByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch note: %w", err)
	}
	if existing == nil {
		return nil, ErrNoteNotFound
	}

	text := existing.Text
	if input.Text != nil {
		if err := utils.ValidateNoteText(*input.Text); err != nil {
			return nil, err
		}
		text = *input.Text
	}

	image := existing.Image
	if input.Image != nil {
		image = input.Image
	}

	noteType := existing.Type
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, ErrUnknownNoteCategory
		}
		noteType = input.Type
	}

	emoji := existing.Emoji
	if input.Emoji != nil {
		emoji = input.Emoji
	}

	updated, err := s.notes.UpdateNote(id, text, image, noteType, emoji)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return updated, nil
}

// DeleteNote removes a note by ID
func (s *NoteService) DeleteNote(id string) error {
	if err := s.notes.DeleteNote(id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// distinctAuthorIDs collects the unique author ids in feed order
func distinctAuthorIDs(notes []models.Note) []string {
	seen := make(map[string]bool, len(notes))
	var ids []string
	for _, note := range notes {
		if !seen[note.UserID] {
			seen[note.UserID] = true
			ids = append(ids, note.UserID)
		}
	}
	return ids
}

// attachAuthors joins notes with their authors, substituting the Unknown
// placeholder for missing rows. The note order is preserved.
func attachAuthors(notes []models.Note, users []models.User) []models.NoteWithUser {
	byID := make(map[string]models.NoteAuthor, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Author()
	}

	feed := make([]models.NoteWithUser, len(notes))
	for i, note := range notes {
		author, ok := byID[note.UserID]
		if !ok {
			author = models.UnknownAuthor(note.UserID)
		}
		feed[i] = models.NoteWithUser{Note: note, User: author}
	}
	return feed
}

// imageKey builds the storage key for an uploaded note image
func imageKey(userID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%d.%s", userID, time.Now().UnixMilli(), ext)
}
