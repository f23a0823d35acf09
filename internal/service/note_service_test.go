package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"famnote/internal/models"
	"famnote/internal/utils"
)

type fakeNoteStore struct {
	notes       []models.Note
	nextID      int
	createCalls int
}

func (f *fakeNoteStore) CreateNote(note *models.Note) error {
	f.createCalls++
	f.nextID++
	note.ID = fmt.Sprintf("note-%d", f.nextID)
	note.CreatedAt = time.Now().UTC()
	f.notes = append(f.notes, *note)
	return nil
}

func (f *fakeNoteStore) GetNoteByID(id string) (*models.Note, error) {
	for i := range f.notes {
		if f.notes[i].ID == id {
			copied := f.notes[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeNoteStore) ListByFamily(familyID string) ([]models.Note, error) {
	// Newest first, matching the repository ordering.
	var result []models.Note
	for i := len(f.notes) - 1; i >= 0; i-- {
		if f.notes[i].FamilyID == familyID {
			result = append(result, f.notes[i])
		}
	}
	return result, nil
}

func (f *fakeNoteStore) UpdateNote(id, text string, image *string, noteType *models.NoteCategory, emoji *string) (*models.Note, error) {
	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes[i].Text = text
			f.notes[i].Image = image
			f.notes[i].Type = noteType
			f.notes[i].Emoji = emoji
			now := time.Now().UTC()
			f.notes[i].UpdatedAt = &now
			copied := f.notes[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeNoteStore) DeleteNote(id string) error {
	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeAuthorStore struct {
	users      map[string]models.User
	batchCalls int
	lastBatch  []string
}

func (f *fakeAuthorStore) GetUsersByIDs(ids []string) ([]models.User, error) {
	f.batchCalls++
	f.lastBatch = ids
	var result []models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

type fakeImageStore struct {
	uploads int
	lastKey string
	err     error
}

func (f *fakeImageStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	f.uploads++
	f.lastKey = key
	if f.err != nil {
		return "", f.err
	}
	return "https://images.example.com/" + key, nil
}

func newNoteServiceForTest() (*NoteService, *fakeNoteStore, *fakeAuthorStore, *fakeImageStore) {
	notes := &fakeNoteStore{}
	users := &fakeAuthorStore{users: make(map[string]models.User)}
	images := &fakeImageStore{}
	return NewNoteService(notes, users, images), notes, users, images
}

func addUser(users *fakeAuthorStore, id, username string) {
	users.users[id] = models.User{ID: id, Username: username, Email: id + "@example.com"}
}

func TestNotesEmptyFeed(t *testing.T) {
	svc, _, users, _ := newNoteServiceForTest()

	feed, err := svc.Notes("fam-1")
	if err != nil {
		t.Fatalf("Notes failed: %v", err)
	}
	if feed == nil {
		t.Error("Expected empty slice, got nil")
	}
	if len(feed) != 0 {
		t.Errorf("Expected empty feed, got %d entries", len(feed))
	}
	if users.batchCalls != 0 {
		t.Errorf("Expected no author lookup for an empty feed, got %d", users.batchCalls)
	}
}

func TestNotesBatchesAuthorLookup(t *testing.T) {
	svc, _, users, _ := newNoteServiceForTest()
	addUser(users, "alice", "Alice")
	addUser(users, "bob", "Bob")

	// Five notes from two authors.
	for i, author := range []string{"alice", "bob", "alice", "alice", "bob"} {
		_, err := svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: author, Text: fmt.Sprintf("note %d", i)})
		if err != nil {
			t.Fatalf("CreateNote failed: %v", err)
		}
	}

	feed, err := svc.Notes("fam-1")
	if err != nil {
		t.Fatalf("Notes failed: %v", err)
	}
	if len(feed) != 5 {
		t.Fatalf("Expected 5 feed entries, got %d", len(feed))
	}

	if users.batchCalls != 1 {
		t.Errorf("Expected exactly 1 author lookup, got %d", users.batchCalls)
	}
	if len(users.lastBatch) != 2 {
		t.Errorf("Expected 2 distinct author ids in the batch, got %v", users.lastBatch)
	}

	// Newest first, each entry carrying its author.
	if feed[0].Text != "note 4" {
		t.Errorf("Expected newest note first, got %q", feed[0].Text)
	}
	for _, entry := range feed {
		if entry.User.ID != entry.UserID {
			t.Errorf("Note %s paired with wrong author %s", entry.ID, entry.User.ID)
		}
		if entry.User.Username == "" {
			t.Errorf("Note %s has no author username", entry.ID)
		}
	}
}

func TestNotesUnknownAuthorPlaceholder(t *testing.T) {
	svc, _, users, _ := newNoteServiceForTest()
	addUser(users, "alice", "Alice")

	if _, err := svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "hi"}); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if _, err := svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: "ghost", Text: "boo"}); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	feed, err := svc.Notes("fam-1")
	if err != nil {
		t.Fatalf("Notes failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("Expected 2 feed entries, got %d", len(feed))
	}

	// Newest first: the ghost's note leads.
	ghost := feed[0].User
	if ghost.ID != "ghost" || ghost.Username != "Unknown" || ghost.Email != "" || ghost.Image != nil {
		t.Errorf("Expected Unknown placeholder author, got %+v", ghost)
	}
	if feed[1].User.Username != "Alice" {
		t.Errorf("Expected Alice as second author, got %+v", feed[1].User)
	}
}

func TestCreateNote(t *testing.T) {
	svc, notes, _, _ := newNoteServiceForTest()

	category := models.CategoryReminder
	emoji := "📝"
	note, err := svc.CreateNote(CreateNoteInput{
		FamilyID: "fam-1",
		UserID:   "alice",
		Text:     "buy milk",
		Type:     &category,
		Emoji:    &emoji,
	})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if note.ID == "" {
		t.Error("Expected note to be assigned an id")
	}

	stored, err := notes.GetNoteByID(note.ID)
	if err != nil || stored == nil {
		t.Fatalf("Expected stored note, got %v (%v)", stored, err)
	}
	if stored.Text != "buy milk" || stored.Type == nil || *stored.Type != models.CategoryReminder {
		t.Errorf("Stored note does not match input: %+v", stored)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	svc, notes, _, _ := newNoteServiceForTest()

	_, err := svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "   "})
	var validationErr utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected validation error for blank text, got %v", err)
	}

	bad := models.NoteCategory("rant")
	_, err = svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "hi", Type: &bad})
	if !errors.Is(err, ErrUnknownNoteCategory) {
		t.Fatalf("Expected ErrUnknownNoteCategory, got %v", err)
	}

	if notes.createCalls != 0 {
		t.Errorf("Expected no inserts on validation failure, got %d", notes.createCalls)
	}
}

func TestCreateNoteWithImage(t *testing.T) {
	svc, notes, _, images := newNoteServiceForTest()

	note, err := svc.CreateNoteWithImage(context.Background(),
		CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "look at this"},
		strings.NewReader("image-bytes"), "photo.PNG", "image/png")
	if err != nil {
		t.Fatalf("CreateNoteWithImage failed: %v", err)
	}

	if images.uploads != 1 {
		t.Fatalf("Expected 1 upload, got %d", images.uploads)
	}
	if !strings.HasPrefix(images.lastKey, "alice/") || !strings.HasSuffix(images.lastKey, ".png") {
		t.Errorf("Unexpected image key %q", images.lastKey)
	}
	if note.Image == nil || !strings.HasPrefix(*note.Image, "https://images.example.com/") {
		t.Errorf("Expected note to carry the image URL, got %v", note.Image)
	}
	if notes.createCalls != 1 {
		t.Errorf("Expected 1 note insert, got %d", notes.createCalls)
	}
}

func TestCreateNoteWithImageUploadFailure(t *testing.T) {
	svc, notes, _, images := newNoteServiceForTest()
	images.err = errors.New("bucket unavailable")

	_, err := svc.CreateNoteWithImage(context.Background(),
		CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "look at this"},
		strings.NewReader("image-bytes"), "photo.jpg", "image/jpeg")
	if err == nil {
		t.Fatal("Expected error when upload fails")
	}
	if notes.createCalls != 0 {
		t.Errorf("Expected no note insert after failed upload, got %d", notes.createCalls)
	}
}

func TestUpdateNote(t *testing.T) {
	svc, _, _, _ := newNoteServiceForTest()

	emoji := "🎉"
	created, err := svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "original", Emoji: &emoji})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	newText := "edited"
	updated, err := svc.UpdateNote(created.ID, UpdateNoteInput{Text: &newText})
	if err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}
	if updated.Text != "edited" {
		t.Errorf("Expected edited text, got %q", updated.Text)
	}
	if updated.Emoji == nil || *updated.Emoji != "🎉" {
		t.Errorf("Expected untouched emoji to survive, got %v", updated.Emoji)
	}
	if updated.UpdatedAt == nil {
		t.Error("Expected updated_at to be set")
	}
}

func TestUpdateNoteNotFound(t *testing.T) {
	svc, _, _, _ := newNoteServiceForTest()

	newText := "edited"
	_, err := svc.UpdateNote("missing", UpdateNoteInput{Text: &newText})
	if !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("Expected ErrNoteNotFound, got %v", err)
	}
}

func TestNoteByID(t *testing.T) {
	svc, _, users, _ := newNoteServiceForTest()
	addUser(users, "alice", "Alice")

	created, err := svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "hello"})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	got, err := svc.NoteByID(created.ID)
	if err != nil {
		t.Fatalf("NoteByID failed: %v", err)
	}
	if got.Text != "hello" || got.User.Username != "Alice" {
		t.Errorf("Unexpected note %+v", got)
	}

	if _, err := svc.NoteByID("missing"); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound, got %v", err)
	}
}

func TestDeleteNote(t *testing.T) {
	svc, notes, _, _ := newNoteServiceForTest()

	created, err := svc.CreateNote(CreateNoteInput{FamilyID: "fam-1", UserID: "alice", Text: "bye"})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	if err := svc.DeleteNote(created.ID); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if got, _ := notes.GetNoteByID(created.ID); got != nil {
		t.Error("Expected note to be gone after delete")
	}
}
