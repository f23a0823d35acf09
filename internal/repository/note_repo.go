package repository

import (
	"database/sql"
	"fmt"
	"time"

	"famnote/internal/database"
	"famnote/internal/models"

	"github.com/google/uuid"
)

// NoteRepository handles database operations for notes
type NoteRepository struct {
	db *database.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *database.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = "id, family_id, user_id, text, image, type, emoji, created_at, updated_at"

func scanNote(row interface{ Scan(...interface{}) error }) (*models.Note, error) {
	var note models.Note
	var image, noteType, emoji sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&note.ID,
		&note.FamilyID,
		&note.UserID,
		&note.Text,
		&image,
		&noteType,
		&emoji,
		&note.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if image.Valid {
		note.Image = &image.String
	}
	if noteType.Valid {
		category := models.NoteCategory(noteType.String)
		note.Type = &category
	}
	if emoji.Valid {
		note.Emoji = &emoji.String
	}
	if updatedAt.Valid {
		note.UpdatedAt = &updatedAt.Time
	}

	return &note, nil
}

// noteTypeArg converts the optional category for storage
func noteTypeArg(t *models.NoteCategory) interface{} {
	if t == nil {
		return nil
	}
	return string(*t)
}

// CreateNote inserts a new note. The id and created_at are assigned here.
func (r *NoteRepository) CreateNote(note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO notes (id, family_id, user_id, text, image, type, emoji, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		note.ID, note.FamilyID, note.UserID, note.Text,
		note.Image, noteTypeArg(note.Type), note.Emoji, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// GetNoteByID retrieves a note by ID, nil when not found
func (r *NoteRepository) GetNoteByID(id string) (*models.Note, error) {
	query := "SELECT " + noteColumns + " FROM notes WHERE id = ?"
	note, err := scanNote(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

// ListByFamily retrieves all notes for a family, newest first. Ties keep
// the order the store returns them in.
func (r *NoteRepository) ListByFamily(familyID string) ([]models.Note, error) {
	query := "SELECT " + noteColumns + " FROM notes WHERE family_id = ? ORDER BY created_at DESC"
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *note)
	}

	return notes, rows.Err()
}

// UpdateNote replaces a note's content fields and stamps updated_at
func (r *NoteRepository) UpdateNote(id, text string, image *string, noteType *models.NoteCategory, emoji *string) (*models.Note, error) {
	query := `
		UPDATE notes
		SET text = ?, image = ?, type = ?, emoji = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, text, image, noteTypeArg(noteType), emoji, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return r.GetNoteByID(id)
}

// DeleteNote removes a note by ID
func (r *NoteRepository) DeleteNote(id string) error {
	query := "DELETE FROM notes WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// CountByFamily counts a family's notes
func (r *NoteRepository) CountByFamily(familyID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM notes WHERE family_id = ?"
	if err := r.db.QueryRow(query, familyID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// CountByAuthor returns per-author note counts for a family in a single
// grouped query. Authors with no notes are absent from the map.
func (r *NoteRepository) CountByAuthor(familyID string) (map[string]int, error) {
	query := "SELECT user_id, COUNT(*) FROM notes WHERE family_id = ? GROUP BY user_id"
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes by author: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan note count: %w", err)
		}
		counts[userID] = count
	}

	return counts, rows.Err()
}

// ListAll retrieves every note, for backup export
func (r *NoteRepository) ListAll() ([]models.Note, error) {
	query := "SELECT " + noteColumns + " FROM notes ORDER BY created_at ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *note)
	}

	return notes, rows.Err()
}
