package service

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"famnote/internal/database"
	"famnote/internal/models"
	"famnote/internal/repository"
)

// BackupData is the complete database export
type BackupData struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Families   []models.Family `json:"families"`
	Users      []models.User   `json:"users"`
	Notes      []models.Note   `json:"notes"`
}

// BackupService exports and imports the full data set as JSON
type BackupService struct {
	db       *database.DB
	users    *repository.UserRepository
	families *repository.FamilyRepository
	notes    *repository.NoteRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:       db,
		users:    repository.NewUserRepository(db),
		families: repository.NewFamilyRepository(db),
		notes:    repository.NewNoteRepository(db),
	}
}

// Export writes all families, users and notes to a JSON file
func (s *BackupService) Export(outputPath string) error {
	families, err := s.families.ListAll()
	if err != nil {
		return fmt.Errorf("failed to export families: %w", err)
	}

	users, err := s.users.ListAll()
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}

	notes, err := s.notes.ListAll()
	if err != nil {
		return fmt.Errorf("failed to export notes: %w", err)
	}

	backup := BackupData{
		Version:    "1",
		ExportedAt: time.Now().UTC(),
		Families:   families,
		Users:      users,
		Notes:      notes,
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return nil
}

// Import restores a backup file, preserving the original ids and
// timestamps. With clear set, all existing rows are removed first.
func (s *BackupService) Import(inputPath string, clear bool) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var backup BackupData
	if err := json.Unmarshal(content, &backup); err != nil {
		return fmt.Errorf("failed to parse backup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if clear {
		// Notes and users reference families, so they go first.
		for _, table := range []string{"notes", "users", "families"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	for _, family := range backup.Families {
		query := `
			INSERT INTO families (id, creator_id, name, invite_code, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := tx.Exec(query, family.ID, family.CreatorID, family.Name, family.InviteCode, family.CreatedAt, family.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import family %s: %w", family.ID, err)
		}
	}

	for _, user := range backup.Users {
		query := `
			INSERT INTO users (id, family_id, username, email, image, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.Exec(query, user.ID, user.FamilyID, user.Username, user.Email, user.Image, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %s: %w", user.ID, err)
		}
	}

	for _, note := range backup.Notes {
		query := `
			INSERT INTO notes (id, family_id, user_id, text, image, type, emoji, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		var noteType interface{}
		if note.Type != nil {
			noteType = string(*note.Type)
		}
		_, err := tx.Exec(query, note.ID, note.FamilyID, note.UserID, note.Text, note.Image, noteType, note.Emoji, note.CreatedAt, note.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import note %s: %w", note.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	return nil
}
