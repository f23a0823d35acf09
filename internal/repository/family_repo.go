package repository

import (
	"database/sql"
	"fmt"
	"time"

	"famnote/internal/database"
	"famnote/internal/models"

	"github.com/google/uuid"
)

// FamilyRepository handles database operations for families
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

const familyColumns = "id, creator_id, name, invite_code, created_at, updated_at"

func scanFamily(row interface{ Scan(...interface{}) error }) (*models.Family, error) {
	var family models.Family
	var updatedAt sql.NullTime

	err := row.Scan(
		&family.ID,
		&family.CreatorID,
		&family.Name,
		&family.InviteCode,
		&family.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		family.UpdatedAt = &updatedAt.Time
	}

	return &family, nil
}

// CreateFamily inserts a new family and points the creator's profile at it,
// in one transaction so a failure cannot leave an orphaned family.
func (r *FamilyRepository) CreateFamily(name, inviteCode, creatorID string) (*models.Family, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	family := &models.Family{
		ID:         uuid.New().String(),
		CreatorID:  creatorID,
		Name:       name,
		InviteCode: inviteCode,
		CreatedAt:  time.Now().UTC(),
	}

	query := `
		INSERT INTO families (id, creator_id, name, invite_code, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query, family.ID, family.CreatorID, family.Name, family.InviteCode, family.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	query = "UPDATE users SET family_id = ?, updated_at = ? WHERE id = ?"
	_, err = tx.Exec(query, family.ID, time.Now().UTC(), creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator to family: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return family, nil
}

// GetFamilyByID retrieves a family by ID, nil when not found
func (r *FamilyRepository) GetFamilyByID(familyID string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE id = ?"
	family, err := scanFamily(r.db.QueryRow(query, familyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// GetFamilyByInviteCode retrieves a family by exact invite code match,
// nil when no family carries the code
func (r *FamilyRepository) GetFamilyByInviteCode(code string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE invite_code = ?"
	family, err := scanFamily(r.db.QueryRow(query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family by invite code: %w", err)
	}
	return family, nil
}

// InviteCodeExists reports whether any family already carries the code.
// Satisfies invite.Checker.
func (r *FamilyRepository) InviteCodeExists(code string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM families WHERE invite_code = ?"
	if err := r.db.QueryRow(query, code).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return count > 0, nil
}

// ListAll retrieves every family, for backup export
func (r *FamilyRepository) ListAll() ([]models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families ORDER BY created_at ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var families []models.Family
	for rows.Next() {
		family, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, *family)
	}

	return families, rows.Err()
}
