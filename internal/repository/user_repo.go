package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"famnote/internal/database"
	"famnote/internal/models"
)

// UserRepository handles database operations for user profiles
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, family_id, username, email, image, created_at, updated_at"

// scanUser reads one user row. Works for both sql.Row and sql.Rows.
func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var user models.User
	var familyID, image sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&familyID,
		&user.Username,
		&user.Email,
		&image,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if familyID.Valid {
		user.FamilyID = &familyID.String
	}
	if image.Valid {
		user.Image = &image.String
	}
	if updatedAt.Valid {
		user.UpdatedAt = &updatedAt.Time
	}

	return &user, nil
}

// CreateUser inserts a new user profile row
func (r *UserRepository) CreateUser(user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (id, family_id, username, email, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, user.ID, user.FamilyID, user.Username, user.Email, user.Image, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID. Returns nil when the row is missing;
// callers use that to trigger create-if-absent.
func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUsersByIDs retrieves all users whose id is in the given set, in a
// single query. Missing ids are simply absent from the result.
func (r *UserRepository) GetUsersByIDs(ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := "SELECT " + userColumns + " FROM users WHERE id IN (" + placeholders + ")"

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// ListByFamily retrieves all members of a family, oldest first
func (r *UserRepository) ListByFamily(familyID string) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE family_id = ? ORDER BY created_at ASC"
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// CountByFamily counts the members of a family
func (r *UserRepository) CountByFamily(familyID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM users WHERE family_id = ?"
	if err := r.db.QueryRow(query, familyID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count family members: %w", err)
	}
	return count, nil
}

// SetFamilyID points a user at a family. Used by joins; family creation
// does the equivalent update inside the create transaction.
func (r *UserRepository) SetFamilyID(userID, familyID string) error {
	query := "UPDATE users SET family_id = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, familyID, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to set family id: %w", err)
	}
	return nil
}

// UpdateProfile replaces a user's editable profile fields
func (r *UserRepository) UpdateProfile(userID, username string, image *string) error {
	query := "UPDATE users SET username = ?, image = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, username, image, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// BackfillIdentity fills in email and username from identity-provider
// claims, but only over the placeholder values written at bootstrap.
func (r *UserRepository) BackfillIdentity(userID, email, username string) error {
	query := `
		UPDATE users
		SET email = CASE WHEN email = '' THEN ? ELSE email END,
		    username = CASE WHEN username = 'User' OR username = '' THEN ? ELSE username END,
		    updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, email, username, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to backfill identity: %w", err)
	}
	return nil
}

// ListAll retrieves every user, for backup export
func (r *UserRepository) ListAll() ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY created_at ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}
