package service

import (
	"fmt"

	"famnote/internal/models"
	"famnote/internal/utils"
)

type profileStore interface {
	GetUserByID(id string) (*models.User, error)
	CreateUser(user *models.User) error
	UpdateProfile(userID, username string, image *string) error
	BackfillIdentity(userID, email, username string) error
}

// IdentityClaims are the profile fields the identity provider attaches to
// its tokens. Either may be empty depending on the provider.
type IdentityClaims struct {
	Email string
	Name  string
}

// ProfileService keeps user profiles in sync with the identity provider
// and handles profile edits.
type ProfileService struct {
	users profileStore
}

// NewProfileService creates a new profile service
func NewProfileService(users profileStore) *ProfileService {
	return &ProfileService{users: users}
}

// Profile returns the user's profile row, creating it from the identity
// claims on first contact and backfilling placeholder fields on later ones.
func (s *ProfileService) Profile(userID string, claims IdentityClaims) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if user == nil {
		username := claims.Name
		if username == "" {
			username = "User"
		}
		user = &models.User{ID: userID, Username: username, Email: claims.Email}
		if err := s.users.CreateUser(user); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		return user, nil
	}

	// A row created by a family action before any profile sync carries
	// placeholder identity fields; fill them in when claims are available.
	if needsBackfill(user) && (claims.Email != "" || claims.Name != "") {
		if err := s.users.BackfillIdentity(userID, claims.Email, claims.Name); err != nil {
			return nil, fmt.Errorf("failed to sync profile: %w", err)
		}
		user, err = s.users.GetUserByID(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload profile: %w", err)
		}
	}

	return user, nil
}

// UpdateProfile replaces the user's editable fields and returns the
// updated row.
func (s *ProfileService) UpdateProfile(userID, username string, image *string) (*models.User, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(userID, username, image); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload profile: %w", err)
	}
	return user, nil
}

func needsBackfill(user *models.User) bool {
	return user.Email == "" || user.Username == "" || user.Username == "User"
}
