package service

import (
	"errors"
	"testing"

	"famnote/internal/models"
	"famnote/internal/utils"
)

type fakeProfileStore struct {
	users         map[string]*models.User
	backfillCalls int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{users: make(map[string]*models.User)}
}

func (f *fakeProfileStore) GetUserByID(id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeProfileStore) CreateUser(user *models.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeProfileStore) UpdateProfile(userID, username string, image *string) error {
	user, ok := f.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	user.Username = username
	user.Image = image
	return nil
}

func (f *fakeProfileStore) BackfillIdentity(userID, email, username string) error {
	f.backfillCalls++
	user, ok := f.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	if user.Email == "" {
		user.Email = email
	}
	if user.Username == "" || user.Username == "User" {
		user.Username = username
	}
	return nil
}

func TestProfileCreatesOnFirstContact(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store)

	user, err := svc.Profile("u1", IdentityClaims{Email: "ann@example.com", Name: "Ann"})
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if user.Username != "Ann" || user.Email != "ann@example.com" {
		t.Errorf("Expected profile from claims, got %+v", user)
	}
	if _, ok := store.users["u1"]; !ok {
		t.Error("Expected profile row to be created")
	}
}

func TestProfileBackfillsPlaceholder(t *testing.T) {
	store := newFakeProfileStore()
	store.users["u1"] = &models.User{ID: "u1", Username: "User", Email: ""}
	svc := NewProfileService(store)

	user, err := svc.Profile("u1", IdentityClaims{Email: "ann@example.com", Name: "Ann"})
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if store.backfillCalls != 1 {
		t.Errorf("Expected 1 backfill, got %d", store.backfillCalls)
	}
	if user.Username != "Ann" || user.Email != "ann@example.com" {
		t.Errorf("Expected backfilled profile, got %+v", user)
	}
}

func TestProfileLeavesSettledRowAlone(t *testing.T) {
	store := newFakeProfileStore()
	store.users["u1"] = &models.User{ID: "u1", Username: "Annie", Email: "ann@example.com"}
	svc := NewProfileService(store)

	user, err := svc.Profile("u1", IdentityClaims{Email: "other@example.com", Name: "Other"})
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if store.backfillCalls != 0 {
		t.Errorf("Expected no backfill, got %d", store.backfillCalls)
	}
	if user.Username != "Annie" {
		t.Errorf("Expected settled profile untouched, got %+v", user)
	}
}

func TestUpdateProfileValidatesUsername(t *testing.T) {
	store := newFakeProfileStore()
	store.users["u1"] = &models.User{ID: "u1", Username: "Annie"}
	svc := NewProfileService(store)

	_, err := svc.UpdateProfile("u1", "   ", nil)
	var validationErr utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	image := "https://example.com/a.png"
	user, err := svc.UpdateProfile("u1", "Ann", &image)
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.Username != "Ann" || user.Image == nil || *user.Image != image {
		t.Errorf("Expected updated profile, got %+v", user)
	}
}
