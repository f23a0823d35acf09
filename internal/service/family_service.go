package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"famnote/internal/invite"
	"famnote/internal/models"
	"famnote/internal/utils"
)

var (
	ErrAlreadyInFamily   = errors.New("you already belong to a family")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrFamilyNotFound    = errors.New("family not found")
	ErrNotFamilyMember   = errors.New("user is not a member of this family")
)

// userStore is the slice of the user repository the family service needs.
type userStore interface {
	GetUserByID(id string) (*models.User, error)
	CreateUser(user *models.User) error
	SetFamilyID(userID, familyID string) error
	ListByFamily(familyID string) ([]models.User, error)
	CountByFamily(familyID string) (int, error)
}

type familyStore interface {
	CreateFamily(name, inviteCode, creatorID string) (*models.Family, error)
	GetFamilyByID(familyID string) (*models.Family, error)
	GetFamilyByInviteCode(code string) (*models.Family, error)
}

type noteCountStore interface {
	CountByFamily(familyID string) (int, error)
	CountByAuthor(familyID string) (map[string]int, error)
}

// FamilyService handles family creation and membership
type FamilyService struct {
	users    userStore
	families familyStore
	notes    noteCountStore
	codes    *invite.Generator
}

// NewFamilyService creates a new family service
func NewFamilyService(users userStore, families familyStore, notes noteCountStore, codes *invite.Generator) *FamilyService {
	return &FamilyService{
		users:    users,
		families: families,
		notes:    notes,
		codes:    codes,
	}
}

// CreateFamily creates a new family with a fresh invite code and enrolls
// the creator. The family insert and the creator's membership update run in
// one store transaction, so a failure cannot orphan a family.
func (s *FamilyService) CreateFamily(name, creatorID string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if err := utils.ValidateFamilyName(name); err != nil {
		return nil, err
	}

	user, err := s.ensureUserRecord(creatorID)
	if err != nil {
		return nil, err
	}
	if user.FamilyID != nil {
		return nil, ErrAlreadyInFamily
	}

	code, err := s.codes.UniqueCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	family, err := s.families.CreateFamily(name, code, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	return family, nil
}

// JoinFamily admits a user to the family carrying the given invite code.
// Joining only sets the user's foreign key, so a concurrent duplicate join
// is harmless.
func (s *FamilyService) JoinFamily(code, userID string) (*models.Family, error) {
	normalized := invite.Normalize(code)
	if normalized == "" {
		return nil, ErrInvalidInviteCode
	}

	user, err := s.ensureUserRecord(userID)
	if err != nil {
		return nil, err
	}
	if user.FamilyID != nil {
		return nil, ErrAlreadyInFamily
	}

	family, err := s.families.GetFamilyByInviteCode(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}
	if family == nil {
		return nil, ErrInvalidInviteCode
	}

	if err := s.users.SetFamilyID(userID, family.ID); err != nil {
		return nil, fmt.Errorf("failed to join family: %w", err)
	}

	return family, nil
}

// GetFamily retrieves a family by ID
func (s *FamilyService) GetFamily(familyID string) (*models.Family, error) {
	family, err := s.families.GetFamilyByID(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	return family, nil
}

// GetFamilyMembers retrieves all members of a family, oldest first
func (s *FamilyService) GetFamilyMembers(familyID string) ([]models.User, error) {
	members, err := s.users.ListByFamily(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family members: %w", err)
	}
	return members, nil
}

// GetUserFamily returns the family a user belongs to, or nil without error
// when the user has none.
func (s *FamilyService) GetUserFamily(userID string) (*models.Family, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.FamilyID == nil {
		return nil, nil
	}

	family, err := s.families.GetFamilyByID(*user.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// MembersWithNoteCounts returns the family's members with how many notes
// each has posted. The counts come from a single grouped query rather than
// one query per member.
func (s *FamilyService) MembersWithNoteCounts(familyID string) ([]models.MemberWithNoteCount, error) {
	members, err := s.GetFamilyMembers(familyID)
	if err != nil {
		return nil, err
	}

	counts, err := s.notes.CountByAuthor(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes by author: %w", err)
	}

	result := make([]models.MemberWithNoteCount, len(members))
	for i, member := range members {
		result[i] = models.MemberWithNoteCount{User: member, NoteCount: counts[member.ID]}
	}
	return result, nil
}

// FamilyStats returns the member and note counts for a family. The two
// counts are independent, so they are fetched concurrently.
func (s *FamilyService) FamilyStats(familyID string) (*models.FamilyStats, error) {
	var (
		wg          sync.WaitGroup
		memberCount int
		noteCount   int
		memberErr   error
		noteErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		memberCount, memberErr = s.users.CountByFamily(familyID)
	}()
	go func() {
		defer wg.Done()
		noteCount, noteErr = s.notes.CountByFamily(familyID)
	}()
	wg.Wait()

	if memberErr != nil {
		return nil, fmt.Errorf("failed to count members: %w", memberErr)
	}
	if noteErr != nil {
		return nil, fmt.Errorf("failed to count notes: %w", noteErr)
	}

	return &models.FamilyStats{MemberCount: memberCount, NoteCount: noteCount}, nil
}

// VerifyMembership checks that a user belongs to the given family
func (s *FamilyService) VerifyMembership(userID, familyID string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("failed to verify membership: %w", err)
	}
	if user == nil || user.FamilyID == nil || *user.FamilyID != familyID {
		return ErrNotFamilyMember
	}
	return nil
}

// ensureUserRecord returns the user's profile row, creating a placeholder
// one on first contact. The identity-provider profile sync backfills the
// placeholder username and email later.
func (s *FamilyService) ensureUserRecord(userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{ID: userID, Username: "User", Email: ""}
	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	return user, nil
}
