package models

import "time"

// User represents a family member's profile. The ID is the opaque identifier
// issued by the external identity provider; the row is created lazily on the
// user's first family-related action.
type User struct {
	ID        string     `json:"id"`
	FamilyID  *string    `json:"family_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Image     *string    `json:"image"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// NoteAuthor is the denormalized subset of a user embedded in feed entries.
type NoteAuthor struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Image    *string `json:"image"`
}

// UnknownAuthor is the placeholder attached to a note whose author row no
// longer exists.
func UnknownAuthor(userID string) NoteAuthor {
	return NoteAuthor{ID: userID, Username: "Unknown", Email: "", Image: nil}
}

// Author returns the user's denormalized feed representation.
func (u *User) Author() NoteAuthor {
	return NoteAuthor{ID: u.ID, Username: u.Username, Email: u.Email, Image: u.Image}
}

// MemberWithNoteCount pairs a family member with how many notes they posted.
type MemberWithNoteCount struct {
	User
	NoteCount int `json:"note_count"`
}
