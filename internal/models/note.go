package models

import "time"

// NoteCategory is the optional label a member attaches to a note.
type NoteCategory string

const (
	CategoryReminder    NoteCategory = "reminder"
	CategoryCelebration NoteCategory = "celebration"
	CategoryRequest     NoteCategory = "request"
	CategoryMemory      NoteCategory = "memory"
	CategoryUpdate      NoteCategory = "update"
)

// Valid reports whether the category is one of the known labels.
func (c NoteCategory) Valid() bool {
	switch c {
	case CategoryReminder, CategoryCelebration, CategoryRequest, CategoryMemory, CategoryUpdate:
		return true
	}
	return false
}

// Note is a single entry in a family's feed.
type Note struct {
	ID        string        `json:"id"`
	FamilyID  string        `json:"family_id"`
	UserID    string        `json:"user_id"`
	Text      string        `json:"text"`
	Image     *string       `json:"image"`
	Type      *NoteCategory `json:"type"`
	Emoji     *string       `json:"emoji"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt *time.Time    `json:"updated_at"`
}

// NoteWithUser is the read-time join of a note with its author, produced by
// the feed aggregator. It is never stored.
type NoteWithUser struct {
	Note
	User NoteAuthor `json:"user"`
}
