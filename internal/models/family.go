package models

import "time"

// Family represents a group of members sharing one note feed. The invite
// code is what new members type in to join; it is unique across families.
type Family struct {
	ID         string     `json:"id"`
	CreatorID  string     `json:"creator_id"`
	Name       string     `json:"name"`
	InviteCode string     `json:"invite_code"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// FamilyStats summarizes a family for the dashboard header.
type FamilyStats struct {
	MemberCount int `json:"member_count"`
	NoteCount   int `json:"note_count"`
}
