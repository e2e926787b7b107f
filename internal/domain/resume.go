package domain

import (
	"time"

	"github.com/google/uuid"
)

// StoredResume is a row of the resumes table.
type StoredResume struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   []byte    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SavedDocumentRecord is the bookkeeping kept after the first successful save.
type SavedDocumentRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"userId"`
	LastSavedAt time.Time `json:"lastSavedAt"`
}

// Session is an authenticated identity. A nil *Session means anonymous.
type Session struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issuedAt"`
}
