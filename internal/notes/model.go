package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidRenderID indicates that a client render identifier is empty or exceeds storage bounds.
	ErrInvalidRenderID = errors.New("notes: invalid render id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("notes: invalid user id")
	// ErrNoteNotFound indicates that no note matches the render identifier for the user.
	ErrNoteNotFound = errors.New("notes: note not found")
	// ErrDuplicateRenderID indicates that a note with the render identifier already exists.
	ErrDuplicateRenderID = errors.New("notes: duplicate render id")
)

// RenderID represents a validated client-generated note identifier. It is
// assigned when a note is first drafted, before any server round trip, and is
// the stable key for the note across its whole client-side lifecycle.
type RenderID string

// NewRenderID validates raw input and returns a RenderID.
func NewRenderID(rawInput string) (RenderID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidRenderID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidRenderID, maxIdentifierLength)
	}
	return RenderID(trimmed), nil
}

// String returns the underlying string identifier.
func (id RenderID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// Note models a persisted note. The server assigns ID; RenderID arrives from
// the client and is unique per user-visible note. A non-null DeletedAt marks
// the note soft-deleted, which hides it from every listing until undone.
type Note struct {
	ID        string     `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	RenderID  string     `gorm:"column:render_id;uniqueIndex;size:190;not null" json:"render_id"`
	UserID    string     `gorm:"column:user_id;size:190;not null;index:idx_notes_user_created,priority:1" json:"user_id"`
	Title     string     `gorm:"column:title;type:text;not null;default:''" json:"title"`
	Content   string     `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;index:idx_notes_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index" json:"deleted_at"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// IsDeleted reports whether the note is currently soft-deleted.
func (n Note) IsDeleted() bool {
	return n.DeletedAt != nil
}
