package notes

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRenderIDValidation(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expectErr error
		expected  string
	}{
		{name: "valid", input: "render-1", expected: "render-1"},
		{name: "trims-whitespace", input: "  render-1  ", expected: "render-1"},
		{name: "empty", input: "", expectErr: ErrInvalidRenderID},
		{name: "whitespace-only", input: "   ", expectErr: ErrInvalidRenderID},
		{name: "too-long", input: strings.Repeat("x", maxIdentifierLength+1), expectErr: ErrInvalidRenderID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewRenderID(tt.input)
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("expected %v, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.String() != tt.expected {
				t.Fatalf("unexpected id: %q", id.String())
			}
		})
	}
}

func TestNewUserIDValidation(t *testing.T) {
	if _, err := NewUserID(""); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected invalid user id error, got %v", err)
	}
	id, err := NewUserID("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "user-1" {
		t.Fatalf("unexpected id: %q", id.String())
	}
}

func TestIsDeleted(t *testing.T) {
	note := Note{}
	if note.IsDeleted() {
		t.Fatalf("note without deleted_at must not read as deleted")
	}
}
