package notes

import "testing"

func mustUserID(t *testing.T, value string) UserID {
	t.Helper()
	id, err := NewUserID(value)
	if err != nil {
		t.Fatalf("unexpected user id error: %v", err)
	}
	return id
}

func mustRenderID(t *testing.T, value string) RenderID {
	t.Helper()
	id, err := NewRenderID(value)
	if err != nil {
		t.Fatalf("unexpected render id error: %v", err)
	}
	return id
}
