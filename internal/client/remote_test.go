package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jotlabs/jot/internal/notes"
)

func newStubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestNewHTTPRemoteRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPRemote(HTTPRemoteConfig{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}

func TestAuthenticateStoresBearerToken(t *testing.T) {
	var sawAuthorization string
	server := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			json.NewEncoder(w).Encode(map[string]any{"access_token": "token-123", "expires_in": 3600, "token_type": "Bearer"}) //nolint:errcheck
		case "/notes":
			sawAuthorization = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(map[string]any{"notes": []notes.Note{}}) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	remote, err := NewHTTPRemote(HTTPRemoteConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := remote.Authenticate(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected authenticate error: %v", err)
	}
	if _, err := remote.List(context.Background(), ""); err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if sawAuthorization != "Bearer token-123" {
		t.Fatalf("unexpected authorization header: %q", sawAuthorization)
	}
}

func TestCreateSendsRenderIDAndDecodesNote(t *testing.T) {
	server := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/notes" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if payload["render_id"] != "render-1" || payload["content"] != "hello" {
			t.Errorf("unexpected payload: %v", payload)
		}
		json.NewEncoder(w).Encode(notes.Note{ID: "server-1", RenderID: "render-1", Content: "hello"}) //nolint:errcheck
	})

	remote, err := NewHTTPRemote(HTTPRemoteConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	note, err := remote.Create(context.Background(), mustRenderID(t, "render-1"), "hello", "")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if note.ID != "server-1" {
		t.Fatalf("expected server id, got %#v", note)
	}
}

func TestRemoteErrorCarriesStatusAndCode(t *testing.T) {
	server := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "note_not_found"}) //nolint:errcheck
	})

	remote, err := NewHTTPRemote(HTTPRemoteConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = remote.Delete(context.Background(), mustRenderID(t, "render-1"))

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.StatusCode != http.StatusNotFound || remoteErr.Code != "note_not_found" {
		t.Fatalf("unexpected remote error: %#v", remoteErr)
	}
}

func TestListEncodesSearchKeyword(t *testing.T) {
	var sawQuery string
	server := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		sawQuery = r.URL.Query().Get("search")
		json.NewEncoder(w).Encode(map[string]any{"notes": []notes.Note{{RenderID: "render-1"}}}) //nolint:errcheck
	})

	remote, err := NewHTTPRemote(HTTPRemoteConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	listing, err := remote.List(context.Background(), "grocery list")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if sawQuery != "grocery list" {
		t.Fatalf("unexpected search query: %q", sawQuery)
	}
	if len(listing) != 1 {
		t.Fatalf("unexpected listing: %#v", listing)
	}
}
