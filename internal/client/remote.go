package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jotlabs/jot/internal/notes"
)

// RemoteService is the boundary to the server. Every call is fallible and may
// take arbitrarily long; the mutation queue guarantees per-note ordering on
// top of it.
type RemoteService interface {
	Create(ctx context.Context, renderID notes.RenderID, content, title string) (notes.Note, error)
	Edit(ctx context.Context, renderID notes.RenderID, content, title string) (notes.Note, error)
	Delete(ctx context.Context, renderID notes.RenderID) (notes.Note, error)
	UndoDelete(ctx context.Context, renderID notes.RenderID) (notes.Note, error)
	List(ctx context.Context, searchKeyword string) ([]notes.Note, error)
}

var errMissingBaseURL = errors.New("client: base url is required")

// RemoteError carries the HTTP status and server error code of a rejected call.
type RemoteError struct {
	StatusCode int
	Code       string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote call failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote call failed with status %d: %s", e.StatusCode, e.Code)
}

// HTTPRemote implements RemoteService against the jot API.
type HTTPRemote struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// HTTPRemoteConfig configures an HTTPRemote.
type HTTPRemoteConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPRemote constructs an unauthenticated remote; call Authenticate before
// issuing note operations.
func NewHTTPRemote(cfg HTTPRemoteConfig) (*HTTPRemote, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRemote{baseURL: baseURL, httpClient: httpClient}, nil
}

type tokenRequest struct {
	UserID string `json:"user_id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Authenticate obtains a bearer token for the user and stores it for
// subsequent calls.
func (r *HTTPRemote) Authenticate(ctx context.Context, userID string) error {
	var response tokenResponse
	if err := r.do(ctx, http.MethodPost, "/auth/token", tokenRequest{UserID: userID}, &response); err != nil {
		return err
	}
	r.token = response.AccessToken
	return nil
}

type notePayload struct {
	RenderID string `json:"render_id,omitempty"`
	Content  string `json:"content"`
	Title    string `json:"title"`
}

type listResponse struct {
	Notes []notes.Note `json:"notes"`
}

// Create persists a new note under the client-generated render identifier.
func (r *HTTPRemote) Create(ctx context.Context, renderID notes.RenderID, content, title string) (notes.Note, error) {
	var note notes.Note
	payload := notePayload{RenderID: renderID.String(), Content: content, Title: title}
	if err := r.do(ctx, http.MethodPost, "/notes", payload, &note); err != nil {
		return notes.Note{}, err
	}
	return note, nil
}

// Edit replaces the note's content and title.
func (r *HTTPRemote) Edit(ctx context.Context, renderID notes.RenderID, content, title string) (notes.Note, error) {
	var note notes.Note
	payload := notePayload{Content: content, Title: title}
	if err := r.do(ctx, http.MethodPut, "/notes/"+url.PathEscape(renderID.String()), payload, &note); err != nil {
		return notes.Note{}, err
	}
	return note, nil
}

// Delete soft-deletes the note.
func (r *HTTPRemote) Delete(ctx context.Context, renderID notes.RenderID) (notes.Note, error) {
	var note notes.Note
	if err := r.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(renderID.String()), nil, &note); err != nil {
		return notes.Note{}, err
	}
	return note, nil
}

// UndoDelete restores a soft-deleted note.
func (r *HTTPRemote) UndoDelete(ctx context.Context, renderID notes.RenderID) (notes.Note, error) {
	var note notes.Note
	if err := r.do(ctx, http.MethodPost, "/notes/"+url.PathEscape(renderID.String())+"/undelete", nil, &note); err != nil {
		return notes.Note{}, err
	}
	return note, nil
}

// List fetches the user's live notes, optionally filtered by keyword.
func (r *HTTPRemote) List(ctx context.Context, searchKeyword string) ([]notes.Note, error) {
	path := "/notes"
	if strings.TrimSpace(searchKeyword) != "" {
		path += "?search=" + url.QueryEscape(searchKeyword)
	}
	var response listResponse
	if err := r.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Notes, nil
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		request.Header.Set("Authorization", "Bearer "+r.token)
	}

	response, err := r.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(response.Body).Decode(&failure)
		return &RemoteError{StatusCode: response.StatusCode, Code: failure.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}
