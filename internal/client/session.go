package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jotlabs/jot/internal/notes"
	"go.uber.org/zap"
)

var errMissingRemote = errors.New("client: remote service is required")

// SessionConfig describes the collaborators of a Session.
type SessionConfig struct {
	Remote     RemoteService
	Cache      *Cache
	Notifier   Notifier
	Logger     *zap.Logger
	IDProvider notes.IDProvider
	Clock      func() time.Time

	// BaseContext is attached to the remote calls driven by drain loops.
	// Defaults to context.Background; there is no per-call cancellation.
	BaseContext context.Context
}

// Session is the orchestration layer of the optimistic pipeline for one
// signed-in user. It owns the cache, the queue registry, and the descriptors:
// each user action becomes a Mutation whose optimistic effect is visible
// before Session methods return, while the remote call drains in the
// background in strict per-note order.
type Session struct {
	remote   RemoteService
	cache    *Cache
	registry *Registry
	notifier Notifier
	logger   *zap.Logger
	ids      notes.IDProvider
	clock    func() time.Time
	baseCtx  context.Context

	mu     sync.Mutex
	search string
}

// NewSession validates the configuration and constructs a Session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Remote == nil {
		return nil, errMissingRemote
	}

	cache := cfg.Cache
	if cache == nil {
		cache = NewCache()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewLoggerNotifier(logger)
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = notes.NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	session := &Session{
		remote:   cfg.Remote,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		ids:      ids,
		clock:    clock,
		baseCtx:  baseCtx,
	}
	session.registry = NewRegistry(QueueConfig{
		OnFailure: session.reconcileFailure,
		Logger:    logger,
	})
	return session, nil
}

// SetSearch switches the active search keyword and therefore the cache entry
// that Notes and new optimistic updates operate on.
func (s *Session) SetSearch(keyword string) {
	s.mu.Lock()
	s.search = strings.TrimSpace(keyword)
	s.mu.Unlock()
}

// Notes returns the cached listing for the active search keyword.
func (s *Session) Notes() []notes.Note {
	listing, _ := s.cache.Read(s.activeQueryKey())
	return listing
}

// Refresh fetches the listing from the remote service and overwrites the
// cache entry for the active search keyword.
func (s *Session) Refresh(ctx context.Context) error {
	keyword := s.activeSearch()
	listing, err := s.remote.List(ctx, keyword)
	if err != nil {
		return err
	}
	s.cache.Write(queryKey(keyword), listing)
	return nil
}

// Sync waits for every queue to drain, then refreshes the cache from the
// server. The refresh is advisory: it reconciles server-assigned ids and
// normalized timestamps, not ordering.
func (s *Session) Sync(ctx context.Context) error {
	if err := s.registry.Wait(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Idle reports whether no mutation is pending or in flight on any note.
func (s *Session) Idle() bool {
	return s.registry.Idle()
}

// Queue exposes the mutation queue for a note. Primarily for orchestration
// that needs IsIdle or LastSnapshot directly.
func (s *Session) Queue(renderID notes.RenderID) *MutationQueue {
	return s.registry.Resolve(renderID)
}

// CreateNote drafts a note with a fresh render identifier and provisional
// timestamps, shows it at the top of the listing immediately, and queues the
// create call. The returned note carries no server id until the call resolves
// and a refresh replaces the provisional record.
func (s *Session) CreateNote(content, title string) (notes.Note, error) {
	renderIDValue, err := s.ids.NewID()
	if err != nil {
		return notes.Note{}, err
	}
	renderID, err := notes.NewRenderID(renderIDValue)
	if err != nil {
		return notes.Note{}, err
	}

	now := s.clock().UTC()
	draft := notes.Note{
		RenderID:  renderID.String(),
		Content:   content,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	key := s.activeQueryKey()
	s.registry.Resolve(renderID).Enqueue(Mutation{
		QueryKey: key,
		Previous: s.snapshot(key),
		Apply: func() {
			s.cache.Update(key, func(listing []notes.Note) []notes.Note {
				return append([]notes.Note{draft}, listing...)
			})
		},
		Call: func() error {
			_, err := s.remote.Create(s.baseCtx, renderID, content, title)
			return err
		},
	})

	return draft, nil
}

// EditNote queues a content/title replacement for the note, updating the
// cached record in place immediately.
func (s *Session) EditNote(renderID notes.RenderID, content, title string) {
	key := s.activeQueryKey()
	s.registry.Resolve(renderID).Enqueue(Mutation{
		QueryKey: key,
		Previous: s.snapshot(key),
		Apply: func() {
			s.cache.Update(key, func(listing []notes.Note) []notes.Note {
				for i := range listing {
					if listing[i].RenderID == renderID.String() {
						listing[i].Content = content
						listing[i].Title = title
					}
				}
				return listing
			})
		},
		Call: func() error {
			_, err := s.remote.Edit(s.baseCtx, renderID, content, title)
			return err
		},
	})
}

// DeleteNote removes the note from the listing immediately, queues the soft
// delete, and offers undo through the notifier. Undo is itself a queued
// mutation on the same note, so "delete then undo" reaches the server in that
// order even if the user clicks before the delete call resolves.
func (s *Session) DeleteNote(renderID notes.RenderID) {
	key := s.activeQueryKey()
	var deleted notes.Note
	if listing, ok := s.cache.Read(key); ok {
		for _, note := range listing {
			if note.RenderID == renderID.String() {
				deleted = note
				break
			}
		}
	}

	s.registry.Resolve(renderID).Enqueue(Mutation{
		QueryKey: key,
		Previous: s.snapshot(key),
		Apply: func() {
			s.cache.Update(key, func(listing []notes.Note) []notes.Note {
				kept := listing[:0]
				for _, note := range listing {
					if note.RenderID != renderID.String() {
						kept = append(kept, note)
					}
				}
				return kept
			})
		},
		Call: func() error {
			_, err := s.remote.Delete(s.baseCtx, renderID)
			return err
		},
	})

	s.notifier.NoteDeleted(deleted, func() {
		s.undoDelete(renderID, deleted)
	})
}

func (s *Session) undoDelete(renderID notes.RenderID, restored notes.Note) {
	key := s.activeQueryKey()
	s.registry.Resolve(renderID).Enqueue(Mutation{
		QueryKey: key,
		Previous: s.snapshot(key),
		Apply: func() {
			s.cache.Update(key, func(listing []notes.Note) []notes.Note {
				return append(listing, restored)
			})
		},
		Call: func() error {
			_, err := s.remote.UndoDelete(s.baseCtx, renderID)
			return err
		},
	})
}

// reconcileFailure is the queues' OnFailure hook: restore the cache entry to
// the last pre-enqueue snapshot, then surface the failure. The stale snapshot
// stays in place until the next Refresh replaces it with server state.
func (s *Session) reconcileFailure(failed Mutation, snapshot []notes.Note, err error) {
	s.cache.Write(failed.QueryKey, snapshot)
	s.logger.Warn("rolled back cache after failed mutation",
		zap.String("query_key", failed.QueryKey),
		zap.Error(err))
	s.notifier.MutationFailed(err)
}

func (s *Session) snapshot(queryKey string) []notes.Note {
	listing, _ := s.cache.Read(queryKey)
	return listing
}

func (s *Session) activeSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

func (s *Session) activeQueryKey() string {
	return queryKey(s.activeSearch())
}

func queryKey(searchKeyword string) string {
	if searchKeyword == "" {
		return "notes"
	}
	return "notes:search:" + searchKeyword
}
