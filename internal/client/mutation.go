package client

import "github.com/jotlabs/jot/internal/notes"

// Mutation describes one queued note operation: the remote call, the
// synchronous optimistic effect, and the cache state observed by the caller
// immediately before that effect was applied.
//
// Previous is captured by the caller, not the queue: only the caller knows
// which query key it read and when. QueryKey names the cache entry the
// snapshot belongs to, so reconciliation can restore it on failure.
type Mutation struct {
	QueryKey string
	Call     func() error
	Apply    func()
	Previous []notes.Note
}
