package client

import (
	"context"
	"sync"

	"github.com/jotlabs/jot/internal/notes"
)

// Registry maps a note's render identifier to its MutationQueue. Queues are
// created on first use and live for the rest of the session; the registry is
// bounded by the number of notes touched, so nothing is ever evicted. It is
// owned by the Session rather than being package-level state.
type Registry struct {
	mu       sync.Mutex
	queues   map[notes.RenderID]*MutationQueue
	queueCfg QueueConfig
}

// NewRegistry constructs a registry whose queues share the given config.
func NewRegistry(queueCfg QueueConfig) *Registry {
	return &Registry{
		queues:   make(map[notes.RenderID]*MutationQueue),
		queueCfg: queueCfg,
	}
}

// Resolve returns the queue for the render identifier, creating it if needed.
func (r *Registry) Resolve(renderID notes.RenderID) *MutationQueue {
	r.mu.Lock()
	defer r.mu.Unlock()
	queue, ok := r.queues[renderID]
	if !ok {
		queue = NewMutationQueue(r.queueCfg)
		r.queues[renderID] = queue
	}
	return queue
}

// Idle reports whether every known queue is idle.
func (r *Registry) Idle() bool {
	for _, queue := range r.snapshot() {
		if !queue.IsIdle() {
			return false
		}
	}
	return true
}

// Wait blocks until every queue known at call time has drained.
func (r *Registry) Wait(ctx context.Context) error {
	for _, queue := range r.snapshot() {
		if err := queue.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) snapshot() []*MutationQueue {
	r.mu.Lock()
	defer r.mu.Unlock()
	queues := make([]*MutationQueue, 0, len(r.queues))
	for _, queue := range r.queues {
		queues = append(queues, queue)
	}
	return queues
}
