package client

import (
	"context"
	"sync"

	"github.com/jotlabs/jot/internal/notes"
	"go.uber.org/zap"
)

// FailureFunc receives the mutation whose call failed, the queue's last
// pre-enqueue snapshot, and the call error. Reconciliation (rolling the cache
// back, notifying the user) belongs to the orchestration layer; the queue only
// truncates its own pending work.
type FailureFunc func(failed Mutation, snapshot []notes.Note, err error)

// QueueConfig configures a MutationQueue.
type QueueConfig struct {
	OnFailure FailureFunc
	Logger    *zap.Logger
}

// MutationQueue serializes the mutations of a single note. Each Enqueue
// applies its optimistic effect synchronously; remote calls are driven one at
// a time, in enqueue order, by at most one drain goroutine. The first failed
// call drops every mutation still pending behind it.
//
// The snapshot kept for rollback is the one recorded by the most recent
// Enqueue, not the state preceding the mutation that failed. A burst of three
// edits failing on the second therefore rolls back to "before edit three".
// This under-rolls-back mid-burst and is a deliberate approximation: for a
// note editor the next refresh reconverges, and keeping one snapshot avoids
// holding a listing copy per pending mutation.
type MutationQueue struct {
	mu           sync.Mutex
	pending      []Mutation
	processing   bool
	lastSnapshot []notes.Note
	idle         chan struct{}

	onFailure FailureFunc
	logger    *zap.Logger
}

// NewMutationQueue constructs an idle queue.
func NewMutationQueue(cfg QueueConfig) *MutationQueue {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := make(chan struct{})
	close(idle)
	return &MutationQueue{
		idle:      idle,
		onFailure: cfg.OnFailure,
		logger:    logger,
	}
}

// Enqueue appends the mutation, records its snapshot as the rollback target,
// applies its optimistic effect before returning, and starts a drain if none
// is running. It never returns an error: call failures surface later through
// the OnFailure callback.
func (q *MutationQueue) Enqueue(m Mutation) {
	q.mu.Lock()
	q.pending = append(q.pending, m)
	q.lastSnapshot = copyNotes(m.Previous)
	if m.Apply != nil {
		// Applied under the queue lock so visible effects land in enqueue
		// order even when callers race. Apply must not re-enter the queue.
		m.Apply()
	}
	start := !q.processing
	if start {
		q.processing = true
		q.idle = make(chan struct{})
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

func (q *MutationQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.processing = false
			close(q.idle)
			q.mu.Unlock()
			return
		}
		head := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		err := head.Call()
		if err == nil {
			continue
		}

		q.mu.Lock()
		dropped := len(q.pending)
		q.pending = nil
		snapshot := copyNotes(q.lastSnapshot)
		q.mu.Unlock()

		q.logger.Warn("mutation failed, truncating queue",
			zap.String("query_key", head.QueryKey),
			zap.Int("dropped", dropped),
			zap.Error(err))
		if q.onFailure != nil {
			q.onFailure(head, snapshot, err)
		}
		// Mutations enqueued after the truncation are fresh work; loop
		// around rather than leaving them stranded.
	}
}

// IsIdle reports whether the queue has no pending work and no running drain.
// Orchestration uses it to tell a direct send apart from queueing behind
// in-flight mutations.
func (q *MutationQueue) IsIdle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0 && !q.processing
}

// LastSnapshot returns the rollback target: the cache state recorded by the
// most recent Enqueue.
func (q *MutationQueue) LastSnapshot() []notes.Note {
	q.mu.Lock()
	defer q.mu.Unlock()
	return copyNotes(q.lastSnapshot)
}

// Wait blocks until the drain running at the time of the call has gone idle,
// or the context is done.
func (q *MutationQueue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
