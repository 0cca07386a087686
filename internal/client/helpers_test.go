package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jotlabs/jot/internal/notes"
)

const waitTimeout = 5 * time.Second

func mustRenderID(t *testing.T, value string) notes.RenderID {
	t.Helper()
	id, err := notes.NewRenderID(value)
	if err != nil {
		t.Fatalf("unexpected render id error: %v", err)
	}
	return id
}

func waitForQueue(t *testing.T, queue *MutationQueue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := queue.Wait(ctx); err != nil {
		t.Fatalf("queue did not drain: %v", err)
	}
}

type fakeRemote struct {
	mu      sync.Mutex
	log     []string
	gates   map[string]chan struct{}
	errors  map[string]error
	listing []notes.Note
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		gates:  make(map[string]chan struct{}),
		errors: make(map[string]error),
	}
}

// block makes calls of the given operation wait until release is called.
func (f *fakeRemote) block(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[op] = make(chan struct{})
}

func (f *fakeRemote) release(op string) {
	f.mu.Lock()
	gate := f.gates[op]
	delete(f.gates, op)
	f.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

func (f *fakeRemote) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[op] = err
}

// waitForCall blocks until the remote has recorded the given call.
func (f *fakeRemote) waitForCall(t *testing.T, call string) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		for _, recorded := range f.calls() {
			if recorded == call {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("remote never received call %q, log: %v", call, f.calls())
}

func (f *fakeRemote) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}

func (f *fakeRemote) record(op string, renderID notes.RenderID) error {
	f.mu.Lock()
	f.log = append(f.log, op+":"+renderID.String())
	gate := f.gates[op]
	err := f.errors[op]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeRemote) Create(_ context.Context, renderID notes.RenderID, content, title string) (notes.Note, error) {
	if err := f.record("create", renderID); err != nil {
		return notes.Note{}, err
	}
	return notes.Note{ID: "server-" + renderID.String(), RenderID: renderID.String(), Content: content, Title: title}, nil
}

func (f *fakeRemote) Edit(_ context.Context, renderID notes.RenderID, content, title string) (notes.Note, error) {
	if err := f.record("edit", renderID); err != nil {
		return notes.Note{}, err
	}
	return notes.Note{RenderID: renderID.String(), Content: content, Title: title}, nil
}

func (f *fakeRemote) Delete(_ context.Context, renderID notes.RenderID) (notes.Note, error) {
	if err := f.record("delete", renderID); err != nil {
		return notes.Note{}, err
	}
	return notes.Note{RenderID: renderID.String()}, nil
}

func (f *fakeRemote) UndoDelete(_ context.Context, renderID notes.RenderID) (notes.Note, error) {
	if err := f.record("undo_delete", renderID); err != nil {
		return notes.Note{}, err
	}
	return notes.Note{RenderID: renderID.String()}, nil
}

func (f *fakeRemote) List(_ context.Context, searchKeyword string) ([]notes.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, "list:"+searchKeyword)
	if err := f.errors["list"]; err != nil {
		return nil, err
	}
	return append([]notes.Note(nil), f.listing...), nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	deleted  []notes.Note
	undos    []func()
	failures []error
}

func (n *fakeNotifier) NoteDeleted(note notes.Note, undo func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, note)
	n.undos = append(n.undos, undo)
}

func (n *fakeNotifier) MutationFailed(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, err)
}

func (n *fakeNotifier) failureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.failures)
}

func (n *fakeNotifier) lastUndo(t *testing.T) func() {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.undos) == 0 {
		t.Fatalf("expected an undo affordance to have been offered")
	}
	return n.undos[len(n.undos)-1]
}
