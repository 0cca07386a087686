package client

import (
	"github.com/jotlabs/jot/internal/notes"
	"go.uber.org/zap"
)

// Notifier receives the user-facing signals of the mutation pipeline: the
// dismissible "note deleted" affordance with its undo hook, and mutation
// failures after the cache has been rolled back.
type Notifier interface {
	NoteDeleted(note notes.Note, undo func())
	MutationFailed(err error)
}

// NewLoggerNotifier returns a Notifier that records events on a zap logger.
// Headless callers (tests, the CLI) use it in place of a real UI surface.
func NewLoggerNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggerNotifier{logger: logger}
}

type loggerNotifier struct {
	logger *zap.Logger
}

func (n *loggerNotifier) NoteDeleted(note notes.Note, undo func()) {
	n.logger.Info("note deleted", zap.String("render_id", note.RenderID))
}

func (n *loggerNotifier) MutationFailed(err error) {
	n.logger.Warn("note mutation failed", zap.Error(err))
}
