package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Soft-deleted notes older than this are hard-deleted as a side effect of the
// next delete call for the same user (garbage-collection-on-write).
const softDeleteRetention = 24 * time.Hour

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError pairs a dotted operation code with its cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "notes.service.new"
	opCreate     = "notes.create"
	opEdit       = "notes.edit"
	opDelete     = "notes.delete"
	opUndoDelete = "notes.undo_delete"
	opList       = "notes.list"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies required by the notes service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// IDProvider issues server-side note identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// Service owns persistence of notes: creation, edits, soft deletion with a
// bounded undo window, and listing with keyword search.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Create persists a new note with a server-assigned identifier. The render
// identifier arrives from the client and must not collide with an existing note.
func (s *Service) Create(ctx context.Context, userID UserID, renderID RenderID, content, title string) (Note, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Note{}).
		Where("render_id = ?", renderID.String()).
		Count(&count).Error; err != nil {
		s.logError(opCreate, "lookup_failed", err, zap.String("render_id", renderID.String()))
		return Note{}, newServiceError(opCreate, "lookup_failed", err)
	}
	if count > 0 {
		return Note{}, newServiceError(opCreate, "duplicate_render_id", ErrDuplicateRenderID)
	}

	noteID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err)
		return Note{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	note := Note{
		ID:        noteID,
		RenderID:  renderID.String(),
		UserID:    userID.String(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		s.logError(opCreate, "insert_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("render_id", renderID.String()))
		return Note{}, newServiceError(opCreate, "insert_failed", err)
	}

	return note, nil
}

// Edit replaces the content (and title) of the note keyed by render identifier.
func (s *Service) Edit(ctx context.Context, userID UserID, renderID RenderID, content, title string) (Note, error) {
	note, err := s.takeByRenderID(ctx, opEdit, userID, renderID)
	if err != nil {
		return Note{}, err
	}

	note.Content = content
	note.Title = title
	note.UpdatedAt = s.clock().UTC()
	if err := s.db.WithContext(ctx).Save(&note).Error; err != nil {
		s.logError(opEdit, "save_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("render_id", renderID.String()))
		return Note{}, newServiceError(opEdit, "save_failed", err)
	}

	return note, nil
}

// SoftDelete stamps the note deleted. Before marking, it hard-deletes any of
// the user's notes whose soft-delete is past the retention window, so stale
// tombstones are collected without a background job.
func (s *Service) SoftDelete(ctx context.Context, userID UserID, renderID RenderID) (Note, error) {
	cutoff := s.clock().UTC().Add(-softDeleteRetention)
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NOT NULL AND deleted_at <= ?", userID.String(), cutoff).
		Delete(&Note{}).Error; err != nil {
		s.logError(opDelete, "purge_failed", err, zap.String("user_id", userID.String()))
		return Note{}, newServiceError(opDelete, "purge_failed", err)
	}

	note, err := s.takeByRenderID(ctx, opDelete, userID, renderID)
	if err != nil {
		return Note{}, err
	}

	now := s.clock().UTC()
	note.DeletedAt = &now
	note.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(&note).Error; err != nil {
		s.logError(opDelete, "save_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("render_id", renderID.String()))
		return Note{}, newServiceError(opDelete, "save_failed", err)
	}

	return note, nil
}

// UndoDelete clears the soft-delete stamp, restoring the note to listings.
func (s *Service) UndoDelete(ctx context.Context, userID UserID, renderID RenderID) (Note, error) {
	note, err := s.takeByRenderID(ctx, opUndoDelete, userID, renderID)
	if err != nil {
		return Note{}, err
	}

	note.DeletedAt = nil
	note.UpdatedAt = s.clock().UTC()
	if err := s.db.WithContext(ctx).Save(&note).Error; err != nil {
		s.logError(opUndoDelete, "save_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("render_id", renderID.String()))
		return Note{}, newServiceError(opUndoDelete, "save_failed", err)
	}

	return note, nil
}

// List returns the user's live notes, newest first. Soft-deleted notes are
// always excluded. A non-empty keyword filters by case-insensitive substring
// match on content or title.
func (s *Service) List(ctx context.Context, userID UserID, searchKeyword string) ([]Note, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID.String())

	keyword := strings.TrimSpace(searchKeyword)
	if keyword != "" {
		pattern := "%" + strings.ToLower(keyword) + "%"
		query = query.Where("LOWER(content) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
	}

	var result []Note
	if err := query.Order("created_at DESC").Find(&result).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newServiceError(opList, "query_failed", err)
	}

	return result, nil
}

func (s *Service) takeByRenderID(ctx context.Context, operation string, userID UserID, renderID RenderID) (Note, error) {
	var note Note
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND render_id = ?", userID.String(), renderID.String()).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, newServiceError(operation, "not_found", ErrNoteNotFound)
	}
	if err != nil {
		s.logError(operation, "lookup_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("render_id", renderID.String()))
		return Note{}, newServiceError(operation, "lookup_failed", err)
	}
	return note, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("notes service error", attrs...)
}
