package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jotlabs/jot/internal/notes"
	"go.uber.org/zap"
)

const userIDContextKey = "jot_user_id"

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingNotesService  = errors.New("notes service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates session tokens for API requests.
type TokenManager interface {
	IssueToken(subject string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies collects everything the HTTP surface needs.
type Dependencies struct {
	TokenManager TokenManager
	NotesService *notes.Service
	Logger       *zap.Logger
}

// NewHTTPHandler wires the gin router for the notes API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.NotesService == nil {
		return nil, errMissingNotesService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:       deps.TokenManager,
		notesService: deps.NotesService,
		logger:       logger,
	}

	router.POST("/auth/token", handler.handleIssueToken)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/notes", handler.handleListNotes)
	protected.POST("/notes", handler.handleCreateNote)
	protected.PUT("/notes/:renderId", handler.handleEditNote)
	protected.DELETE("/notes/:renderId", handler.handleDeleteNote)
	protected.POST("/notes/:renderId/undelete", handler.handleUndoDeleteNote)

	return router, nil
}

type httpHandler struct {
	tokens       TokenManager
	notesService *notes.Service
	logger       *zap.Logger
}

type tokenRequestPayload struct {
	UserID string `json:"user_id"`
}

type tokenResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleIssueToken(c *gin.Context) {
	var request tokenRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(strings.TrimSpace(request.UserID))
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, tokenResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

type notePayload struct {
	RenderID string `json:"render_id"`
	Content  string `json:"content"`
	Title    string `json:"title"`
}

type listResponsePayload struct {
	Notes []notes.Note `json:"notes"`
}

func (h *httpHandler) handleListNotes(c *gin.Context) {
	userID, ok := h.requestUserID(c)
	if !ok {
		return
	}

	result, err := h.notesService.List(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		h.respondServiceError(c, err, "list notes failed")
		return
	}

	c.JSON(http.StatusOK, listResponsePayload{Notes: result})
}

func (h *httpHandler) handleCreateNote(c *gin.Context) {
	userID, ok := h.requestUserID(c)
	if !ok {
		return
	}

	var request notePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	renderID, err := notes.NewRenderID(request.RenderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_render_id"})
		return
	}

	note, err := h.notesService.Create(c.Request.Context(), userID, renderID, request.Content, request.Title)
	if err != nil {
		h.respondServiceError(c, err, "create note failed")
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *httpHandler) handleEditNote(c *gin.Context) {
	userID, ok := h.requestUserID(c)
	if !ok {
		return
	}
	renderID, err := notes.NewRenderID(c.Param("renderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_render_id"})
		return
	}

	var request notePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	note, err := h.notesService.Edit(c.Request.Context(), userID, renderID, request.Content, request.Title)
	if err != nil {
		h.respondServiceError(c, err, "edit note failed")
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *httpHandler) handleDeleteNote(c *gin.Context) {
	userID, ok := h.requestUserID(c)
	if !ok {
		return
	}
	renderID, err := notes.NewRenderID(c.Param("renderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_render_id"})
		return
	}

	note, err := h.notesService.SoftDelete(c.Request.Context(), userID, renderID)
	if err != nil {
		h.respondServiceError(c, err, "delete note failed")
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *httpHandler) handleUndoDeleteNote(c *gin.Context) {
	userID, ok := h.requestUserID(c)
	if !ok {
		return
	}
	renderID, err := notes.NewRenderID(c.Param("renderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_render_id"})
		return
	}

	note, err := h.notesService.UndoDelete(c.Request.Context(), userID, renderID)
	if err != nil {
		h.respondServiceError(c, err, "undo delete failed")
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *httpHandler) requestUserID(c *gin.Context) (notes.UserID, bool) {
	raw := c.GetString(userIDContextKey)
	userID, err := notes.NewUserID(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

func (h *httpHandler) respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, notes.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "note_not_found"})
	case errors.Is(err, notes.ErrDuplicateRenderID):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_render_id"})
	default:
		h.logger.Error(message, zap.Error(err))
		var serviceErr *notes.ServiceError
		if errors.As(err, &serviceErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "code": serviceErr.Code()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}
