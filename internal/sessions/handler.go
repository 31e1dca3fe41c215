package sessions

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loudtogether/backend/internal/auth"
	"github.com/loudtogether/backend/internal/media"
	"github.com/loudtogether/backend/internal/middleware"
	"github.com/loudtogether/backend/pkg/response"
)

// MetadataLookup resolves a video id to provider metadata. Creation uses the
// title to derive the session name.
type MetadataLookup interface {
	VideoMeta(ctx context.Context, videoID string) (*media.VideoMeta, error)
}

// CreateRequest is the body for POST /api/sessions.
type CreateRequest struct {
	YouTubeURL string `json:"youtubeUrl" binding:"required"`
	AdminName  string `json:"adminName"`
}

// ParticipantRequest is the body for join/leave/remove-participant.
type ParticipantRequest struct {
	ParticipantName string `json:"participantName" binding:"required"`
}

// SyncRequest is the body for POST /api/sessions/:id/sync.
type SyncRequest struct {
	PositionSeconds float64 `json:"positionSeconds"`
	IsPlaying       bool    `json:"isPlaying"`
}

// Handler exposes the session operations over HTTP.
type Handler struct {
	svc    *Service
	meta   MetadataLookup
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(svc *Service, meta MetadataLookup, tokens *auth.TokenService, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, meta: meta, tokens: tokens, logger: logger}
}

// Create handles POST /api/sessions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	videoID, err := media.ExtractVideoID(req.YouTubeURL)
	if err != nil {
		response.BadRequest(c, "invalid YouTube URL")
		return
	}
	meta, err := h.meta.VideoMeta(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, media.ErrVideoNotFound) {
			response.BadRequest(c, "video not found")
			return
		}
		h.logger.Error("video metadata lookup failed", zap.String("video_id", videoID), zap.Error(err))
		response.ServiceUnavailable(c, "video lookup unavailable, try again")
		return
	}

	sess, err := h.svc.Create(c.Request.Context(), req.YouTubeURL, meta.Title, req.AdminName)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			response.Conflict(c, "could not allocate a unique session name, retry")
			return
		}
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}

	token, err := h.tokens.Generate(sess.ID, sess.AdminName)
	if err != nil {
		h.logger.Error("mint admin token failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}

	response.Created(c, gin.H{
		"sessionId":   sess.ID,
		"sessionName": sess.Name,
		"adminName":   sess.AdminName,
		"adminToken":  token,
	})
}

// Get handles GET /api/sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	sess, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "fetch session")
		return
	}
	response.OK(c, sess)
}

// GetByName handles GET /api/sessions/session/:name.
func (h *Handler) GetByName(c *gin.Context) {
	sess, err := h.svc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err, "fetch session by name")
		return
	}
	response.OK(c, sess)
}

// Join handles POST /api/sessions/:id/join.
func (h *Handler) Join(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sess, err := h.svc.Join(c.Request.Context(), id, req.ParticipantName)
	if err != nil {
		h.respondError(c, err, "join session")
		return
	}

	token, err := h.tokens.Generate(sess.ID, req.ParticipantName)
	if err != nil {
		h.logger.Error("mint participant token failed", zap.String("session_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to join session")
		return
	}

	response.OK(c, gin.H{
		"session":          sess,
		"participantToken": token,
	})
}

// Leave handles POST /api/sessions/:id/leave.
func (h *Handler) Leave(c *gin.Context) {
	h.removeParticipant(c, h.svc.Leave)
}

// RemoveParticipant handles POST /api/sessions/:id/remove-participant.
func (h *Handler) RemoveParticipant(c *gin.Context) {
	h.removeParticipant(c, h.svc.RemoveParticipant)
}

func (h *Handler) removeParticipant(c *gin.Context, remove func(context.Context, uuid.UUID, string) (*LeaveResult, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := remove(c.Request.Context(), id, req.ParticipantName)
	if err != nil {
		h.respondError(c, err, "leave session")
		return
	}
	if result.Deleted {
		response.OK(c, gin.H{"message": "participant removed and empty session deleted"})
		return
	}
	body := gin.H{
		"message":        "participant removed",
		"updatedSession": result.Session,
	}
	if result.NewAdmin != "" {
		body["newAdminName"] = result.NewAdmin
	}
	response.OK(c, body)
}

// Sync handles POST /api/sessions/:id/sync. The participant token middleware
// has already validated the Bearer token; the token must belong to this
// session, and the service enforces that the caller is the current admin.
func (h *Handler) Sync(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	tokenSession := c.MustGet(middleware.ContextSessionID).(uuid.UUID)
	caller := c.MustGet(middleware.ContextParticipant).(string)
	if tokenSession != id {
		response.Forbidden(c, "token does not belong to this session")
		return
	}

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sess, err := h.svc.Sync(c.Request.Context(), id, caller, req.PositionSeconds, req.IsPlaying)
	if err != nil {
		h.respondError(c, err, "sync audio")
		return
	}
	response.OK(c, gin.H{
		"message":  "audio synced",
		"playback": sess.Playback,
	})
}

// SyncStatus handles GET /api/sessions/:id/sync.
func (h *Handler) SyncStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	playback, err := h.svc.SyncStatus(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "fetch sync status")
		return
	}
	response.OK(c, playback)
}

func (h *Handler) respondError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "session not found")
	case errors.Is(err, ErrNotAdmin):
		response.Forbidden(c, "only the session admin can sync playback")
	case errors.Is(err, ErrInvalidPosition):
		response.BadRequest(c, "playback position must not be negative")
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		response.Internal(c, "failed to "+op)
	}
}
