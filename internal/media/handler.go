package media

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loudtogether/backend/pkg/response"
)

// Handler exposes audio asset resolution over HTTP.
type Handler struct {
	resolver *Resolver
	logger   *zap.Logger
}

// NewHandler creates a media handler.
func NewHandler(resolver *Resolver, logger *zap.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// AudioInfo handles GET /api/sessions/audio-info?url=. Returns 200 with the
// asset URL when ready, 202 while the transcode job runs.
func (h *Handler) AudioInfo(c *gin.Context) {
	sourceURL := c.Query("url")
	if sourceURL == "" {
		response.BadRequest(c, "url query parameter required")
		return
	}

	info, err := h.resolver.Resolve(c.Request.Context(), sourceURL)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSource):
			response.BadRequest(c, "invalid YouTube URL")
		case errors.Is(err, ErrVideoNotFound):
			response.BadRequest(c, "video not found")
		default:
			h.logger.Error("audio info resolution failed", zap.String("url", sourceURL), zap.Error(err))
			response.ServiceUnavailable(c, "audio resolution unavailable, try again")
		}
		return
	}

	if info.Processing {
		response.Accepted(c, info)
		return
	}
	response.OK(c, info)
}
