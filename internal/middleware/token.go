package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loudtogether/backend/internal/auth"
	"github.com/loudtogether/backend/pkg/response"
)

const (
	// ContextSessionID is the key for the token's session id in gin context.
	ContextSessionID = "token_session_id"
	// ContextParticipant is the key for the token's participant name in gin context.
	ContextParticipant = "token_participant"
)

// ParticipantToken validates the Bearer participant token and sets its
// claims in the request context. Handlers still check that the token's
// session matches the session in the path.
func ParticipantToken(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := tokens.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSessionID, claims.SessionID)
		c.Set(ContextParticipant, claims.Participant)
		c.Next()
	}
}
