package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/pkg/session"
)

// SessionContextKey is the key used to store the session id in Gin context
const SessionContextKey = "session_id"

// SessionTokenHeader carries the session token on requests and responses.
// The Authorization Bearer form is also accepted on requests.
const SessionTokenHeader = "X-Session-Token"

// SessionMiddleware attaches an anonymous session to every request. A valid
// token is honored; an absent, expired, or garbled one gets a fresh session
// minted silently. Requests never fail for session reasons, the client just
// loses its old reserved set. The active token is echoed on the response so
// the client can persist it.
func SessionMiddleware(sessions *session.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)

		var sessionID uuid.UUID
		responseToken := tokenString

		if tokenString != "" {
			claims, err := sessions.Validate(tokenString)
			if err == nil {
				sessionID = claims.SessionID
			} else {
				logger.WithError(err).WithField("path", c.Request.URL.Path).
					Debug("Session token rejected, minting a new session")
			}
		}

		if sessionID == uuid.Nil {
			token, newID, err := sessions.Issue()
			if err != nil {
				logger.WithError(err).Error("Failed to mint session token")
				c.JSON(500, gin.H{"error": "Failed to establish session"})
				c.Abort()
				return
			}
			sessionID = newID
			responseToken = token
		}

		c.Header(SessionTokenHeader, responseToken)
		c.Set(SessionContextKey, sessionID.String())
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(SessionTokenHeader)); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetSessionID retrieves the session id set by SessionMiddleware.
func GetSessionID(c *gin.Context) (string, bool) {
	value, exists := c.Get(SessionContextKey)
	if !exists {
		return "", false
	}
	sessionID, ok := value.(string)
	if !ok || sessionID == "" {
		return "", false
	}
	return sessionID, true
}
