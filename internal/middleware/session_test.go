package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/reservation-gateway/pkg/session"
)

func setupSessionRouter(t *testing.T) (*gin.Engine, *session.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions := session.NewService("test-secret", time.Hour)

	router := gin.New()
	router.Use(SessionMiddleware(sessions, logger))
	router.GET("/whoami", func(c *gin.Context) {
		sessionID, ok := GetSessionID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
	})
	return router, sessions
}

func TestSessionMiddlewareMintsWhenAbsent(t *testing.T) {
	router, sessions := setupSessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	token := w.Header().Get(SessionTokenHeader)
	require.NotEmpty(t, token)

	claims, err := sessions.Validate(token)
	require.NoError(t, err)
	assert.Contains(t, w.Body.String(), claims.SessionID.String())
}

func TestSessionMiddlewareHonorsValidToken(t *testing.T) {
	router, sessions := setupSessionRouter(t)

	token, sessionID, err := sessions.Issue()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(SessionTokenHeader, token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sessionID.String())
	assert.Equal(t, token, w.Header().Get(SessionTokenHeader))
}

func TestSessionMiddlewareAcceptsBearerForm(t *testing.T) {
	router, sessions := setupSessionRouter(t)

	token, sessionID, err := sessions.Issue()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sessionID.String())
}

func TestSessionMiddlewareReplacesInvalidToken(t *testing.T) {
	router, sessions := setupSessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(SessionTokenHeader, "garbage-token")
	router.ServeHTTP(w, req)

	// Request still succeeds, with a freshly minted session
	assert.Equal(t, http.StatusOK, w.Code)
	newToken := w.Header().Get(SessionTokenHeader)
	require.NotEmpty(t, newToken)
	assert.NotEqual(t, "garbage-token", newToken)

	_, err := sessions.Validate(newToken)
	assert.NoError(t, err)
}
