package handlers

import (
	"net/http"

	"kerala-sedp/internal/session"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions *session.Store
}

func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// GetSession reports the mirrored platform session. "Mirror not running" and
// "nobody signed in" are distinct failure modes and get distinct messages.
func (h *SessionHandler) GetSession(c *gin.Context) {
	user, started := h.sessions.Current()
	if !started {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Session mirror is not running",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "No user is signed in",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
