package handlers

import (
	"net/http"

	"kerala-sedp/internal/store"

	"github.com/gin-gonic/gin"
)

// SnapshotHandler serves the read-only collections of the snapshot.
type SnapshotHandler struct {
	store *store.Store
}

func NewSnapshotHandler(s *store.Store) *SnapshotHandler {
	return &SnapshotHandler{store: s}
}

func (h *SnapshotHandler) GetPanchayaths(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"panchayaths": h.store.Panchayaths(),
	})
}

func (h *SnapshotHandler) GetAnnouncements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"announcements": h.store.Announcements(),
	})
}

func (h *SnapshotHandler) GetGallery(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gallery": h.store.Gallery(),
	})
}

func (h *SnapshotHandler) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.store.Notifications(),
	})
}

// Refresh reloads the whole snapshot on demand. The reload itself never
// errors out to the caller; failures surface on the notification feed.
func (h *SnapshotHandler) Refresh(c *gin.Context) {
	h.store.Refresh(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Snapshot refresh completed",
		"loading": h.store.Loading(),
	})
}
