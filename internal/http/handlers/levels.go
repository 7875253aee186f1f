package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Levels returns the level and tap level tables from the active snapshot.
func (h *Handler) Levels(c *gin.Context) {
	snap, err := h.Catalogs.Current()
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"levels":     snap.Levels.Levels(),
		"tap_levels": snap.TapLevels.Levels(),
		"loaded_at":  snap.LoadedAt,
	})
}
