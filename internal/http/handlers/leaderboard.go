package handlers

import (
	"errors"
	"net/http"

	"catacomb_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Leaderboard returns the season top plus the requester's own row when
// they rank below the cut. Works unauthenticated too.
func (h *Handler) Leaderboard(c *gin.Context) {
	requesterID, _ := getUserID(c)

	entries, err := h.Seasons.Leaderboard(c.Request.Context(), requesterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// MyRank returns the requester's leaderboard row.
func (h *Handler) MyRank(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	entry, err := h.Seasons.MyRank(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotRanked) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not ranked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// CurrentSeason returns the active season window.
func (h *Handler) CurrentSeason(c *gin.Context) {
	season, err := h.Seasons.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active season"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"number":    season.Number,
		"starts_at": season.Start,
		"ends_at":   season.End,
	})
}
