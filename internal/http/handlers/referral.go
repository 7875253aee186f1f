package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReferralStats returns the user's code, invite counts and share link.
func (h *Handler) ReferralStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	stats, err := h.Referrals.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":   stats.Code,
		"invited_count":   stats.InvitedCount,
		"valid_count":     stats.ValidCount,
		"gold_percentage": stats.GoldPercentage,
		"link":            fmt.Sprintf("https://t.me/%s?start=%s", h.BotUsername, stats.Code),
	})
}
