package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me returns the user's balances plus their derived level and progress.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	snap, err := h.Catalogs.Current()
	if err != nil {
		respondRewardError(c, err)
		return
	}
	info := snap.Levels.LevelFor(user.XP)

	c.JSON(http.StatusOK, gin.H{
		"id":                       user.ID,
		"tg_id":                    user.TgID,
		"username":                 user.Username,
		"first_name":               user.FirstName,
		"created_at":               user.CreatedAt,
		"xp":                       user.XP,
		"gold":                     user.Gold,
		"tickets_remaining":        user.TicketsRemaining,
		"current_available_taps":   user.CurrentAvailableTaps,
		"current_season_xp":        user.CurrentSeasonXP,
		"current_season_gold":      user.CurrentSeasonGold,
		"level":                    info.Level.Level,
		"percentage_to_next_level": info.PercentageToNextLevel,
	})
}

// MyRewards returns the user's recent reward events, newest first.
func (h *Handler) MyRewards(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	events, err := h.Events.RecentByUser(c.Request.Context(), userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
