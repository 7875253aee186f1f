package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClaimDailyTickets advances the daily claim state machine.
func (h *Handler) ClaimDailyTickets(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	result, err := h.Tickets.ClaimDaily(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClaimAdTickets grants the fixed ad reward.
func (h *Handler) ClaimAdTickets(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	tickets, err := h.Tickets.ClaimAd(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// TicketInfo reports both claim paths without claiming.
func (h *Handler) TicketInfo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	info, err := h.Tickets.Info(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
