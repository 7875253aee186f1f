package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConvertTicket exchanges one ticket for tap energy.
func (h *Handler) ConvertTicket(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	result, err := h.Taps.Convert(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type TapRequest struct {
	Count int64 `json:"count"`
}

// Tap scores a batch of taps.
func (h *Handler) Tap(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	var req TapRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	score, err := h.Taps.Tap(c.Request.Context(), userID, req.Count)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}
