package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OpenChest runs the gated chest opening flow.
func (h *Handler) OpenChest(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	result, err := h.Chests.Open(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ChestTimer reports when the next open becomes available.
func (h *Handler) ChestTimer(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	timer, err := h.Chests.Timer(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, timer)
}

// ChestHistory returns the user's chest opening history.
func (h *Handler) ChestHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	history, err := h.Chests.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
