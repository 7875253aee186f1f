package handlers

import (
	"errors"
	"net/http"

	"catacomb_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData     string `json:"init_data"`
	ReferralCode string `json:"referral_code"`
}

func (h *Handler) AuthHandler(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	user, token, err := h.Auth.Authenticate(c.Request.Context(), req.InitData, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInitData):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
		case errors.Is(err, service.ErrUserBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "user is blocked"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"tg_id":      user.TgID,
			"username":   user.Username,
			"first_name": user.FirstName,
			"xp":         user.XP,
			"gold":       user.Gold,
		},
	})
}
