package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RequireAdmin aborts unless the authenticated user's Telegram id is in
// the admin allowlist.
func (h *Handler) RequireAdmin(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	u, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	for _, id := range h.AdminTgIDs {
		if u.TgID == id {
			c.Next()
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
}

// AdminRefreshCatalog reloads the reward tables immediately instead of
// waiting for the next ticker pass.
func (h *Handler) AdminRefreshCatalog(c *gin.Context) {
	if err := h.Catalogs.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AdminCompactHistory folds history entries that predate the current season
// into summary rows.
func (h *Handler) AdminCompactHistory(c *gin.Context) {
	folded, err := h.Seasons.Compact(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "compaction failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folded": folded})
}

// AdminRecomputeSeason rebuilds one user's (or everyone's) season totals
// from the raw histories.
func (h *Handler) AdminRecomputeSeason(c *gin.Context) {
	ctx := c.Request.Context()

	if idStr := c.Query("user_id"); idStr != "" {
		userID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		totals, err := h.Seasons.Recompute(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recompute failed"})
			return
		}
		c.JSON(http.StatusOK, totals)
		return
	}

	if err := h.Seasons.RecomputeAll(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recompute failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type BlockRequest struct {
	UserID  int64 `json:"user_id"`
	Blocked bool  `json:"blocked"`
}

// AdminBlockUser toggles a user's blocked flag. Blocked users are refused
// reward operations and hidden from the leaderboard.
func (h *Handler) AdminBlockUser(c *gin.Context) {
	var req BlockRequest
	if err := c.BindJSON(&req); err != nil || req.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if err := h.Users.SetBlocked(c.Request.Context(), req.UserID, req.Blocked); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type TaskCompleteRequest struct {
	UserID int64 `json:"user_id"`
	TaskID int64 `json:"task_id"`
	XP     int64 `json:"xp"`
	Gold   int64 `json:"gold"`
}

// AdminCompleteTask credits an externally validated task reward.
func (h *Handler) AdminCompleteTask(c *gin.Context) {
	var req TaskCompleteRequest
	if err := c.BindJSON(&req); err != nil || req.UserID == 0 || req.TaskID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.XP < 0 || req.Gold < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "negative reward"})
		return
	}

	if err := h.Tasks.Complete(c.Request.Context(), req.UserID, req.TaskID, req.XP, req.Gold); err != nil {
		respondRewardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
