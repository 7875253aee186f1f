package http

import (
	"os"
	"strconv"
	"time"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/config"
	"catacomb_backend/internal/http/handlers"
	"catacomb_backend/internal/http/middleware"
	"catacomb_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, catalogs *catalog.Store, hub *ws.Hub, cfg *config.Config, version string) *handlers.Handler {
	h := handlers.NewHandler(db, catalogs, cfg.BotToken, cfg.BotUsername, cfg.AdminTelegramIDs)
	healthHandler := handlers.NewHealthHandler(db, catalogs, version)

	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth
	api.POST("/auth", middleware.RedisRateLimit(authRateLimit, authRateWindow), h.AuthHandler)

	// Profile
	api.GET("/me", middleware.JWT(), h.Me)
	api.GET("/me/rewards", middleware.JWT(), h.MyRewards)

	// Reward op rate limiter (per user, not per IP)
	rewardRL := middleware.RewardRateLimit(cfg.RewardRateLimit, time.Duration(cfg.RewardRateWindow)*time.Second)

	// Chests
	api.POST("/chest/open", middleware.JWT(), rewardRL, h.OpenChest)
	api.GET("/chest/timer", middleware.JWT(), h.ChestTimer)
	api.GET("/chest/history", middleware.JWT(), h.ChestHistory)

	// Tickets
	api.POST("/tickets/daily", middleware.JWT(), rewardRL, h.ClaimDailyTickets)
	api.POST("/tickets/ad", middleware.JWT(), rewardRL, h.ClaimAdTickets)
	api.GET("/tickets/info", middleware.JWT(), h.TicketInfo)

	// Tap game
	api.POST("/tap/convert", middleware.JWT(), rewardRL, h.ConvertTicket)
	api.POST("/tap", middleware.JWT(), rewardRL, h.Tap)

	// Level tables
	api.GET("/levels", h.Levels)

	// Referrals
	api.GET("/referral/stats", middleware.JWT(), h.ReferralStats)

	// Seasons and leaderboard
	api.GET("/season/current", h.CurrentSeason)
	api.GET("/leaderboard", middleware.OptionalJWT(), h.Leaderboard)
	api.GET("/leaderboard/rank", middleware.JWT(), h.MyRank)

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.JWT(), h.RequireAdmin)
	{
		admin.POST("/catalog/refresh", h.AdminRefreshCatalog)
		admin.POST("/history/compact", h.AdminCompactHistory)
		admin.POST("/season/recompute", h.AdminRecomputeSeason)
		admin.POST("/users/block", h.AdminBlockUser)
		admin.POST("/tasks/complete", h.AdminCompleteTask)
	}

	// Leaderboard updates over WebSocket
	r.GET("/ws", middleware.SimpleRateLimit(10, time.Minute), h.WS(hub))

	return h
}
