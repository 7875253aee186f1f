package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catacomb_backend/internal/bot"
	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/config"
	"catacomb_backend/internal/db"
	httpServer "catacomb_backend/internal/http"
	"catacomb_backend/internal/http/middleware"
	"catacomb_backend/internal/logger"
	"catacomb_backend/internal/repository"
	"catacomb_backend/internal/service"
	"catacomb_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	cfg := config.Load()
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reward tables snapshot, refreshed in the background
	catalogs := catalog.NewStore(repository.NewCatalogRepository(dbPool))
	if err := catalogs.Refresh(ctx); err != nil {
		logger.Fatal("initial catalog load failed", "error", err)
	}
	go catalogs.RunRefresher(ctx, cfg.CatalogRefreshInterval)

	middleware.InitRedisRateLimiter(cfg.RedisAddr, os.Getenv("REDIS_PASSWORD"), 0)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hub := ws.NewHub()
	h := httpServer.RegisterRoutes(r, dbPool, catalogs, hub, cfg, version)

	var adminBot *bot.AdminBot
	if len(cfg.AdminTelegramIDs) > 0 {
		adminSvc := service.NewAdminService(dbPool, catalogs, h.Seasons)
		b, err := bot.NewAdminBot(cfg.BotToken, adminSvc, cfg.AdminTelegramIDs)
		if err != nil {
			logger.Error("admin bot init failed", "error", err)
		} else {
			adminBot = b
			go adminBot.Start()
		}
	} else {
		logger.Info("admin bot disabled, no ADMIN_TELEGRAM_IDS configured")
	}

	// Push leaderboard snapshots to subscribed clients
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if hub.ClientCount() == 0 {
					continue
				}
				entries, err := h.Seasons.Leaderboard(ctx, 0)
				if err != nil {
					logger.Error("leaderboard broadcast failed", "error", err)
					continue
				}
				hub.BroadcastLeaderboard(entries)
			}
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()

	if adminBot != nil {
		adminBot.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
