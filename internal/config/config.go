package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"catacomb_backend/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort          string
	DatabaseURL      string
	BotToken         string
	BotUsername      string
	JWTSecret        string
	RedisAddr        string
	AdminTelegramIDs []int64

	// Reward op limits
	RewardRateLimit  int
	RewardRateWindow int

	CatalogRefreshInterval time.Duration
}

// Load reads the config from env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	botUsername := os.Getenv("BOT_USERNAME")
	if botUsername == "" {
		botUsername = "CatacombBot"
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	// comma-separated tg ids
	var adminIDs []int64
	adminIDsStr := os.Getenv("ADMIN_TELEGRAM_IDS")
	if adminIDsStr != "" {
		for _, idStr := range strings.Split(adminIDsStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	rateLimit := 30
	if v := os.Getenv("REWARD_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rateLimit = n
		}
	}

	rateWindow := 60
	if v := os.Getenv("REWARD_RATE_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rateWindow = n
		}
	}

	refreshInterval := 5 * time.Minute
	if v := os.Getenv("CATALOG_REFRESH_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			refreshInterval = time.Duration(n) * time.Second
		}
	}

	return &Config{
		AppPort:                port,
		DatabaseURL:            dbURL,
		BotToken:               botToken,
		BotUsername:            botUsername,
		JWTSecret:              jwtSecret,
		RedisAddr:              redisAddr,
		AdminTelegramIDs:       adminIDs,
		RewardRateLimit:        rateLimit,
		RewardRateWindow:       rateWindow,
		CatalogRefreshInterval: refreshInterval,
	}
}
