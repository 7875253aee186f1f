package handlers

import (
	"errors"
	"net/http"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/progression"
	"catacomb_backend/internal/repository"
	"catacomb_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB          *pgxpool.Pool
	BotUsername string
	AdminTgIDs  []int64

	Users    *repository.UserRepository
	Events   *repository.RewardEventRepository
	Catalogs *catalog.Store

	Auth      *service.AuthService
	Chests    *service.ChestService
	Tickets   *service.TicketService
	Taps      *service.TapService
	Referrals *service.ReferralService
	Seasons   *service.SeasonService
	Tasks     *service.TaskService
}

func NewHandler(db *pgxpool.Pool, catalogs *catalog.Store, botToken, botUsername string, adminTgIDs []int64) *Handler {
	users := repository.NewUserRepository(db)
	history := repository.NewHistoryRepository(db)
	referrals := repository.NewReferralRepository(db)
	seasons := repository.NewSeasonRepository(db)
	events := repository.NewRewardEventRepository(db)

	referralSvc := service.NewReferralService(db, users, referrals, events, catalogs)

	return &Handler{
		DB:          db,
		BotUsername: botUsername,
		AdminTgIDs:  adminTgIDs,
		Users:       users,
		Events:      events,
		Catalogs:    catalogs,
		Auth:        service.NewAuthService(users, referrals, botToken),
		Chests:      service.NewChestService(db, users, history, events, catalogs, referralSvc),
		Tickets:     service.NewTicketService(db, users, history, events, catalogs),
		Taps:        service.NewTapService(db, users, history, events, catalogs, referralSvc),
		Referrals:   referralSvc,
		Seasons:     service.NewSeasonService(users, history, referrals, seasons),
		Tasks:       service.NewTaskService(db, users, history, events, catalogs, referralSvc),
	}
}

// getUserID extracts user_id from the gin context
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// respondRewardError maps service errors to HTTP responses. Cooldowns and
// limits carry their remaining wait so clients can render timers.
func respondRewardError(c *gin.Context, err error) {
	var claimed *progression.AlreadyClaimedError
	if errors.As(err, &claimed) {
		c.JSON(http.StatusConflict, gin.H{
			"error":            "already claimed",
			"retry_in_seconds": int64(claimed.Remaining.Seconds()),
		})
		return
	}

	var cooldown *progression.CooldownActiveError
	if errors.As(err, &cooldown) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":            "cooldown active",
			"retry_in_seconds": int64(cooldown.Remaining.Seconds()),
		})
		return
	}

	var limit *progression.DailyLimitError
	if errors.As(err, &limit) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":            "daily limit reached",
			"retry_in_seconds": int64(limit.Remaining.Seconds()),
		})
		return
	}

	switch {
	case errors.Is(err, progression.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "already claimed"})
	case errors.Is(err, progression.ErrNoTickets),
		errors.Is(err, progression.ErrNoTaps),
		errors.Is(err, progression.ErrInvalidTapCount),
		errors.Is(err, progression.ErrTapLevelNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserBlocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "user is blocked"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, catalog.ErrNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reward tables not loaded"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
