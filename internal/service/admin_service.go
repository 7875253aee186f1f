package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminService provides admin statistics and operations
type AdminService struct {
	db       *pgxpool.Pool
	catalogs *catalog.Store
	seasons  *SeasonService
}

// NewAdminService creates a new admin service
func NewAdminService(db *pgxpool.Pool, catalogs *catalog.Store, seasons *SeasonService) *AdminService {
	return &AdminService{db: db, catalogs: catalogs, seasons: seasons}
}

// Stats represents platform statistics
type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	BlockedUsers     int64 `json:"blocked_users"`
	ActiveUsersToday int64 `json:"active_users_today"`
	ActiveUsersWeek  int64 `json:"active_users_week"`
	ChestsToday      int64 `json:"chests_today"`
	ChestsTotal      int64 `json:"chests_total"`
	TotalXP          int64 `json:"total_xp"`
	TotalGold        int64 `json:"total_gold"`
	TicketsHeld      int64 `json:"tickets_held"`
	SeasonXP         int64 `json:"season_xp"`
	SeasonGold       int64 `json:"season_gold"`
	ValidReferrals   int64 `json:"valid_referrals"`
}

// GetStats returns platform statistics
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	today := time.Now().Truncate(24 * time.Hour)
	weekAgo := today.Add(-7 * 24 * time.Hour)

	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)
	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE blocked`).Scan(&stats.BlockedUsers)

	// active = earned at least one reward
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM reward_events WHERE created_at >= $1
	`, today).Scan(&stats.ActiveUsersToday)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM reward_events WHERE created_at >= $1
	`, weekAgo).Scan(&stats.ActiveUsersWeek)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM chest_opens WHERE time_opened >= $1
	`, today).Scan(&stats.ChestsToday)

	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM chest_opens`).Scan(&stats.ChestsTotal)

	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(xp), 0) FROM users`).Scan(&stats.TotalXP)
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(gold), 0) FROM users`).Scan(&stats.TotalGold)
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(tickets_remaining), 0) FROM users`).Scan(&stats.TicketsHeld)
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(current_season_xp), 0) FROM users`).Scan(&stats.SeasonXP)
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(current_season_gold), 0) FROM users`).Scan(&stats.SeasonGold)
	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM valid_referrals`).Scan(&stats.ValidReferrals)

	return stats, nil
}

// UserInfo represents user information for admin
type UserInfo struct {
	ID          int64     `json:"id"`
	TgID        int64     `json:"tg_id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	XP          int64     `json:"xp"`
	Gold        int64     `json:"gold"`
	Tickets     int64     `json:"tickets"`
	SeasonXP    int64     `json:"season_xp"`
	SeasonGold  int64     `json:"season_gold"`
	Blocked     bool      `json:"blocked"`
	CreatedAt   time.Time `json:"created_at"`
	ChestsTotal int64     `json:"chests_total"`
}

// GetUser returns user info by internal ID, telegram ID or username
func (s *AdminService) GetUser(ctx context.Context, identifier string) (*UserInfo, error) {
	identifier = strings.TrimPrefix(identifier, "@")

	var user UserInfo
	err := s.db.QueryRow(ctx, `
		SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''),
		       xp, gold, tickets_remaining, current_season_xp, current_season_gold, blocked, created_at
		FROM users
		WHERE id::text = $1 OR tg_id::text = $1 OR LOWER(username) = LOWER($1)
	`, identifier).Scan(&user.ID, &user.TgID, &user.Username, &user.FirstName,
		&user.XP, &user.Gold, &user.Tickets, &user.SeasonXP, &user.SeasonGold, &user.Blocked, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM chest_opens WHERE user_id = $1`, user.ID).Scan(&user.ChestsTotal)

	return &user, nil
}

// GetUserByTgID returns user info by telegram ID
func (s *AdminService) GetUserByTgID(ctx context.Context, tgID int64) (*UserInfo, error) {
	return s.GetUser(ctx, strconv.FormatInt(tgID, 10))
}

// ResolveUserIdentifier resolves @username or tg_id to internal user ID
func (s *AdminService) ResolveUserIdentifier(ctx context.Context, identifier string) (int64, error) {
	identifier = strings.TrimPrefix(identifier, "@")

	var userID int64

	if tgID, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		err = s.db.QueryRow(ctx, `SELECT id FROM users WHERE tg_id = $1`, tgID).Scan(&userID)
		if err == nil {
			return userID, nil
		}
	}

	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE LOWER(username) = LOWER($1)`, identifier).Scan(&userID)
	return userID, err
}

// Grant credits XP and gold to a user outside the normal reward flow,
// keeping the season mirror and the audit trail consistent.
func (s *AdminService) Grant(ctx context.Context, userID, xp, gold int64) (int64, int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	var newXP, newGold int64
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET xp = xp + $1, gold = gold + $2,
		    current_season_xp = current_season_xp + $1,
		    current_season_gold = current_season_gold + $2
		WHERE id = $3
		RETURNING xp, gold
	`, xp, gold, userID).Scan(&newXP, &newGold)
	if err != nil {
		return 0, 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reward_events (id, user_id, kind, xp, gold)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), userID, domain.RewardAdminGrant, xp, gold)
	if err != nil {
		return 0, 0, err
	}

	return newXP, newGold, tx.Commit(ctx)
}

// BlockUser blocks a user from reward operations
func (s *AdminService) BlockUser(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET blocked = TRUE WHERE id = $1`, userID)
	return err
}

// UnblockUser lifts a block
func (s *AdminService) UnblockUser(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET blocked = FALSE WHERE id = $1`, userID)
	return err
}

// GetTopUsers returns top users by season XP
func (s *AdminService) GetTopUsers(ctx context.Context, limit int) ([]UserInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''),
		       xp, gold, tickets_remaining, current_season_xp, current_season_gold, blocked, created_at
		FROM users
		WHERE NOT blocked
		ORDER BY current_season_xp DESC, current_season_gold DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserInfo
	for rows.Next() {
		var u UserInfo
		if err := rows.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName,
			&u.XP, &u.Gold, &u.Tickets, &u.SeasonXP, &u.SeasonGold, &u.Blocked, &u.CreatedAt); err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// RewardRecord represents one reward event for admin views
type RewardRecord struct {
	Username  string    `json:"username"`
	Kind      string    `json:"kind"`
	XP        int64     `json:"xp"`
	Gold      int64     `json:"gold"`
	CreatedAt time.Time `json:"created_at"`
}

// GetRecentRewards returns the latest reward events across all users
func (s *AdminService) GetRecentRewards(ctx context.Context, limit int) ([]RewardRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT COALESCE(u.username, u.first_name, ''), e.kind, e.xp, e.gold, e.created_at
		FROM reward_events e
		JOIN users u ON u.id = e.user_id
		ORDER BY e.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RewardRecord
	for rows.Next() {
		var r RewardRecord
		if err := rows.Scan(&r.Username, &r.Kind, &r.XP, &r.Gold, &r.CreatedAt); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// ReferralStat represents referral statistics for a user
type ReferralStat struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Count     int    `json:"count"`
}

// GetReferralStats returns users with their valid referral counts
func (s *AdminService) GetReferralStats(ctx context.Context, limit int) ([]ReferralStat, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, COALESCE(u.username, ''), COALESCE(u.first_name, ''), COUNT(r.referred_id) as ref_count
		FROM users u
		LEFT JOIN valid_referrals r ON r.referrer_id = u.id
		GROUP BY u.id, u.username, u.first_name
		HAVING COUNT(r.referred_id) > 0
		ORDER BY ref_count DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ReferralStat
	for rows.Next() {
		var st ReferralStat
		if err := rows.Scan(&st.UserID, &st.Username, &st.FirstName, &st.Count); err != nil {
			continue
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// UserListItem represents a user in the users list
type UserListItem struct {
	ID        int64  `json:"id"`
	TgID      int64  `json:"tg_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	XP        int64  `json:"xp"`
	Gold      int64  `json:"gold"`
	Blocked   bool   `json:"blocked"`
}

// GetAllUsers returns all users with pagination
func (s *AdminService) GetAllUsers(ctx context.Context, limit, offset int) ([]UserListItem, int, error) {
	var total int
	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)

	rows, err := s.db.Query(ctx, `
		SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), xp, gold, blocked
		FROM users
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []UserListItem
	for rows.Next() {
		var u UserListItem
		if err := rows.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.XP, &u.Gold, &u.Blocked); err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, total, nil
}

// GetAllUserTgIDs returns telegram IDs for broadcast delivery
func (s *AdminService) GetAllUserTgIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT tg_id FROM users WHERE NOT blocked ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return ids, nil
}

// RefreshCatalog reloads the reward tables
func (s *AdminService) RefreshCatalog(ctx context.Context) error {
	return s.catalogs.Refresh(ctx)
}

// RecomputeSeason rebuilds one user's season totals from raw histories
func (s *AdminService) RecomputeSeason(ctx context.Context, userID int64) error {
	_, err := s.seasons.Recompute(ctx, userID)
	return err
}

// RecomputeAllSeasons rebuilds season totals for every user
func (s *AdminService) RecomputeAllSeasons(ctx context.Context) error {
	return s.seasons.RecomputeAll(ctx)
}

// CompactHistory folds history rows that predate the current season
// into summary rows
func (s *AdminService) CompactHistory(ctx context.Context) (int64, error) {
	return s.seasons.Compact(ctx)
}
