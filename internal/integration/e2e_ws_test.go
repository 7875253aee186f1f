package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/config"
	httpserver "catacomb_backend/internal/http"
	"catacomb_backend/internal/repository"
	"catacomb_backend/internal/service"
	"catacomb_backend/internal/ws"
)

func seedCatalogs(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	stmts := []string{
		`INSERT INTO levels (level, xp_required, seconds_for_next_chest_opening, one_time_bonus_rewards)
		 VALUES (1, 0, 3600, 0), (2, 100, 3600, 50), (3, 500, 3600, 100)
		 ON CONFLICT (level) DO NOTHING`,
		`INSERT INTO tap_levels (tap_level, required_user_levels, xp_earning_per_tap, gold_earning_per_tap, tap_limit_per_ticket)
		 VALUES (1, '{1,2,3}', 1, 2, 100)
		 ON CONFLICT (tap_level) DO NOTHING`,
		`INSERT INTO seasons (number, starts_at, ends_at)
		 VALUES (1, NOW() - INTERVAL '1 day', NOW() + INTERVAL '30 days')
		 ON CONFLICT (number) DO UPDATE SET starts_at = EXCLUDED.starts_at, ends_at = EXCLUDED.ends_at`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestE2E_ChestOpenAndLeaderboardWS(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	dbp, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer dbp.Close()

	applyMigrations(t, dbp)
	seedCatalogs(t, dbp)

	ctx := context.Background()

	catalogs := catalog.NewStore(repository.NewCatalogRepository(dbp))
	if err := catalogs.Refresh(ctx); err != nil {
		t.Fatalf("catalog refresh: %v", err)
	}

	u := createUser(t, dbp, time.Now().UnixNano())

	service.InitJWT("test-secret")
	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	// start server with real routes
	gin.SetMode(gin.TestMode)
	r := gin.New()
	hub := ws.NewHub()
	cfg := &config.Config{
		BotToken:         "dummy-bot-token",
		BotUsername:      "TestBot",
		RewardRateLimit:  100,
		RewardRateWindow: 60,
	}
	h := httpserver.RegisterRoutes(r, dbp, catalogs, hub, cfg, "test")
	ts := httptest.NewServer(r)
	defer ts.Close()

	doJSON := func(method, path string) (int, map[string]any) {
		req, err := http.NewRequest(method, ts.URL+path, nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var obj map[string]any
		_ = json.Unmarshal(body, &obj)
		return resp.StatusCode, obj
	}

	// profile
	status, me := doJSON(http.MethodGet, "/api/v1/me")
	if status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%v)", status, me)
	}

	// fresh user opens a chest
	status, opened := doJSON(http.MethodPost, "/api/v1/chest/open")
	if status != http.StatusOK {
		t.Fatalf("chest open: expected 200, got %d (%v)", status, opened)
	}

	// second open within cooldown is refused
	status, _ = doJSON(http.MethodPost, "/api/v1/chest/open")
	if status != http.StatusTooManyRequests {
		t.Fatalf("chest open cooldown: expected 429, got %d", status)
	}

	// first ad claim grants, a repeat inside the 12h window conflicts
	status, _ = doJSON(http.MethodPost, "/api/v1/tickets/ad")
	if status != http.StatusOK {
		t.Fatalf("ad claim: expected 200, got %d", status)
	}
	status, adBody := doJSON(http.MethodPost, "/api/v1/tickets/ad")
	if status != http.StatusConflict {
		t.Fatalf("repeat ad claim: expected 409, got %d (%v)", status, adBody)
	}
	if _, ok := adBody["retry_in_seconds"]; !ok {
		t.Fatalf("repeat ad claim should carry retry_in_seconds, got %v", adBody)
	}

	// websocket client receives a leaderboard snapshot
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	entries, err := h.Seasons.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	hub.BroadcastLeaderboard(entries)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ws: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(msg, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if frame["type"] != "leaderboard" {
		t.Fatalf("expected leaderboard frame, got %v", frame["type"])
	}
}
