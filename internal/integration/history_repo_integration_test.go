package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"catacomb_backend/internal/domain"
	"catacomb_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".sql" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func createUser(t *testing.T, db *pgxpool.Pool, tgID int64) *domain.User {
	t.Helper()
	ur := repository.NewUserRepository(db)
	u, err := ur.GetByTgID(context.Background(), tgID)
	if err == nil {
		return u
	}
	u = &domain.User{TgID: tgID, Username: "it_user", FirstName: "IT", ReferralCode: repository.GenerateReferralCode()}
	if err := ur.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestHistoryRepository_ChestsTicketsTaps(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer db.Close()

	applyMigrations(t, db)

	ctx := context.Background()
	u := createUser(t, db, time.Now().UnixNano())
	repo := repository.NewHistoryRepository(db)

	now := time.Now().UTC().Truncate(time.Second)

	// chest history
	tx, err := db.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.AddChestOpenWithTx(ctx, tx, u.ID, domain.ChestOpen{TimeOpened: now, XP: 50, Gold: 125}); err != nil {
		t.Fatalf("add chest open: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	last, err := repo.LastChestOpen(ctx, u.ID)
	if err != nil {
		t.Fatalf("last chest open: %v", err)
	}
	if last == nil || last.Gold != 125 {
		t.Fatalf("expected last chest open with gold=125, got %+v", last)
	}

	tx, err = db.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	gate, err := repo.ChestGateHistory(ctx, tx, u.ID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("gate history: %v", err)
	}
	tx.Rollback(ctx)
	if len(gate) != 1 {
		t.Fatalf("expected 1 gate entry, got %d", len(gate))
	}

	// ticket claims
	tx, err = db.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	claim := domain.TicketClaim{ClaimedAt: now, NumberOfTickets: 5, DueTo: domain.TicketSourceDaily, ConstructionDays: 2}
	if err := repo.AddTicketClaimWithTx(ctx, tx, u.ID, claim); err != nil {
		t.Fatalf("add ticket claim: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.LastTicketClaim(ctx, u.ID, domain.TicketSourceDaily)
	if err != nil {
		t.Fatalf("last ticket claim: %v", err)
	}
	if got == nil || got.ConstructionDays != 2 || got.NumberOfTickets != 5 {
		t.Fatalf("unexpected claim %+v", got)
	}
	if ad, _ := repo.LastTicketClaim(ctx, u.ID, domain.TicketSourceAd); ad != nil {
		t.Fatalf("expected no ad claim, got %+v", ad)
	}

	// tap day upsert accumulates
	day := now.Truncate(24 * time.Hour)
	for i := 0; i < 2; i++ {
		tx, err = db.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := repo.AddTapEarningsWithTx(ctx, tx, u.ID, day, 10, 20); err != nil {
			t.Fatalf("add tap earnings: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	days, err := repo.TapDays(ctx, u.ID)
	if err != nil {
		t.Fatalf("tap days: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 tap day, got %d", len(days))
	}
	if days[0].XP != 20 || days[0].Gold != 40 {
		t.Fatalf("expected accumulated 20/40, got %d/%d", days[0].XP, days[0].Gold)
	}
}

func TestHistoryRepository_CompactFoldsSummaries(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer db.Close()

	applyMigrations(t, db)

	ctx := context.Background()
	u := createUser(t, db, time.Now().UnixNano())
	repo := repository.NewHistoryRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	cutoff := now.Add(-48 * time.Hour)

	addChest := func(at time.Time, xp, gold int64) {
		tx, err := db.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := repo.AddChestOpenWithTx(ctx, tx, u.ID, domain.ChestOpen{TimeOpened: at, XP: xp, Gold: gold}); err != nil {
			t.Fatalf("add chest open: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	addClaim := func(c domain.TicketClaim) {
		tx, err := db.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := repo.AddTicketClaimWithTx(ctx, tx, u.ID, c); err != nil {
			t.Fatalf("add ticket claim: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	addTap := func(day time.Time, xp, gold int64) {
		tx, err := db.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := repo.AddTapEarningsWithTx(ctx, tx, u.ID, day, xp, gold); err != nil {
			t.Fatalf("add tap earnings: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	addChest(now.Add(-96*time.Hour), 50, 100)
	addChest(now.Add(-80*time.Hour), 50, 125)
	addChest(now.Add(-72*time.Hour), 50, 150)
	addChest(now, 50, 75)

	addClaim(domain.TicketClaim{ClaimedAt: now.Add(-120 * time.Hour), NumberOfTickets: 5, DueTo: domain.TicketSourceDaily, Resetted: true, ConstructionDays: 1})
	addClaim(domain.TicketClaim{ClaimedAt: now.Add(-96 * time.Hour), NumberOfTickets: 5, DueTo: domain.TicketSourceDaily, ConstructionDays: 2})
	addClaim(domain.TicketClaim{ClaimedAt: now.Add(-72 * time.Hour), NumberOfTickets: 10, DueTo: domain.TicketSourceDaily, ConstructionDays: 3})
	addClaim(domain.TicketClaim{ClaimedAt: now.Add(-80 * time.Hour), NumberOfTickets: 10, DueTo: domain.TicketSourceAd})
	addClaim(domain.TicketClaim{ClaimedAt: now.Add(-60 * time.Hour), NumberOfTickets: 10, DueTo: domain.TicketSourceAd})

	addTap(now.Add(-96*time.Hour).Truncate(24*time.Hour), 10, 20)
	addTap(now.Add(-72*time.Hour).Truncate(24*time.Hour), 30, 40)
	addTap(now.Truncate(24*time.Hour), 5, 5)

	folded, err := repo.Compact(ctx, cutoff)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if folded != 6 {
		t.Fatalf("folded = %d; want 6 (2 chests, 3 claims, 1 tap day)", folded)
	}

	chests, err := repo.ChestOpens(ctx, u.ID)
	if err != nil {
		t.Fatalf("chest opens: %v", err)
	}
	if len(chests) != 2 {
		t.Fatalf("expected 2 chest rows after compaction, got %d", len(chests))
	}
	if !chests[0].Summary || chests[0].XP != 150 || chests[0].Gold != 375 {
		t.Fatalf("unexpected chest summary row %+v", chests[0])
	}
	if !chests[0].TimeOpened.Equal(now.Add(-72 * time.Hour)) {
		t.Fatalf("summary row should keep the newest folded timestamp, got %v", chests[0].TimeOpened)
	}
	if chests[1].Summary || chests[1].Gold != 75 {
		t.Fatalf("recent chest row must stay untouched, got %+v", chests[1])
	}

	// season totals recomputed from the folded history match the raw ones
	var totalXP, totalGold int64
	for _, c := range chests {
		totalXP += c.XP
		totalGold += c.Gold
	}
	if totalXP != 200 || totalGold != 450 {
		t.Fatalf("chest totals after compaction = %d/%d; want 200/450", totalXP, totalGold)
	}

	lastDaily, err := repo.LastTicketClaim(ctx, u.ID, domain.TicketSourceDaily)
	if err != nil {
		t.Fatalf("last daily claim: %v", err)
	}
	if lastDaily == nil || !lastDaily.Summary || lastDaily.NumberOfTickets != 20 || lastDaily.ConstructionDays != 3 {
		t.Fatalf("unexpected daily summary claim %+v", lastDaily)
	}
	lastAd, err := repo.LastTicketClaim(ctx, u.ID, domain.TicketSourceAd)
	if err != nil {
		t.Fatalf("last ad claim: %v", err)
	}
	if lastAd == nil || !lastAd.Summary || lastAd.NumberOfTickets != 20 {
		t.Fatalf("unexpected ad summary claim %+v", lastAd)
	}

	days, err := repo.TapDays(ctx, u.ID)
	if err != nil {
		t.Fatalf("tap days: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 tap day rows after compaction, got %d", len(days))
	}
	if !days[0].Summary || days[0].XP != 40 || days[0].Gold != 60 {
		t.Fatalf("unexpected tap summary row %+v", days[0])
	}
	if days[1].Summary || days[1].XP != 5 {
		t.Fatalf("recent tap day must stay untouched, got %+v", days[1])
	}

	// a second run with the same cutoff has nothing left to fold
	again, err := repo.Compact(ctx, cutoff)
	if err != nil {
		t.Fatalf("compact again: %v", err)
	}
	if again != 0 {
		t.Fatalf("second compaction folded %d rows; want 0", again)
	}
}
