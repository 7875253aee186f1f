package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/repository"
	"catacomb_backend/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestReferralCascade_XPOnlyReward(t *testing.T) {
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
	seedCatalogs(t, db)

	ctx := context.Background()
	catalogs := catalog.NewStore(repository.NewCatalogRepository(db))
	if err := catalogs.Refresh(ctx); err != nil {
		t.Fatalf("catalog refresh: %v", err)
	}

	users := repository.NewUserRepository(db)
	referrals := repository.NewReferralRepository(db)
	events := repository.NewRewardEventRepository(db)
	svc := service.NewReferralService(db, users, referrals, events, catalogs)

	base := time.Now().UnixNano()
	referrer := createUser(t, db, base)
	referred := createUser(t, db, base+1)
	referred.ReferredBy = &referrer.ID

	snap, err := catalogs.Current()
	if err != nil {
		t.Fatalf("catalog snapshot: %v", err)
	}

	// a tap batch where the whole unit went to XP: no gold in the reward,
	// but the referred user holds gold from before
	svc.Cascade(ctx, referred, 0, 10)

	after, err := users.GetByID(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("reload referrer: %v", err)
	}
	if got := after.XP - referrer.XP; got != snap.Settings.ReferralXP {
		t.Fatalf("referrer XP delta = %d; want %d", got, snap.Settings.ReferralXP)
	}
	if after.Gold != referrer.Gold {
		t.Fatalf("referrer gold changed on a zero-gold reward: %d -> %d", referrer.Gold, after.Gold)
	}

	valid, err := referrals.ValidReferrals(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("valid referrals: %v", err)
	}
	found := false
	for _, v := range valid {
		if v.ReferredID == referred.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("referred user %d not recorded as valid referral", referred.ID)
	}
}
