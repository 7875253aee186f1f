package progression

import "testing"

func TestRankDense(t *testing.T) {
	entries := []RankEntry{
		{UserID: 1, SeasonXP: 100, SeasonGold: 10},
		{UserID: 2, SeasonXP: 300, SeasonGold: 10},
		{UserID: 3, SeasonXP: 300, SeasonGold: 10},
		{UserID: 4, SeasonXP: 300, SeasonGold: 5},
		{UserID: 5, SeasonXP: 200, SeasonGold: 99},
	}

	ranked := Rank(entries)

	wantOrder := []int64{2, 3, 4, 5, 1}
	wantRanks := []int{1, 1, 2, 3, 4}
	for i := range ranked {
		if ranked[i].UserID != wantOrder[i] {
			t.Fatalf("position %d user = %d; want %d", i, ranked[i].UserID, wantOrder[i])
		}
		if ranked[i].Rank != wantRanks[i] {
			t.Fatalf("user %d rank = %d; want %d", ranked[i].UserID, ranked[i].Rank, wantRanks[i])
		}
	}
}

func TestRankTieBrokenByGold(t *testing.T) {
	ranked := Rank([]RankEntry{
		{UserID: 1, SeasonXP: 100, SeasonGold: 1},
		{UserID: 2, SeasonXP: 100, SeasonGold: 9},
	})
	if ranked[0].UserID != 2 || ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Fatalf("gold must break the tie: %+v", ranked)
	}
}

func TestTopAppendsRequester(t *testing.T) {
	var entries []RankEntry
	for i := 1; i <= 20; i++ {
		entries = append(entries, RankEntry{UserID: int64(i), SeasonXP: int64(1000 - i)})
	}
	ranked := Rank(entries)

	top := Top(ranked, TopSize, 18)
	if len(top) != TopSize+1 {
		t.Fatalf("len = %d; want %d", len(top), TopSize+1)
	}
	self := top[len(top)-1]
	if self.UserID != 18 || self.Rank != 18 {
		t.Fatalf("appended row = %+v; want user 18 at rank 18", self)
	}

	// requester already inside the slice: no extra row
	top = Top(ranked, TopSize, 3)
	if len(top) != TopSize {
		t.Fatalf("len = %d; want %d", len(top), TopSize)
	}

	// anonymous read
	top = Top(ranked, TopSize, 0)
	if len(top) != TopSize {
		t.Fatalf("len = %d; want %d", len(top), TopSize)
	}
}

func TestTopSmallerThanWindow(t *testing.T) {
	ranked := Rank([]RankEntry{{UserID: 1, SeasonXP: 5}})
	top := Top(ranked, TopSize, 1)
	if len(top) != 1 || top[0].Rank != 1 {
		t.Fatalf("got %+v; want single rank-1 row", top)
	}
}
