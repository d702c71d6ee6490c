package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"card-collect-system/models"
)

// Board fixture: two seasons, three events, two collectors.
//
//	u1: e1(s1) @10:00, e2(s1) @13:00   (mirrored profile "Alice")
//	u2: e1(s1) @11:00, e3(s2) @12:00   (not mirrored yet)
func seedBoard(t *testing.T, svc *RankingService) (s1, s2 models.Season) {
	t.Helper()
	db := svc.DB

	s1 = seedSeason(t, db, "Temporada Outubro", "temporada-outubro")
	s2 = models.Season{Name: "Temporada Novembro", Slug: "temporada-novembro"}
	if err := db.Create(&s2).Error; err != nil {
		t.Fatalf("seeding second season: %v", err)
	}

	day := time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)
	deadline := day.Add(30 * 24 * time.Hour)
	e1 := seedEvent(t, db, s1.ID, "AAA-111", deadline)
	e2 := seedEvent(t, db, s1.ID, "BBB-222", deadline)
	e3 := seedEvent(t, db, s2.ID, "CCC-333", deadline)

	seedCard(t, db, "u1", e1.ID, models.RarityComum, day.Add(10*time.Hour))
	seedCard(t, db, "u1", e2.ID, models.RarityHolografica, day.Add(13*time.Hour))
	seedCard(t, db, "u2", e1.ID, models.RarityComum, day.Add(11*time.Hour))
	seedCard(t, db, "u2", e3.ID, models.RarityReliquia, day.Add(12*time.Hour))

	seedCollector(t, db, "u1", "Alice", "alice@example.com")
	return s1, s2
}

func TestComputeRanking_SeasonScope(t *testing.T) {
	svc := NewRankingService(newTestDB(t))
	s1, _ := seedBoard(t, svc)

	rows, err := svc.ComputeRanking(s1.ID)
	if err != nil {
		t.Fatalf("ComputeRanking failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("season scope rows: got=%d want=2", len(rows))
	}
	if rows[0].UserID != "u1" || rows[0].CardCount != 2 {
		t.Fatalf("first row: got=(%s, %d) want=(u1, 2)", rows[0].UserID, rows[0].CardCount)
	}
	if rows[1].UserID != "u2" || rows[1].CardCount != 1 {
		t.Fatalf("second row: got=(%s, %d) want=(u2, 1)", rows[1].UserID, rows[1].CardCount)
	}
	if rows[0].DisplayName != "Alice" {
		t.Fatalf("mirrored display name: got=%q want=%q", rows[0].DisplayName, "Alice")
	}
	// u2 has no mirror row yet; it still ranks, with an empty name.
	if rows[1].DisplayName != "" {
		t.Fatalf("unsynced display name: got=%q want empty", rows[1].DisplayName)
	}
}

func TestComputeRanking_AllSeasonsScopeAndTieBreak(t *testing.T) {
	svc := NewRankingService(newTestDB(t))
	seedBoard(t, svc)

	rows, err := svc.ComputeRanking("")
	if err != nil {
		t.Fatalf("ComputeRanking failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("all-time rows: got=%d want=2", len(rows))
	}
	// Both hold 2 cards; u2 reached that count at 12:00, u1 only at
	// 13:00, so u2 ranks first.
	if rows[0].UserID != "u2" || rows[0].CardCount != 2 {
		t.Fatalf("first row: got=(%s, %d) want=(u2, 2)", rows[0].UserID, rows[0].CardCount)
	}
	if rows[1].UserID != "u1" || rows[1].CardCount != 2 {
		t.Fatalf("second row: got=(%s, %d) want=(u1, 2)", rows[1].UserID, rows[1].CardCount)
	}
}

func TestComputeRanking_TieBreakFallsBackToUserID(t *testing.T) {
	db := newTestDB(t)
	svc := NewRankingService(db)

	season := seedSeason(t, db, "Temporada Outubro", "temporada-outubro")
	moment := time.Date(2025, 10, 12, 19, 0, 0, 0, time.UTC)
	event := seedEvent(t, db, season.ID, "AAA-111", moment.Add(time.Hour))
	other := seedEvent(t, db, season.ID, "BBB-222", moment.Add(time.Hour))

	// Same count, same instant: user id decides, ascending.
	seedCard(t, db, "user-b", event.ID, models.RarityComum, moment)
	seedCard(t, db, "user-a", other.ID, models.RarityComum, moment)

	rows, err := svc.ComputeRanking("")
	if err != nil {
		t.Fatalf("ComputeRanking failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got=%d want=2", len(rows))
	}
	if rows[0].UserID != "user-a" || rows[1].UserID != "user-b" {
		t.Fatalf("full tie order: got=[%s, %s] want=[user-a, user-b]", rows[0].UserID, rows[1].UserID)
	}
}

func TestComputeRanking_ExcludesZeroCardUsers(t *testing.T) {
	db := newTestDB(t)
	svc := NewRankingService(db)
	seedBoard(t, svc)
	seedCollector(t, db, "u3", "Watcher", "watcher@example.com")

	rows, err := svc.ComputeRanking("")
	if err != nil {
		t.Fatalf("ComputeRanking failed: %v", err)
	}
	for _, row := range rows {
		if row.UserID == "u3" {
			t.Fatal("zero-card user must not appear on the board")
		}
	}
}

func TestComputeRanking_NeverLeaksPrivateProfileFields(t *testing.T) {
	svc := NewRankingService(newTestDB(t))
	seedBoard(t, svc)

	rows, err := svc.ComputeRanking("")
	if err != nil {
		t.Fatalf("ComputeRanking failed: %v", err)
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshaling rows: %v", err)
	}
	serialized := string(payload)
	if strings.Contains(serialized, "email") {
		t.Fatalf("ranking payload exposes an email field: %s", serialized)
	}
	if strings.Contains(serialized, "alice@example.com") {
		t.Fatalf("ranking payload exposes an email value: %s", serialized)
	}
	if !strings.Contains(serialized, "Alice") {
		t.Fatalf("ranking payload should carry the public display name: %s", serialized)
	}
}

func TestComputeRanking_EmptyBoard(t *testing.T) {
	svc := NewRankingService(newTestDB(t))

	rows, err := svc.ComputeRanking("")
	if err != nil {
		t.Fatalf("ComputeRanking failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("empty board: got=%#v want empty non-nil slice", rows)
	}
}

func TestComputeRanking_StoreUnavailableIsRetrievable(t *testing.T) {
	db := newTestDB(t)
	svc := NewRankingService(db)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping db: %v", err)
	}
	_ = sqlDB.Close()

	_, err = svc.ComputeRanking("")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("store failure must wrap ErrStoreUnavailable: got=%v", err)
	}
}
