package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wfunc/battleship/models"
)

func newSQLiteArchive(t *testing.T) *GormArchive {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "archive.db")), GormConfig())
	require.NoError(t, err)

	a, err := NewGormArchiveWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestGormArchive_SaveAndStats(t *testing.T) {
	ctx := context.Background()
	a := newSQLiteArchive(t)

	records := []models.GameRecord{
		{GameID: "g1", RoomID: "r1", WinnerID: "alice", LoserID: "bob", Reason: models.ReasonFleetDestroyed, FinishedAt: time.Now()},
		{GameID: "g2", RoomID: "r2", WinnerID: "bob", LoserID: "alice", Reason: models.ReasonForfeit, FinishedAt: time.Now()},
		{GameID: "g3", RoomID: "r3", WinnerID: "alice", LoserID: "carol", Reason: models.ReasonForfeit, FinishedAt: time.Now()},
		{GameID: "g4", RoomID: "r4", WinnerID: "carol", LoserID: "alice", Reason: models.ReasonFleetDestroyed, FinishedAt: time.Now()},
	}
	for _, r := range records {
		require.NoError(t, a.SaveGameRecord(ctx, r))
	}

	stats, err := a.PlayerStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStats{PlayerID: "alice", TotalGames: 4, Losses: 2, Forfeits: 1}, stats)

	stats, err = a.PlayerStats(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStats{PlayerID: "carol", TotalGames: 2, Losses: 1, Forfeits: 1}, stats)

	stats, err = a.PlayerStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGames)
	assert.Zero(t, stats.Losses)
}

func TestGormArchive_Duplicate(t *testing.T) {
	ctx := context.Background()
	a := newSQLiteArchive(t)
	rec := models.GameRecord{GameID: "g1", WinnerID: "a", LoserID: "b", Reason: models.ReasonForfeit, FinishedAt: time.Now()}

	require.NoError(t, a.SaveGameRecord(ctx, rec))
	assert.ErrorIs(t, a.SaveGameRecord(ctx, rec), ErrDuplicateRecord)

	var n int64
	require.NoError(t, a.db.Model(&models.GormGameRecord{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	stats, err := a.PlayerStats(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Forfeits)
}
