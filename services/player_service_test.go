package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/persistence"
	"github.com/wfunc/battleship/store"
)

func TestPlayerService_Stats(t *testing.T) {
	ctx := context.Background()
	m := NewMatchmaking(store.NewMemoryStore())
	svc := NewPlayerService(m, persistence.NewMemoryArchive())

	alice, err := m.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	alice.Wins = 1
	require.NoError(t, m.store.Players.Put(ctx, alice))

	require.NoError(t, svc.Archive(ctx, models.GameRecord{
		GameID: "g1", WinnerID: alice.ID, LoserID: "bob", Reason: models.ReasonFleetDestroyed,
	}))
	require.NoError(t, svc.Archive(ctx, models.GameRecord{
		GameID: "g2", WinnerID: "bob", LoserID: alice.ID, Reason: models.ReasonForfeit,
	}))

	stats, err := svc.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStats{
		PlayerID: alice.ID, Name: "alice", Wins: 1, TotalGames: 2, Losses: 1, Forfeits: 1,
	}, stats)
}

func TestPlayerService_UnknownPlayer(t *testing.T) {
	svc := NewPlayerService(NewMatchmaking(store.NewMemoryStore()), persistence.NewMemoryArchive())
	_, err := svc.Stats(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
