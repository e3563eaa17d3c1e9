package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/wfunc/battleship/models"
)

type RedisStoreSuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	client *redis.Client
	store  *Store
	ctx    context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.ctx = context.Background()

	st, err := NewRedisStoreWithClient(s.ctx, s.client, "test")
	s.Require().NoError(err)
	s.store = st
}

func (s *RedisStoreSuite) TearDownTest() {
	_ = s.store.Close()
}

func (s *RedisStoreSuite) TestPutAndGetPlayer() {
	p := &models.Player{ID: "p1", Name: "Alice", Password: "pw1", Wins: 2}
	s.Require().NoError(s.store.Players.Put(s.ctx, p))

	got, err := s.store.Players.Get(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(*p, *got)
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Games.Get(s.ctx, "nope")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RedisStoreSuite) TestGameRoundTripKeepsShips() {
	g := &models.Game{
		ID:     "g1",
		RoomID: "r1",
		Players: [2]models.GamePlayer{
			{PlayerID: "p1", InGameID: "a", ShipsRemaining: 1, Ships: []models.Ship{
				{Position: models.Cell{X: 1, Y: 2}, Direction: models.Vertical, Length: 2, Hits: []models.Cell{{X: 1, Y: 3}}},
			}},
			{PlayerID: "p2", InGameID: "b"},
		},
		CurrentTurn: "a",
		Phase:       models.PhaseInProgress,
	}
	s.Require().NoError(s.store.Games.Put(s.ctx, g))

	got, err := s.store.Games.Get(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal(models.Vertical, got.Players[0].Ships[0].Direction)
	s.True(got.Players[0].Ships[0].IsHit(models.Cell{X: 1, Y: 3}))
	s.False(got.Players[1].Ready())
}

func (s *RedisStoreSuite) TestFindAllAndDelete() {
	for _, id := range []string{"r1", "r2", "r3"} {
		s.Require().NoError(s.store.Rooms.Put(s.ctx, &models.Room{ID: id}))
	}
	s.Require().NoError(s.store.Rooms.Put(s.ctx, &models.Room{
		ID:      "r2",
		Members: []models.RoomMember{{PlayerID: "p1", Name: "Alice"}},
	}))

	all, err := s.store.Rooms.FindAll(s.ctx, All[*models.Room])
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("r1", all[0].ID)
	s.Equal("r2", all[1].ID)

	open, err := s.store.Rooms.FindAll(s.ctx, func(r *models.Room) bool { return len(r.Members) == 1 })
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal("r2", open[0].ID)

	s.Require().NoError(s.store.Rooms.Delete(s.ctx, "r2"))
	n, err := s.store.Rooms.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *RedisStoreSuite) TestNewStoreFlushesPrefix() {
	s.Require().NoError(s.store.Players.Put(s.ctx, &models.Player{ID: "p1"}))
	s.Require().NoError(s.client.Set(s.ctx, "other:key", "keep", 0).Err())

	fresh, err := NewRedisStoreWithClient(s.ctx, s.client, "test")
	s.Require().NoError(err)

	_, err = fresh.Players.Get(s.ctx, "p1")
	s.ErrorIs(err, ErrNotFound)
	s.True(s.mini.Exists("other:key"))
}
