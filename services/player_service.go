// services/player_service.go
package services

import (
	"context"

	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/persistence"
)

type PlayerService struct {
	matchmaking *Matchmaking
	archive     persistence.Archive
}

func NewPlayerService(m *Matchmaking, archive persistence.Archive) *PlayerService {
	return &PlayerService{matchmaking: m, archive: archive}
}

// Stats 获取玩家信息和统计. Wins come from the live record; game counts come
// from the archive.
func (s *PlayerService) Stats(ctx context.Context, playerID string) (models.PlayerStats, error) {
	player, err := s.matchmaking.Player(ctx, playerID)
	if err != nil {
		return models.PlayerStats{}, err
	}

	stats, err := s.archive.PlayerStats(ctx, playerID)
	if err != nil {
		return models.PlayerStats{}, err
	}
	stats.PlayerID = player.ID
	stats.Name = player.Name
	stats.Wins = player.Wins
	return stats, nil
}

// Archive records a concluded game.
func (s *PlayerService) Archive(ctx context.Context, record models.GameRecord) error {
	return s.archive.SaveGameRecord(ctx, record)
}
