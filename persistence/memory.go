package persistence

import (
	"context"
	"sync"

	"github.com/wfunc/battleship/models"
)

// MemoryArchive keeps records for the life of the process. It backs the
// server when archive.enabled is false.
type MemoryArchive struct {
	mutex   sync.RWMutex
	records []models.GameRecord
	seen    map[string]struct{}
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{seen: make(map[string]struct{})}
}

func (a *MemoryArchive) SaveGameRecord(_ context.Context, record models.GameRecord) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if _, ok := a.seen[record.GameID]; ok {
		return ErrDuplicateRecord
	}
	a.seen[record.GameID] = struct{}{}
	a.records = append(a.records, record)
	return nil
}

func (a *MemoryArchive) PlayerStats(_ context.Context, playerID string) (models.PlayerStats, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	stats := models.PlayerStats{PlayerID: playerID}
	for _, r := range a.records {
		switch playerID {
		case r.WinnerID:
			stats.TotalGames++
		case r.LoserID:
			stats.TotalGames++
			stats.Losses++
			if r.Reason == models.ReasonForfeit {
				stats.Forfeits++
			}
		}
	}
	return stats, nil
}

// Records returns a copy of everything archived so far.
func (a *MemoryArchive) Records() []models.GameRecord {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return append([]models.GameRecord(nil), a.records...)
}

func (a *MemoryArchive) Close() error { return nil }
