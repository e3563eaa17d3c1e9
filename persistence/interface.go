// persistence/interface.go
package persistence

import (
	"context"
	"errors"

	"github.com/wfunc/battleship/models"
)

// Archive 对局归档接口. Records are written after a game concludes and are
// never read back into live play.
type Archive interface {
	SaveGameRecord(ctx context.Context, record models.GameRecord) error
	PlayerStats(ctx context.Context, playerID string) (models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrDuplicateRecord = errors.New("game already archived")
)
