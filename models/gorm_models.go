// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// FinishReason explains how a game was decided.
type FinishReason string

const (
	ReasonFleetDestroyed FinishReason = "fleetDestroyed"
	ReasonForfeit        FinishReason = "forfeit"
)

// GameRecord is an archived concluded game.
type GameRecord struct {
	GameID     string       `json:"game_id"`
	RoomID     string       `json:"room_id"`
	WinnerID   string       `json:"winner_id"`
	LoserID    string       `json:"loser_id"`
	Reason     FinishReason `json:"reason"`
	FinishedAt time.Time    `json:"finished_at"`
}

// GormGameRecord 对局记录模型
type GormGameRecord struct {
	gorm.Model
	GameID     string `gorm:"uniqueIndex;not null"`
	RoomID     string `gorm:"index;not null"`
	WinnerID   string `gorm:"index;not null"`
	LoserID    string `gorm:"index;not null"`
	Reason     string `gorm:"not null"`
	FinishedAt time.Time
}

func (GormGameRecord) TableName() string { return "game_records" }

// PlayerStats 玩家统计信息
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Wins       int    `json:"wins"`
	TotalGames int64  `json:"total_games"`
	Losses     int64  `json:"losses"`
	Forfeits   int64  `json:"forfeits"`
}
