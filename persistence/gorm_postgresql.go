// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/battleship/config"
	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/models"
)

// GormArchive 使用GORM的PostgreSQL归档实现
type GormArchive struct {
	db *gorm.DB
}

// zapWriter routes gorm's log lines into the global zap logger.
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...any) {
	logger.Log.Debugf(format, args...)
}

// GormConfig logs through zap and translates driver errors, so unique
// violations surface as gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	// 配置GORM日志
	gormLogger := gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             time.Second, // 慢SQL阈值
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
	return &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}
}

// NewGormArchive 创建GORM PostgreSQL数据库连接
func NewGormArchive(cfg config.PostgresConfig) (*GormArchive, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewGormArchiveWithDB(db)
}

// NewGormArchiveWithDB wraps an open connection and migrates the schema.
func NewGormArchiveWithDB(db *gorm.DB) (*GormArchive, error) {
	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}); err != nil {
		return nil, err
	}
	return &GormArchive{db: db}, nil
}

// SaveGameRecord 保存对局记录
func (a *GormArchive) SaveGameRecord(ctx context.Context, record models.GameRecord) error {
	row := models.GormGameRecord{
		GameID:     record.GameID,
		RoomID:     record.RoomID,
		WinnerID:   record.WinnerID,
		LoserID:    record.LoserID,
		Reason:     string(record.Reason),
		FinishedAt: record.FinishedAt,
	}
	err := a.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRecord
	}
	return err
}

// PlayerStats 玩家对局统计. Name and Wins come from the live store and are
// left for the caller to fill.
func (a *GormArchive) PlayerStats(ctx context.Context, playerID string) (models.PlayerStats, error) {
	stats := models.PlayerStats{PlayerID: playerID}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.GormGameRecord{})
		if err := q.Where("winner_id = ? OR loser_id = ?", playerID, playerID).
			Count(&stats.TotalGames).Error; err != nil {
			return err
		}

		q = tx.Model(&models.GormGameRecord{})
		if err := q.Where("loser_id = ?", playerID).Count(&stats.Losses).Error; err != nil {
			return err
		}

		q = tx.Model(&models.GormGameRecord{})
		return q.Where("loser_id = ? AND reason = ?", playerID, string(models.ReasonForfeit)).
			Count(&stats.Forfeits).Error
	})
	return stats, err
}

// Close 关闭数据库连接
func (a *GormArchive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
