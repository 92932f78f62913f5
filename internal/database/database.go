package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumeBuilder/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// InitDatabase 连接 PostgreSQL 并配置连接池。数据库容器可能晚于服务启动，
// 因此 ping 失败时按固定间隔重试 connectAttempts 次。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	for attempt := 1; ; attempt++ {
		err = sqlDB.Ping()
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			return nil, fmt.Errorf("ping database after %d attempts: %w", attempt, err)
		}
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", attempt),
			slog.String("host", cfg.Host),
			slog.Any("error", err),
		)
		time.Sleep(connectBackoff)
	}
}

// Migrate creates or updates the account and resume tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Resume{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
