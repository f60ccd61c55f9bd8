package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect 连接 SQLite 数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return Open(cfg.Path, cfg.MaxIdleConns, cfg.MaxOpenConns)
}

// Open 打开指定路径的 SQLite 数据库
func Open(path string, maxIdle, maxOpen int) (*gorm.DB, error) {
	// 确保数据库目录存在(内存库除外)
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if maxIdle <= 0 {
		maxIdle = 2
	}
	if maxOpen <= 0 {
		maxOpen = 10
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// SQLite 同库并发写入依赖 busy timeout 串行化
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// MigrateApprovals 迁移审批库(预约请求 + 工作流记录)
func MigrateApprovals(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.ReservationRequestModel{},
		&model.WorkflowRecordModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate approvals database: %w", err)
	}
	return createApprovalIndexes(db)
}

// MigrateStorage 迁移已批准预约库
func MigrateStorage(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ApprovedReservationModel{}); err != nil {
		return fmt.Errorf("failed to migrate storage database: %w", err)
	}
	return createStorageIndexes(db)
}

// createApprovalIndexes 创建审批库索引
func createApprovalIndexes(db *gorm.DB) error {
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_requests_status_created ON reservation_requests(status, created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_requests_status_created: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_workflow_user_created ON workflow_records(user_id, created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_workflow_user_created: %w", err)
	}
	return nil
}

// createStorageIndexes 创建已批准预约库索引
func createStorageIndexes(db *gorm.DB) error {
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reservations_dates ON approved_reservations(start_date, end_date)").Error; err != nil {
		return fmt.Errorf("failed to create idx_reservations_dates: %w", err)
	}
	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
