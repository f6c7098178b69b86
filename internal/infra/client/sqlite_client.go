package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sqliteDriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewGORMSQLite opens the embedded database used in local mode. The parent
// directory is created on demand so a fresh checkout runs without setup.
func NewGORMSQLite(path string) (*gorm.DB, *sql.DB, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	gormDB, err := gorm.Open(sqliteDriver.Open(path), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("open gorm sqlite: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql db: %w", err)
	}

	// sqlite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent requests.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return gormDB, sqlDB, nil
}
