package database

import (
	"fmt"
	"strings"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the SQLite database at dbPath. File databases run in WAL mode
// with a busy timeout so the scheduler and API can share the file.
func Connect(dbPath string) (*gorm.DB, error) {
	dsn := dbPath
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Vendor{},
		&models.RiskProfile{},
		&models.RiskAssessment{},
		&models.Document{},
		&models.RiskFinding{},
		&models.RemediationAction{},
		&models.Report{},
		&models.Notification{},
		&models.NotificationProvider{},
		&models.AuditTrail{},
		&models.AgentActivityLog{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
