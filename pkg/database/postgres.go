package database

import (
	"log"

	"github.com/tanawat-p/openhouse-queue/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Property{}, &models.OpenHouseEvent{}, &models.WaitlistEntry{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: one live entry (waiting/touring) per identity per
	// event. Terminal entries do not block a later re-join.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_entry_live_identity
		ON waitlist_entries (event_id, identity_key)
		WHERE status IN ('waiting', 'touring')
	`)

	return db
}
