package db

import (
	"github.com/solarops/dispatch/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Task{},
		&domain.Team{},
		&domain.Plant{},
		&domain.User{},
		&domain.TimelineEvent{},
		&domain.SystemSetting{},
	)
	if err != nil {
		return err
	}

	return createCustomIndexes(db)
}

func createCustomIndexes(db *gorm.DB) error {
	// Timeline lookups by resource
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_timeline_events_resource
		ON timeline_events (resource_type, resource_id)
	`).Error; err != nil {
		return err
	}

	// Plant search scans name and location
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_plants_name
		ON plants (name)
	`).Error; err != nil {
		return err
	}

	return nil
}
