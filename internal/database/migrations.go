package database

import (
	"gorm.io/gorm"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Team{},
		&models.Reminder{},
		&models.Invite{},
		&models.AuditLog{},
	); err != nil {
		return err
	}
	return ensureIndexes(db)
}

// ensureIndexes adds composite indexes the dispatcher and invite lookups rely on.
func ensureIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	if !migrator.HasIndex(&models.Reminder{}, "idx_reminders_pending") {
		if err := db.Exec("CREATE INDEX idx_reminders_pending ON reminders (delivered_at, due_at)").Error; err != nil {
			return err
		}
	}
	if !migrator.HasIndex(&models.Invite{}, "idx_invites_user_status") {
		if err := db.Exec("CREATE INDEX idx_invites_user_status ON invites (invited_username, status)").Error; err != nil {
			return err
		}
	}
	return nil
}
