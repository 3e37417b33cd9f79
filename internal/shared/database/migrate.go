package database

import (
	"fmt"

	"kreede/internal/bookings"
	"kreede/internal/memberships"
	"kreede/internal/refunds"
	"kreede/internal/registrations"
	"kreede/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	if err := db.AutoMigrate(
		&users.User{},
		&memberships.Membership{},
		&refunds.RefundRecord{},
		&registrations.Registration{},
	); err != nil {
		return err
	}

	// Both booking variants share one model
	for _, variant := range bookings.Variants {
		if err := db.Table(variant.Table()).AutoMigrate(&bookings.Booking{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", variant.Table(), err)
		}
	}

	return MigrateConstraints(db)
}
