package database

import (
	"fmt"

	"kreede/internal/bookings"

	"gorm.io/gorm"
)

// MigrateConstraints adds constraints AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	for _, variant := range bookings.Variants {
		table := variant.Table()

		// Amounts only ever shrink towards zero
		err := db.Exec(fmt.Sprintf(`
			DO $$ BEGIN
				ALTER TABLE %[1]s ADD CONSTRAINT chk_%[1]s_amount_non_negative CHECK (amount >= 0);
			EXCEPTION WHEN duplicate_object THEN NULL;
			END $$;
		`, table)).Error
		if err != nil {
			return err
		}

		// Index names are per schema, so each variant table gets its own
		for _, column := range []string{"date", "user_id", "order_id"} {
			err = db.Exec(fmt.Sprintf(
				`CREATE INDEX IF NOT EXISTS idx_%[1]s_%[2]s ON %[1]s (%[2]s)`, table, column,
			)).Error
			if err != nil {
				return err
			}
		}
	}

	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_refunds_created_at
		ON refunds (created_at DESC);
	`).Error
}
