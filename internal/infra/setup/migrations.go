package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Alschn/Beerdegu/internal/domain"
)

// MigrateDB creates or updates the schema from the models. Deployments that
// manage the schema with cmd/migrate set DB_AUTO_MIGRATE=false.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}
	// order matters: referenced tables first
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Brewery{},
		&domain.BeerStyle{},
		&domain.Hop{},
		&domain.Beer{},
		&domain.Room{},
		&domain.Membership{},
		&domain.FlightEntry{},
		&domain.Rating{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	logrus.Info("Database migration completed successfully")
	return nil
}
