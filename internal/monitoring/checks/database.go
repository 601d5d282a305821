package checks

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/monitoring"
)

// Database returns a readiness probe that pings the relational store.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) error {
		if db == nil {
			return errors.New("database not configured")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}
