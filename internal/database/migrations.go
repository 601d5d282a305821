package database

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/auth"
	"github.com/charlesng35/posadmin/internal/models"
	"github.com/charlesng35/posadmin/pkg/logger"
)

// SeedOptions describes the platform account created on first start.
type SeedOptions struct {
	SuperAdminEmail    string
	SuperAdminPassword string
	BcryptCost         int
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Notification{},
		&models.Ticket{},
		&models.TicketReply{},
	)
}

// SeedData creates the initial super admin when none exists yet. Empty
// credentials skip seeding.
func SeedData(db *gorm.DB, opts SeedOptions) error {
	email := strings.ToLower(strings.TrimSpace(opts.SuperAdminEmail))
	if email == "" || opts.SuperAdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", access.RoleSuperAdmin.String()).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count super admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(opts.SuperAdminPassword, opts.BcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return fmt.Errorf("bootstrap super admin: %w", err)
		}
		return err
	}

	admin := models.User{
		Email:        email,
		Name:         "Platform Administrator",
		PasswordHash: hash,
		Role:         access.RoleSuperAdmin.String(),
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	logger.WithModule("database").Info("seeded super admin", zap.String("email", email))
	return nil
}
