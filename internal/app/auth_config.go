package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups on images without a system tz database

	"github.com/charlesng35/posadmin/internal/auth"
	"github.com/charlesng35/posadmin/internal/database"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.JWTConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// SeedOptions converts the bootstrap section into database seed parameters.
func (c *Config) SeedOptions() database.SeedOptions {
	return database.SeedOptions{
		SuperAdminEmail:    strings.TrimSpace(c.Bootstrap.SuperAdminEmail),
		SuperAdminPassword: c.Bootstrap.SuperAdminPassword,
		BcryptCost:         c.Auth.BcryptCost,
	}
}

// Location resolves the configured feed timezone, defaulting to UTC.
func (c NotificationsConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: notifications.timezone: %w", err)
	}
	return loc, nil
}
