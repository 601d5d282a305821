package database

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// hostedDriver describes a networked database: where it listens by default,
// which connection options it always carries, and how its DSN is spelled.
type hostedDriver struct {
	name        string
	defaultHost string
	defaultPort int
	options     func(cfg Config) map[string]string
	render      func(cfg Config, host string, port int, options []string) string
	dialect     func(dsn string) gorm.Dialector
}

var postgresDriver = hostedDriver{
	name:        "postgres",
	defaultHost: "localhost",
	defaultPort: 5432,
	options: func(cfg Config) map[string]string {
		return map[string]string{
			"sslmode":  "disable",
			"TimeZone": sessionTimeZone(cfg),
		}
	},
	render: func(cfg Config, host string, port int, options []string) string {
		parts := []string{
			"host=" + host,
			fmt.Sprintf("port=%d", port),
			"user=" + cfg.User,
			"dbname=" + cfg.Name,
		}
		if cfg.Password != "" {
			parts = append(parts, "password="+cfg.Password)
		}
		return strings.Join(append(parts, options...), " ")
	},
	dialect: postgres.Open,
}

var mysqlDriver = hostedDriver{
	name:        "mysql",
	defaultHost: "127.0.0.1",
	defaultPort: 3306,
	options: func(cfg Config) map[string]string {
		return map[string]string{
			"charset":   "utf8mb4",
			"parseTime": "True",
			"loc":       url.QueryEscape(sessionTimeZone(cfg)),
		}
	},
	render: func(cfg Config, host string, port int, options []string) string {
		credentials := cfg.User
		if cfg.Password != "" {
			credentials += ":" + cfg.Password
		}
		return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s", credentials, host, port, cfg.Name, strings.Join(options, "&"))
	},
	dialect: mysql.Open,
}

func openHosted(driver hostedDriver, cfg Config) (*gorm.DB, error) {
	dsn, err := driver.dsn(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(driver.dialect(dsn), gormConfig())
}

// dsn returns cfg.DSN verbatim when set. Otherwise it assembles one from the
// host fields; user-supplied options override the driver's defaults and are
// emitted in key order so the result is stable.
func (d hostedDriver) dsn(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", fmt.Errorf("%s configuration requires user and database name", d.name)
	}

	host := defaultIfBlank(cfg.Host, d.defaultHost)
	port := cfg.Port
	if port == 0 {
		port = d.defaultPort
	}

	merged := d.options(cfg)
	for key, value := range cfg.Options {
		merged[key] = value
	}
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	options := make([]string, 0, len(keys))
	for _, key := range keys {
		options = append(options, key+"="+merged[key])
	}
	return d.render(cfg, host, port, options), nil
}

func sessionTimeZone(cfg Config) string {
	return defaultIfBlank(cfg.TimeZone, "UTC")
}

func defaultIfBlank(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
