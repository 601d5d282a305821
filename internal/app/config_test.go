package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])
	require.Equal(t, 20, cfg.Database.MaxOpenConns)
	require.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	require.Equal(t, "Europe/Berlin", cfg.Database.TimeZone)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "posadmin-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 2*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, "pos_session", cfg.Auth.Cookie.Name)
	require.True(t, cfg.Auth.Cookie.Secure)
	require.Equal(t, 10, cfg.Auth.BcryptCost)

	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 5, cfg.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.True(t, cfg.RateLimit.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.RateLimit.Redis.Address)
	require.Equal(t, "posadmin:ratelimit:", cfg.RateLimit.Redis.Prefix)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)

	require.Equal(t, "Europe/Berlin", cfg.Notifications.Timezone)
	require.Equal(t, "root@example.com", cfg.Bootstrap.SuperAdminEmail)

	seed := cfg.SeedOptions()
	require.Equal(t, "root@example.com", seed.SuperAdminEmail)
	require.Equal(t, 10, seed.BcryptCost)
}

func TestLoadConfigDefaultsWithEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POSADMIN_AUTH_JWT_SECRET", "from-env")
	t.Setenv("POSADMIN_RATE_LIMIT_REQUESTS", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "from-env", cfg.Auth.JWT.Secret)
	require.Equal(t, "session_token", cfg.Auth.Cookie.Name)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.TTL)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 3, cfg.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.False(t, cfg.RateLimit.Redis.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := LoadConfig()
	require.ErrorContains(t, err, "auth.jwt.secret")
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0o600))

	_, err := LoadConfig(dir)
	require.ErrorContains(t, err, "config: read file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: 8000},
			Auth:      AuthConfig{JWT: JWTSettings{Secret: " s "}},
			RateLimit: RateLimitConfig{Enabled: true, Requests: 10, Window: time.Minute},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "s", cfg.Auth.JWT.Secret)

	cfg = valid()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RateLimit.Window = 0
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Window = 0
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Database.TimeZone = "Mars/Olympus_Mons"
	require.ErrorContains(t, cfg.Validate(), "database.time_zone")
	cfg.Database.TimeZone = ""

	cfg.Notifications.Timezone = "Mars/Olympus_Mons"
	require.ErrorContains(t, cfg.Validate(), "notifications.timezone")
}

func TestAuthConfigConversions(t *testing.T) {
	jwtCfg := AuthConfig{JWT: JWTSettings{Secret: "s", Issuer: "i"}}.JWTServiceConfig()
	require.Equal(t, "s", jwtCfg.Secret)
	require.Equal(t, "i", jwtCfg.Issuer)
	require.Equal(t, 12*time.Hour, jwtCfg.SessionTTL)

	loc, err := NotificationsConfig{}.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestRedisOptions(t *testing.T) {
	opts := RedisConfig{
		Address:  " localhost:6379 ",
		Password: "pw",
		DB:       3,
		TLS:      true,
		Timeout:  time.Second,
	}.RedisOptions()

	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, "pw", opts.Password)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, time.Second, opts.ReadTimeout)
	require.NotNil(t, opts.TLSConfig)
}
