package checks

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/charlesng35/posadmin/internal/monitoring"
)

// Redis returns a readiness probe for the shared rate limit store.
func Redis(client redis.UniversalClient) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
