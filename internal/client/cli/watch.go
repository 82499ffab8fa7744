package cli

import (
	"context"

	"github.com/iudanet/syncdb/internal/client/coordinator"
)

// runWatch держит соединение с relay и печатает изменения до отмены ctx
func (c *Cli) runWatch(ctx context.Context) error {
	unsubscribe := c.replica.Subscribe(func(change coordinator.Change) {
		source := "local"
		if change.Remote {
			source = "remote"
		}
		if change.Removed {
			c.printf("[%s] %s deleted (origin %s, ts %d)\n", source, change.Key, change.OriginID, change.Timestamp)
			return
		}
		c.printf("[%s] %s = %s (origin %s, ts %d)\n", source, change.Key, change.Value, change.OriginID, change.Timestamp)
	})
	defer unsubscribe()

	unsubscribeStatus := c.replica.SubscribeStatus(func(status coordinator.Status) {
		// syncing мелькает на каждое сообщение
		if status == coordinator.StatusSyncing {
			return
		}
		c.printf("status: %s\n", status)
	})
	defer unsubscribeStatus()

	c.printf("Watching %s, press Ctrl+C to stop\n", c.replica.NodeID())

	return c.replica.Run(ctx, c.dialer)
}
