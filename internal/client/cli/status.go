package cli

import (
	"context"
	"fmt"
	"time"
)

// statusDialTimeout ограничивает проверку доступности relay
const statusDialTimeout = 5 * time.Second

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Replica Status ===")
	c.io.Println()

	keys, err := c.replica.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	c.io.Printf("Node ID:        %s\n", c.replica.NodeID())
	c.io.Printf("Live keys:      %d\n", len(keys))
	c.io.Printf("Watermark:      %d\n", c.replica.Watermark())
	c.io.Printf("Sync watermark: %d\n", c.replica.SyncWatermark())

	pending, err := c.replica.PendingCount(ctx)
	if err != nil {
		// Не прерываем выполнение, просто предупреждаем
		c.io.Printf("\nWarning: Failed to get pending sync count: %v\n", err)
	} else {
		c.io.Println()
		if pending > 0 {
			c.io.Printf("⚠️  Pending sync: %d change(s) waiting to be sent\n", pending)
			c.io.Println("Run 'syncdb sync' to synchronize with the relay.")
		} else {
			c.io.Println("✓ No pending changes")
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, statusDialTimeout)
	defer cancel()

	conn, err := c.dialer.Dial(dialCtx)
	if err != nil {
		c.io.Printf("Relay:          unreachable (%v)\n", err)
		return nil
	}
	_ = conn.Close()
	c.io.Println("Relay:          reachable")

	return nil
}
