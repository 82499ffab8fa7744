package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	result, err := c.replica.SyncOnce(ctx, c.dialer, c.syncIdle)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Println("✓ Synchronization completed successfully!")
	c.io.Println()
	c.io.Printf("Pushed to relay:     %d entries\n", result.PushedEntries)
	c.io.Printf("Received from relay: %d entries\n", result.ReceivedEntries)
	c.io.Printf("Merged locally:      %d entries\n", result.MergedEntries)
	if result.SkippedEntries > 0 {
		c.io.Printf("Skipped (errors):    %d\n", result.SkippedEntries)
	}

	pending, err := c.replica.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending count: %w", err)
	}
	if pending > 0 {
		c.io.Printf("⚠️  %d change(s) still pending, the connection dropped while sending\n", pending)
	}

	return nil
}
