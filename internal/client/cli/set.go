package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/syncdb/internal/client/coordinator"
)

func (c *Cli) runSet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("missing arguments. Usage: syncdb set <key> <json|->")
	}

	key := args[0]
	value := []byte(args[1])
	if args[1] == "-" {
		data, err := c.io.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read value from stdin: %w", err)
		}
		value = bytes.TrimSpace(data)
	}

	if err := c.replica.Set(ctx, key, value); err != nil {
		if errors.Is(err, coordinator.ErrInvalidValue) {
			return fmt.Errorf("%w (strings must be quoted, e.g. '\"text\"')", err)
		}
		return fmt.Errorf("failed to set %q: %w", key, err)
	}

	c.reportStored(ctx, "Stored", key)
	return nil
}

// reportStored печатает результат локальной записи и размер очереди
func (c *Cli) reportStored(ctx context.Context, action, key string) {
	pending, err := c.replica.PendingCount(ctx)
	if err != nil {
		c.logger.Warn("failed to get pending count", "error", err)
		c.io.Printf("%s %q locally\n", action, key)
		return
	}

	c.io.Printf("%s %q locally, %d change(s) pending sync\n", action, key, pending)
}
