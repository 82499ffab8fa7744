package cli

import (
	"context"
	"errors"
	"fmt"
)

// ErrKeyNotFound возвращается, если ключа нет или он удален
var ErrKeyNotFound = errors.New("key not found")

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing key. Usage: syncdb get <key>")
	}

	key := args[0]
	value, ok, err := c.replica.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get %q: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	c.printValue(value)
	return nil
}
