package cli

import (
	"context"
	"fmt"
	"strings"
)

func (c *Cli) runList(ctx context.Context, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	values, err := c.replica.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	keys, err := c.replica.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	found := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		value, ok := values[key]
		if !ok {
			continue
		}
		found++
		c.io.Printf("%s\t%s\n", key, value)
	}

	if found == 0 {
		if prefix != "" {
			c.io.Printf("No keys with prefix %q.\n", prefix)
		} else {
			c.io.Println("No keys found.")
		}
	}

	return nil
}
