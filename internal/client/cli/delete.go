package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing key. Usage: syncdb delete <key>")
	}

	key := args[0]
	// Удаление отсутствующего ключа тоже записывает tombstone:
	// ключ мог быть создан на другой реплике
	if err := c.replica.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}

	c.reportStored(ctx, "Deleted", key)
	return nil
}
