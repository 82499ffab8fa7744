package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/syncdb/internal/validation"
)

// IdentityStore defines interface for storing the replica identifier
type IdentityStore interface {
	// SaveNodeID persists the replica identifier
	SaveNodeID(ctx context.Context, nodeID string) error

	// GetNodeID retrieves the replica identifier
	// Returns ErrNodeIDNotFound if it was never generated
	GetNodeID(ctx context.Context) (string, error)
}

// EnsureNodeID возвращает сохраненный идентификатор реплики,
// а при первом запуске генерирует случайный UUID и сохраняет его.
func EnsureNodeID(ctx context.Context, store IdentityStore) (string, error) {
	nodeID, err := store.GetNodeID(ctx)
	if err == nil {
		// Испорченный идентификатор нельзя молча заменить: записи реплики уже подписаны им
		if err := validation.ValidateNodeID(nodeID); err != nil {
			return "", fmt.Errorf("stored node id is corrupted: %w", err)
		}
		return nodeID, nil
	}
	if !errors.Is(err, ErrNodeIDNotFound) {
		return "", fmt.Errorf("failed to get node id: %w", err)
	}

	// Первый запуск - генерируем идентификатор
	nodeID = uuid.New().String()
	if err := store.SaveNodeID(ctx, nodeID); err != nil {
		return "", fmt.Errorf("failed to save node id: %w", err)
	}

	return nodeID, nil
}
