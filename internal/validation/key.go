package validation

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidKey возвращается для ключа, который нельзя хранить и передавать
var ErrInvalidKey = errors.New("invalid key")

// ErrInvalidNodeID возвращается для некорректного идентификатора реплики
var ErrInvalidNodeID = errors.New("invalid node id")

const (
	// MaxKeyLen максимальная длина ключа в байтах
	MaxKeyLen = 1024
	// MaxNodeIDLen максимальная длина идентификатора реплики в байтах
	MaxNodeIDLen = 128
	// LegacySnapshotKey ключ снимка состояния старого формата.
	// Такие записи пропускаются при загрузке, поэтому писать в него нельзя.
	LegacySnapshotKey = "full_state"
)

// ValidateKey проверяет, что ключ можно записать:
// непустой, валидный UTF-8 без управляющих символов, не длиннее MaxKeyLen
// и не совпадает с зарезервированным LegacySnapshotKey.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}

	if len(key) > MaxKeyLen {
		return fmt.Errorf("%w: key must not exceed %d bytes", ErrInvalidKey, MaxKeyLen)
	}

	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key must be valid UTF-8", ErrInvalidKey)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: key must not contain control characters", ErrInvalidKey)
		}
	}

	if key == LegacySnapshotKey {
		return fmt.Errorf("%w: key %q is reserved", ErrInvalidKey, key)
	}

	return nil
}

// ValidateNodeID проверяет идентификатор реплики, заданный пользователем
func ValidateNodeID(nodeID string) error {
	if nodeID == "" {
		return fmt.Errorf("%w: node id cannot be empty", ErrInvalidNodeID)
	}

	if len(nodeID) > MaxNodeIDLen {
		return fmt.Errorf("%w: node id must not exceed %d bytes", ErrInvalidNodeID, MaxNodeIDLen)
	}

	for _, r := range nodeID {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return fmt.Errorf("%w: node id can only contain printable non-space characters", ErrInvalidNodeID)
		}
	}

	return nil
}
