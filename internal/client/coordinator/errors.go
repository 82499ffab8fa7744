package coordinator

import "errors"

var (
	// ErrNotReady возвращается до завершения Load
	ErrNotReady = errors.New("coordinator is not ready: load has not completed")

	// ErrPersistence оборачивает ошибку локального хранилища.
	// Изменение при этом уже применено в памяти и отправлено или поставлено в очередь.
	ErrPersistence = errors.New("failed to persist change")

	// ErrInvalidValue возвращается, если значение не является корректным JSON
	ErrInvalidValue = errors.New("value is not valid JSON")
)
