package coordinator

import (
	"encoding/json"
	"sort"
	"sync"
)

// Status описывает состояние соединения с relay
type Status string

const (
	// StatusOffline - соединения нет, изменения копятся в очереди
	StatusOffline Status = "offline"
	// StatusOnline - соединение открыто
	StatusOnline Status = "online"
	// StatusSyncing - обрабатывается входящее сообщение
	StatusSyncing Status = "syncing"
)

// Change - уведомление о локально примененном изменении ключа
type Change struct {
	Key string
	// Value пусто, если ключ удален
	Value     json.RawMessage
	OriginID  string
	Timestamp int64
	Removed   bool
	// Remote - изменение пришло от другой реплики
	Remote bool
}

// observers хранит подписчиков по дескриптору.
// Колбэки вызываются вне блокировки в порядке регистрации.
type observers[T any] struct {
	callbacks map[uint64]func(T)
	nextID    uint64
	mu        sync.RWMutex
}

func newObservers[T any]() *observers[T] {
	return &observers[T]{callbacks: make(map[uint64]func(T))}
}

func (o *observers[T]) add(fn func(T)) func() {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.callbacks[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.callbacks, id)
			o.mu.Unlock()
		})
	}
}

func (o *observers[T]) notify(v T) {
	o.mu.RLock()
	ids := make([]uint64, 0, len(o.callbacks))
	for id := range o.callbacks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.callbacks[id])
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (o *observers[T]) count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.callbacks)
}
