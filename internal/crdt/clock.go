package crdt

import (
	"sync"
	"time"

	"github.com/iudanet/syncdb/internal/models"
)

// Clock представляет гибридные логические часы в миллисекундах.
// Значения монотонно растут и никогда не меньше самого большого timestamp,
// который видела реплика, поэтому локальная запись всегда новее всего известного.
type Clock struct {
	now  func() int64 // источник физического времени
	last int64        // последний выданный или наблюдаемый timestamp
	mu   sync.Mutex   // мьютекс для потокобезопасности
}

// NewClock создает часы на основе системного времени.
func NewClock() *Clock {
	return NewClockWithSource(func() int64 {
		return time.Now().UnixMilli()
	})
}

// NewClockWithSource создает часы с заданным источником времени.
// Используется для тестирования.
func NewClockWithSource(now func() int64) *Clock {
	return &Clock{now: now}
}

// Tick возвращает timestamp для нового локального события:
// max(физическое время, последний timestamp + 1), не больше models.MaxTimestamp.
func (c *Clock) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now()
	if ts <= c.last {
		ts = c.last + 1
	}
	if ts > models.MaxTimestamp {
		ts = models.MaxTimestamp
	}
	c.last = ts

	return ts
}

// Observe учитывает timestamp, полученный от другой реплики или загруженный с диска.
// Значения больше models.MaxTimestamp игнорируются, чтобы Tick не переполнился.
func (c *Clock) Observe(remote int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.last && remote <= models.MaxTimestamp {
		c.last = remote
	}
}

// Last возвращает последний выданный или наблюдаемый timestamp без изменения часов.
func (c *Clock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.last
}
