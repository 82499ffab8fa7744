package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncdb/internal/client/storage"
	"github.com/iudanet/syncdb/internal/models"
	"github.com/iudanet/syncdb/internal/validation"
	"github.com/iudanet/syncdb/pkg/api"
)

func TestCoordinator_NotReady(t *testing.T) {
	store := openTestStorage(t, filepath.Join(t.TempDir(), "client.db"))
	c := New(testEngine("node-a", 1000), store, store, testLogger())
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "k", json.RawMessage(`1`)), ErrNotReady)
	assert.ErrorIs(t, c.Delete(ctx, "k"), ErrNotReady)

	_, _, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = c.All(ctx)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = c.State(ctx)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = c.SyncOnce(ctx, newFakeDialer(), 0)
	assert.ErrorIs(t, err, ErrNotReady)

	select {
	case <-c.Ready():
		t.Fatal("coordinator should not be ready before Load")
	default:
	}

	require.NoError(t, c.Load(ctx))
	<-c.Ready()
	assert.NoError(t, c.Set(ctx, "k", json.RawMessage(`1`)))
}

func TestCoordinator_Load(t *testing.T) {
	records := &storage.RecordStoreMock{
		GetAllRecordsFunc: func(ctx context.Context) ([]storage.StoredRecord, error) {
			return []storage.StoredRecord{
				{Key: "a", Record: models.Record{Value: json.RawMessage(`1`), Timestamp: 10, OriginID: "n1"}},
				{Key: validation.LegacySnapshotKey, Record: models.Record{Value: json.RawMessage(`{"a":1}`), Timestamp: 99999, OriginID: "n1"}},
				{Key: "broken", Err: errors.New("invalid character")},
				{Key: "b", Record: models.Record{Value: models.Tombstone, Timestamp: 20, OriginID: "n2"}},
			}, nil
		},
		PutRecordFunc: func(ctx context.Context, key string, record models.Record) error {
			return nil
		},
	}
	queue := openTestStorage(t, filepath.Join(t.TempDir(), "queue.db"))

	// Физическое время отстает от загруженных записей
	c := New(testEngine("node-a", 5), records, queue, testLogger())
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	state, err := c.State(ctx)
	require.NoError(t, err)
	assert.Len(t, state, 2)
	assert.Contains(t, state, "a")
	assert.Contains(t, state, "b")
	assert.True(t, state["b"].IsTombstone())

	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]json.RawMessage{"a": json.RawMessage(`1`)}, all)

	_, found, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, found, "Deleted key should not be found")

	assert.Equal(t, int64(20), c.Watermark(), "Legacy snapshot must not move the watermark")
	assert.Equal(t, int64(20), c.SyncWatermark())

	// Локальная запись новее всего загруженного
	require.NoError(t, c.Set(ctx, "a", json.RawMessage(`2`)))
	stateAfter, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(21), stateAfter["a"].Timestamp)

	// Повторный Load ничего не делает
	require.NoError(t, c.Load(ctx))
	assert.Len(t, records.GetAllRecordsCalls(), 1)
}

func TestCoordinator_Load_StorageError(t *testing.T) {
	records := &storage.RecordStoreMock{
		GetAllRecordsFunc: func(ctx context.Context) ([]storage.StoredRecord, error) {
			return nil, storage.ErrStorageClosed
		},
	}
	queue := openTestStorage(t, filepath.Join(t.TempDir(), "queue.db"))
	c := New(testEngine("node-a", 1000), records, queue, testLogger())

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, _, err = c.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestCoordinator_SetGetDelete(t *testing.T) {
	c, store := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user", json.RawMessage(`{ "name": "alice" }`)))

	value, found, err := c.Get(ctx, "user")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"name":"alice"}`, string(value), "Value should be stored compacted")

	persisted, err := store.GetRecord(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "node-a", persisted.OriginID)
	assert.Equal(t, int64(1000), persisted.Timestamp)

	require.NoError(t, c.Delete(ctx, "user"))

	_, found, err = c.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found)

	persisted, err = store.GetRecord(ctx, "user")
	require.NoError(t, err)
	assert.True(t, persisted.IsTombstone(), "Tombstone should be persisted")
	assert.Equal(t, int64(1001), persisted.Timestamp)

	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCoordinator_Set_NullValueDeletes(t *testing.T) {
	c, _ := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", json.RawMessage(`1`)))
	require.NoError(t, c.Set(ctx, "k", json.RawMessage(`null`)))

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCoordinator_Set_Validation(t *testing.T) {
	c, store := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	err := c.Set(ctx, "", json.RawMessage(`1`))
	assert.ErrorIs(t, err, validation.ErrInvalidKey)

	err = c.Set(ctx, validation.LegacySnapshotKey, json.RawMessage(`1`))
	assert.ErrorIs(t, err, validation.ErrInvalidKey)

	err = c.Set(ctx, "k", json.RawMessage(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = c.Set(ctx, "k", nil)
	assert.ErrorIs(t, err, ErrInvalidValue, "Empty value must not become a tombstone")

	err = c.Set(ctx, "k", json.RawMessage{})
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = c.Delete(ctx, "")
	assert.ErrorIs(t, err, validation.ErrInvalidKey)

	assert.Equal(t, 0, queueLen(t, store), "Rejected writes must not be queued")
}

func TestCoordinator_OfflineWritesAreQueued(t *testing.T) {
	c, store := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	assert.Equal(t, StatusOffline, c.Status())

	require.NoError(t, c.Set(ctx, "a", json.RawMessage(`1`)))
	require.NoError(t, c.Delete(ctx, "b"))

	assert.Equal(t, 2, queueLen(t, store))

	pending, err := c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	head, err := store.PeekOldest(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"a","record":{"value":1,"timestamp":1000,"origin_id":"node-a"}}`, string(head))
}

func TestCoordinator_OfflineWritesSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	first := openTestStorage(t, path)
	c := New(testEngine("node-a", 1000), first, first, testLogger())
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Set(ctx, "k", json.RawMessage(`"offline"`)))
	require.NoError(t, first.Close())

	second := openTestStorage(t, path)
	restarted := New(testEngine("node-a", 1000), second, second, testLogger())
	require.NoError(t, restarted.Load(ctx))

	value, found, err := restarted.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"offline"`, string(value))
	assert.Equal(t, int64(1000), restarted.Watermark())
	assert.Equal(t, int64(0), restarted.SyncWatermark(), "Own records do not count toward catch-up")
	assert.Equal(t, 1, queueLen(t, second))
}

func TestCoordinator_PersistenceFailure(t *testing.T) {
	diskErr := errors.New("disk full")
	records := &storage.RecordStoreMock{
		GetAllRecordsFunc: func(ctx context.Context) ([]storage.StoredRecord, error) {
			return nil, nil
		},
		PutRecordFunc: func(ctx context.Context, key string, record models.Record) error {
			return diskErr
		},
	}
	queue := openTestStorage(t, filepath.Join(t.TempDir(), "queue.db"))
	c := New(testEngine("node-a", 1000), records, queue, testLogger())
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	var changes []Change
	c.Subscribe(func(change Change) {
		changes = append(changes, change)
	})

	err := c.Set(ctx, "k", json.RawMessage(`1`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, diskErr)

	// Изменение остается примененным, отправится через очередь
	value, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `1`, string(value))
	assert.Equal(t, 1, queueLen(t, queue))
	assert.Len(t, changes, 1)
}

func TestCoordinator_QueueFailure(t *testing.T) {
	queue := &storage.QueueMock{
		AppendFunc: func(ctx context.Context, message []byte) error {
			return storage.ErrStorageClosed
		},
	}
	records := openTestStorage(t, filepath.Join(t.TempDir(), "records.db"))
	c := New(testEngine("node-a", 1000), records, queue, testLogger())
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	err := c.Set(ctx, "k", json.RawMessage(`1`))
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.Len(t, queue.AppendCalls(), 1)
}

func TestCoordinator_Subscribe(t *testing.T) {
	c, _ := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	var first, second []Change
	unsubscribeFirst := c.Subscribe(func(change Change) {
		first = append(first, change)
	})
	c.Subscribe(func(change Change) {
		second = append(second, change)
	})

	require.NoError(t, c.Set(ctx, "a", json.RawMessage(`1`)))
	require.NoError(t, c.Delete(ctx, "a"))

	unsubscribeFirst()
	// Повторная отписка безопасна
	unsubscribeFirst()

	require.NoError(t, c.Set(ctx, "b", json.RawMessage(`2`)))

	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Key)
	assert.Equal(t, `1`, string(first[0].Value))
	assert.False(t, first[0].Removed)
	assert.False(t, first[0].Remote)
	assert.Equal(t, "node-a", first[0].OriginID)

	assert.Equal(t, "a", first[1].Key)
	assert.True(t, first[1].Removed, "Delete should be reported as removed")
	assert.Nil(t, first[1].Value, "Tombstone marker must not be surfaced as a value")

	require.Len(t, second, 3, "Unsubscribing one callback must not affect others")
	assert.Equal(t, "b", second[2].Key)
}

func TestCoordinator_Subscribe_CallbackCanWrite(t *testing.T) {
	c, _ := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	c.Subscribe(func(change Change) {
		if change.Key == "source" {
			require.NoError(t, c.Set(ctx, "mirror", change.Value))
		}
	})

	require.NoError(t, c.Set(ctx, "source", json.RawMessage(`"x"`)))

	value, found, err := c.Get(ctx, "mirror")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"x"`, string(value))
}

func TestCoordinator_HandleMessage(t *testing.T) {
	c, store := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	var changes []Change
	c.Subscribe(func(change Change) {
		changes = append(changes, change)
	})

	remote := `{"key":"r","record":{"value":{"x":1},"timestamp":5000,"origin_id":"node-b"}}`

	c.HandleMessage(ctx, []byte(remote))

	value, found, err := c.Get(ctx, "r")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"x":1}`, string(value))

	persisted, err := store.GetRecord(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), persisted.Timestamp)
	assert.Equal(t, "node-b", persisted.OriginID)

	require.Len(t, changes, 1)
	assert.True(t, changes[0].Remote)
	assert.Equal(t, int64(5000), changes[0].Timestamp)

	// Дубликат, устаревшая запись, мусор и sync-запрос ничего не меняют
	c.HandleMessage(ctx, []byte(remote))
	c.HandleMessage(ctx, []byte(`{"key":"r","record":{"value":"old","timestamp":10,"origin_id":"node-c"}}`))
	c.HandleMessage(ctx, []byte(`not json`))
	c.HandleMessage(ctx, []byte(`{"key":"r","record":{"value":1}}`))
	c.HandleMessage(ctx, []byte(`{"type":"sync","since":0}`))

	value, _, err = c.Get(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(value))
	assert.Len(t, changes, 1)
	assert.Equal(t, int64(5000), c.Watermark())
	assert.Equal(t, int64(5000), c.SyncWatermark(), "Stale remote record must not lower the watermark")
	assert.Equal(t, 0, queueLen(t, store), "Remote updates are never queued")

	// Удаление от другой реплики
	c.HandleMessage(ctx, []byte(`{"key":"r","record":{"value":null,"timestamp":6000,"origin_id":"node-b"}}`))
	_, found, err = c.Get(ctx, "r")
	require.NoError(t, err)
	assert.False(t, found)
	require.Len(t, changes, 2)
	assert.True(t, changes[1].Removed)

	// Следующая локальная запись новее удаления
	require.NoError(t, c.Set(ctx, "r", json.RawMessage(`"back"`)))
	value, found, err = c.Get(ctx, "r")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"back"`, string(value))
}

func TestCoordinator_HandleMessage_OwnEchoWithHTMLChars(t *testing.T) {
	c, store := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", json.RawMessage(`{"html": "<a&b>"}`)))

	var changes []Change
	c.Subscribe(func(change Change) {
		changes = append(changes, change)
	})

	own, err := store.GetRecord(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<a&b>"}`, string(own.Value), "Persisted value must keep raw characters")

	// Relay возвращает собственную запись при догоняющей синхронизации
	data, err := api.EncodeUpdate(models.Update{Key: "k", Record: own})
	require.NoError(t, err)

	changed, err := c.applyMessage(ctx, data)
	require.NoError(t, err)
	assert.False(t, changed, "Own echo must be a no-op")
	assert.Empty(t, changes, "Own echo must not notify subscribers")

	value, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"html":"<a&b>"}`, string(value))

	// После перезапуска байты значения те же
	restarted := NewWithSettings(testEngine("node-a", 1000), store, store, testLogger(), testSettings())
	require.NoError(t, restarted.Load(ctx))
	value, found, err = restarted.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"html":"<a&b>"}`, string(value))

	changed, err = restarted.applyMessage(ctx, data)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCoordinator_HandleMessage_TieBreak(t *testing.T) {
	c, _ := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	c.HandleMessage(ctx, []byte(`{"key":"k","record":{"value":"from-a","timestamp":7000,"origin_id":"a"}}`))
	c.HandleMessage(ctx, []byte(`{"key":"k","record":{"value":"from-b","timestamp":7000,"origin_id":"b"}}`))
	c.HandleMessage(ctx, []byte(`{"key":"k","record":{"value":"from-a","timestamp":7000,"origin_id":"a"}}`))

	value, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"from-b"`, string(value))
}

func TestCoordinator_HandleMessage_BeforeLoad(t *testing.T) {
	store := openTestStorage(t, filepath.Join(t.TempDir(), "client.db"))
	c := New(testEngine("node-a", 1000), store, store, testLogger())
	ctx := context.Background()

	c.HandleMessage(ctx, []byte(`{"key":"r","record":{"value":1,"timestamp":5000,"origin_id":"node-b"}}`))

	require.NoError(t, c.Load(ctx))
	_, found, err := c.Get(ctx, "r")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCoordinator_ConcurrentWrites(t *testing.T) {
	c, store := newTestCoordinator(t, "node-a")
	ctx := context.Background()

	const goroutines = 8
	const writes = 25

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < writes; j++ {
				key := string(rune('a' + i))
				assert.NoError(t, c.Set(ctx, key, json.RawMessage(`1`)))
			}
		}(i)
	}
	wg.Wait()

	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, goroutines)
	assert.Equal(t, goroutines*writes, queueLen(t, store))

	// На диске для каждого ключа последняя запись из памяти
	state, err := c.State(ctx)
	require.NoError(t, err)
	for key, record := range state {
		persisted, err := store.GetRecord(ctx, key)
		require.NoError(t, err)
		assert.True(t, record.Equal(persisted), "Persisted record for %s should match memory", key)
	}
}
