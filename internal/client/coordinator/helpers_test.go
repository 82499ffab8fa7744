package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncdb/internal/client/storage"
	"github.com/iudanet/syncdb/internal/client/storage/boltdb"
	"github.com/iudanet/syncdb/internal/crdt"
)

var errFakeClosed = errors.New("fake connection closed")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSettings() Settings {
	return Settings{
		ReconnectBase: time.Millisecond,
		ReconnectMax:  5 * time.Millisecond,
	}
}

// testEngine создает движок с часами, начинающими с ts
func testEngine(nodeID string, ts int64) *crdt.Store {
	return crdt.NewStoreWithClock(nodeID, crdt.NewClockWithSource(func() int64 { return ts }))
}

// openTestStorage открывает bbolt файл и закрывает его по завершении теста
func openTestStorage(t *testing.T, path string) *boltdb.Storage {
	t.Helper()

	store, err := boltdb.New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// newTestCoordinator создает загруженный координатор на временном bbolt
func newTestCoordinator(t *testing.T, nodeID string) (*Coordinator, *boltdb.Storage) {
	t.Helper()

	store := openTestStorage(t, filepath.Join(t.TempDir(), "client.db"))
	c := NewWithSettings(testEngine(nodeID, 1000), store, store, testLogger(), testSettings())
	require.NoError(t, c.Load(context.Background()))

	return c, store
}

func queueLen(t *testing.T, q storage.Queue) int {
	t.Helper()

	n, err := q.Len(context.Background())
	require.NoError(t, err)
	return n
}

// fakeConn - соединение в памяти: отправленное копится в sent,
// входящее подается через incoming
type fakeConn struct {
	sendErr   func(n int) error
	incoming  chan []byte
	closed    chan struct{}
	sent      [][]byte
	mu        sync.Mutex
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (f *fakeConn) Send(_ context.Context, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.closed:
		return errFakeClosed
	default:
	}

	if f.sendErr != nil {
		if err := f.sendErr(len(f.sent)); err != nil {
			return err
		}
	}

	f.sent = append(f.sent, append([]byte(nil), msg...))
	return nil
}

func (f *fakeConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-f.incoming:
		return msg, nil
	case <-f.closed:
		return nil, errFakeClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]string, 0, len(f.sent))
	for _, msg := range f.sent {
		result = append(result, string(msg))
	}
	return result
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// fakeDialer выдает заранее подготовленные соединения по одному;
// когда их нет, Dial ждет отмены ctx
type fakeDialer struct {
	conns chan *fakeConn
	dials int
	mu    sync.Mutex
}

func newFakeDialer(conns ...*fakeConn) *fakeDialer {
	d := &fakeDialer{conns: make(chan *fakeConn, 16)}
	for _, conn := range conns {
		d.conns <- conn
	}
	return d
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	d.dials++
	d.mu.Unlock()

	select {
	case conn := <-d.conns:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.dials
}

// runInBackground запускает Run и останавливает его по завершении теста
func runInBackground(t *testing.T, c *Coordinator, dialer Dialer) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, dialer)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Run did not stop after cancel")
		}
	})
}
