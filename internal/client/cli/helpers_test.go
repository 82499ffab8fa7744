package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncdb/internal/client/coordinator"
	"github.com/iudanet/syncdb/internal/client/iocli"
	"github.com/iudanet/syncdb/internal/client/storage/boltdb"
	"github.com/iudanet/syncdb/internal/crdt"
)

var errFakeClosed = errors.New("fake connection closed")

// output собирает все, что Cli печатает через IO
type output struct {
	buf strings.Builder
	mu  sync.Mutex
}

func (o *output) write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf.WriteString(s)
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

func newMockIO(out *output, terminal bool, stdin string) *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) { out.write(fmt.Sprintln(a...)) },
		PrintfFunc:  func(format string, a ...any) { out.write(fmt.Sprintf(format, a...)) },
		WriteFunc: func(p []byte) (int, error) {
			out.write(string(p))
			return len(p), nil
		},
		ReadAllFunc:    func() ([]byte, error) { return []byte(stdin), nil },
		IsTerminalFunc: func() bool { return terminal },
	}
}

type fakeConn struct {
	incoming chan []byte
	done     chan struct{}
	sent     [][]byte
	mu       sync.Mutex
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

func (f *fakeConn) Send(_ context.Context, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), msg...))
	return nil
}

func (f *fakeConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-f.incoming:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return nil, errFakeClosed
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

// fakeDialer всегда возвращает один и тот же conn или err
type fakeDialer struct {
	conn *fakeConn
	err  error
}

func (d *fakeDialer) Dial(context.Context) (coordinator.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type testEnv struct {
	cli     *Cli
	out     *output
	replica *coordinator.Coordinator
	conn    *fakeConn
}

func newTestEnv(t *testing.T, terminal bool, stdin string) *testEnv {
	t.Helper()
	return newTestEnvWithDialer(t, terminal, stdin, nil)
}

// newTestEnvWithDialer создает Cli на временном bbolt с загруженной репликой
func newTestEnvWithDialer(t *testing.T, terminal bool, stdin string, dialErr error) *testEnv {
	t.Helper()

	ctx := context.Background()
	store, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := crdt.NewStoreWithClock("node-a", crdt.NewClockWithSource(func() int64 { return 1000 }))
	replica := coordinator.NewWithSettings(engine, store, store, logger, coordinator.Settings{
		ReconnectBase: time.Millisecond,
		ReconnectMax:  5 * time.Millisecond,
	})
	require.NoError(t, replica.Load(ctx))

	out := &output{}
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn, err: dialErr}

	c := New(newMockIO(out, terminal, stdin), replica, dialer, logger)
	c.SetSyncIdle(20 * time.Millisecond)

	return &testEnv{cli: c, out: out, replica: replica, conn: conn}
}
