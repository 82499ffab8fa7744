package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/syncdb/internal/client/coordinator"
	"github.com/iudanet/syncdb/internal/client/iocli"
)

// DefaultSyncIdle - сколько ждать тишины от relay, прежде чем завершить sync
const DefaultSyncIdle = 2 * time.Second

// ErrUnknownCommand возвращается для неизвестной команды
var ErrUnknownCommand = errors.New("unknown command")

// Cli выполняет команды поверх локальной реплики
type Cli struct {
	io       iocli.IO
	replica  *coordinator.Coordinator
	dialer   coordinator.Dialer
	logger   *slog.Logger
	syncIdle time.Duration
	// outMu сериализует вывод из колбэков подписки
	outMu sync.Mutex
}

// New создает Cli. replica должна быть загружена (Load).
func New(io iocli.IO, replica *coordinator.Coordinator, dialer coordinator.Dialer, logger *slog.Logger) *Cli {
	return &Cli{
		io:       io,
		replica:  replica,
		dialer:   dialer,
		logger:   logger,
		syncIdle: DefaultSyncIdle,
	}
}

// SetSyncIdle задает таймаут тишины для команды sync
func (c *Cli) SetSyncIdle(idle time.Duration) {
	c.syncIdle = idle
}

func PrintUsage() {
	fmt.Println("syncdb client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  syncdb [OPTIONS] COMMAND [ARGS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version          Show version information")
	fmt.Println("  --server URL       Relay URL (default: ws://localhost:8080/ws, env SYNCDB_SERVER)")
	fmt.Println("  --db PATH          Path to local database (default: syncdb-client.db, env SYNCDB_DB)")
	fmt.Println("  --log-level LEVEL  debug, info, warn or error (default: warn)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  set <key> <json>   Write a JSON value (use - to read it from stdin)")
	fmt.Println("  get <key>          Print the value of a key")
	fmt.Println("  delete <key>       Delete a key")
	fmt.Println("  list [prefix]      List live keys and values")
	fmt.Println("  sync               Push pending changes and pull missed ones")
	fmt.Println("  watch              Stay connected and print changes as they arrive")
	fmt.Println("  status             Show replica state and relay reachability")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  syncdb set user:1 '{\"name\":\"alice\"}'")
	fmt.Println("  syncdb set counter 42")
	fmt.Println("  echo '\"hello\"' | syncdb set greeting -")
	fmt.Println("  syncdb get user:1")
	fmt.Println("  syncdb list user:")
	fmt.Println("  syncdb --server wss://relay.example.com sync")
}

// printValue печатает JSON значение; в терминале - с отступами
func (c *Cli) printValue(value json.RawMessage) {
	out := append([]byte(nil), value...)
	if c.io.IsTerminal() {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, value, "", "  "); err == nil {
			out = pretty.Bytes()
		}
	}

	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = c.io.Write(append(out, '\n'))
}

// printf сериализует вывод с Printf
func (c *Cli) printf(format string, a ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	c.io.Printf(format, a...)
}
