package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iudanet/bookmarks/internal/client/iocli"
	"github.com/iudanet/bookmarks/internal/client/mutation"
	"github.com/iudanet/bookmarks/internal/client/replica"
	"github.com/iudanet/bookmarks/internal/client/replica/replicatest"
	"github.com/iudanet/bookmarks/internal/models"
)

var alice = models.Identity{UserID: "u-alice", Username: "alice"}

// console собирает вывод и отдаёт заранее заданный ввод
type console struct {
	inputs    []string
	passwords []string
	lines     []string
	mu        sync.Mutex
}

func (c *console) mock() *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			c.add(joinArgs(a))
		},
		PrintfFunc: func(format string, a ...any) {
			c.add(fmt.Sprintf(format, a...))
		},
		ReadInputFunc: func(prompt string) (string, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if len(c.inputs) == 0 {
				return "", io.EOF
			}
			in := c.inputs[0]
			c.inputs = c.inputs[1:]
			return in, nil
		},
		ReadPasswordFunc: func(prompt string) (string, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if len(c.passwords) == 0 {
				return "", io.EOF
			}
			pw := c.passwords[0]
			c.passwords = c.passwords[1:]
			return pw, nil
		},
		WriteFunc: func(p []byte) (int, error) {
			c.add(string(p))
			return len(p), nil
		},
	}
}

func (c *console) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, s)
}

func (c *console) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}

func joinArgs(args []any) string {
	str := ""
	for i, a := range args {
		if i > 0 {
			str += " "
		}
		str += fmt.Sprintf("%v", a)
	}
	return str
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// staticSession отдаёт engine уже установленную сессию alice
type staticSession struct{}

func (staticSession) CurrentIdentity() (models.Identity, bool)       { return alice, true }
func (staticSession) OnSessionChange(fn func(models.Identity, bool)) {}

type testEnv struct {
	cli     *Cli
	console *console
	io      *iocli.IOMock
	backend *replicatest.Backend
	feed    *replicatest.Feed
	session *SessionMock
}

func newTestEnv(t *testing.T, inputs ...string) *testEnv {
	t.Helper()

	logger := setupTestLogger()
	backend := replicatest.NewBackend()
	feed := backend.NewFeed()
	engine := replica.New(logger, backend, feed, staticSession{})

	session := &SessionMock{
		ResumeFunc: func(ctx context.Context) (models.Identity, error) {
			return alice, nil
		},
	}
	out := &console{inputs: inputs}
	mockIO := out.mock()

	c := New(logger, mockIO, &AccountsMock{}, session, engine, mutation.NewCoordinator(logger, backend, engine), Passwords{})
	c.getenv = func(string) string { return "" }
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return &testEnv{cli: c, console: out, io: mockIO, backend: backend, feed: feed, session: session}
}
