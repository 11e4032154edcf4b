package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketETL/internal/config"
)

func TestNewRunID(t *testing.T) {
	now := time.Date(2024, 1, 1, 15, 30, 0, 0, time.FixedZone("X", 9*3600))
	a := NewRunID(now)
	b := NewRunID(now)

	assert.Regexp(t, regexp.MustCompile(`^20240101T063000Z-[0-9a-f]{8}$`), a)
	assert.NotEqual(t, a, b)
}

func TestFileLogMissingIsEmpty(t *testing.T) {
	l := NewFileLog(filepath.Join(t.TempDir(), "none", "processed.txt"))
	ids, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTrackerPersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "processed_files.txt")

	tr, err := Open(ctx, NewFileLog(path), "run-1")
	require.NoError(t, err)
	assert.False(t, tr.IsProcessed("AAPL_20240101.csv"))

	require.NoError(t, tr.MarkProcessed(ctx, "AAPL_20240101.csv"))
	require.NoError(t, tr.MarkProcessed(ctx, "AAPL_20240101.csv"))
	require.NoError(t, tr.MarkProcessed(ctx, "SPY_20240101.csv"))
	assert.True(t, tr.IsProcessed("AAPL_20240101.csv"))
	assert.Equal(t, []string{"AAPL_20240101.csv", "SPY_20240101.csv"}, tr.MarkedThisRun())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AAPL_20240101.csv\nSPY_20240101.csv\n", string(data))

	next, err := Open(ctx, NewFileLog(path), "run-2")
	require.NoError(t, err)
	assert.Equal(t, "run-2", next.RunID())
	assert.Equal(t, 2, next.Len())
	assert.True(t, next.IsProcessed("AAPL_20240101.csv"))
	assert.Empty(t, next.MarkedThisRun())
}

type failingLog struct{ loaded []string }

func (f *failingLog) Load(context.Context) ([]string, error) { return f.loaded, nil }
func (f *failingLog) Append(context.Context, string) error  { return errors.New("disk full") }

func TestMarkProcessedFailureLeavesUnmarked(t *testing.T) {
	ctx := context.Background()
	tr, err := Open(ctx, &failingLog{loaded: []string{"old.csv"}}, "run")
	require.NoError(t, err)

	require.Error(t, tr.MarkProcessed(ctx, "new.csv"))
	assert.False(t, tr.IsProcessed("new.csv"))
	assert.True(t, tr.IsProcessed("old.csv"))
	assert.NoError(t, tr.MarkProcessed(ctx, "old.csv"), "already processed ids are not re-appended")
}

func TestNewLog(t *testing.T) {
	l, closeFn, err := NewLog(config.StateConfig{Backend: config.StateBackendFile}, "x.txt")
	require.NoError(t, err)
	assert.IsType(t, &FileLog{}, l)
	assert.NoError(t, closeFn())

	_, _, err = NewLog(config.StateConfig{Backend: "etcd"}, "x.txt")
	assert.Error(t, err)
}

func TestRedisLog(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}

	key := "marketetl:test:" + NewRunID(time.Now())
	defer client.Del(context.Background(), key)

	l := NewRedisLog(client, key)
	tr, err := Open(context.Background(), l, "run")
	require.NoError(t, err)
	require.NoError(t, tr.MarkProcessed(context.Background(), "AAPL_1.csv"))

	ids, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL_1.csv"}, ids)
}
