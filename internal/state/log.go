package state

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Log is durable, append-only storage for processed identifiers.
type Log interface {
	Load(ctx context.Context) ([]string, error)
	Append(ctx context.Context, id string) error
}

// FileLog stores one identifier per line in a plain text file.
type FileLog struct {
	path string
}

// NewFileLog returns a log backed by path. The file and its directory are
// created on first append.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the backing file.
func (l *FileLog) Path() string { return l.path }

// Load returns every identifier in file order. A missing file is an empty log.
func (l *FileLog) Load(_ context.Context) ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open state file: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return ids, nil
}

// Append writes id on its own line and syncs the file before returning.
func (l *FileLog) Append(_ context.Context, id string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	if _, err := f.WriteString(id + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", id, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync state file: %w", err)
	}
	return f.Close()
}

// RedisLog keeps processed identifiers in a Redis set, for deployments where
// several hosts share one bronze directory.
type RedisLog struct {
	client redis.UniversalClient
	key    string
}

// NewRedisLog returns a log stored under key.
func NewRedisLog(client redis.UniversalClient, key string) *RedisLog {
	return &RedisLog{client: client, key: key}
}

func (l *RedisLog) Load(ctx context.Context) ([]string, error) {
	ids, err := l.client.SMembers(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", l.key, err)
	}
	return ids, nil
}

func (l *RedisLog) Append(ctx context.Context, id string) error {
	if err := l.client.SAdd(ctx, l.key, id).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", l.key, err)
	}
	return nil
}
