// Package state remembers which bronze files already reached a terminal
// outcome so that re-running the pipeline over the same inputs is a no-op
// for them.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"MarketETL/internal/config"
)

// Tracker is the in-memory view of a Log for one pipeline run.
type Tracker struct {
	mu        sync.Mutex
	log       Log
	runID     string
	processed map[string]struct{}
	thisRun   []string
}

// Open loads every identifier from log.
func Open(ctx context.Context, log Log, runID string) (*Tracker, error) {
	ids, err := log.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load run state: %w", err)
	}
	t := &Tracker{
		log:       log,
		runID:     runID,
		processed: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		t.processed[id] = struct{}{}
	}
	return t, nil
}

// RunID returns the run this tracker was opened for.
func (t *Tracker) RunID() string { return t.runID }

// IsProcessed reports whether id was marked by this or any earlier run.
func (t *Tracker) IsProcessed(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.processed[id]
	return ok
}

// MarkProcessed persists id. Marking an id twice appends it once. The id is
// only considered processed once the log accepted it.
func (t *Tracker) MarkProcessed(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.processed[id]; ok {
		return nil
	}
	if err := t.log.Append(ctx, id); err != nil {
		return err
	}
	t.processed[id] = struct{}{}
	t.thisRun = append(t.thisRun, id)
	return nil
}

// MarkedThisRun returns the ids marked since Open, in order.
func (t *Tracker) MarkedThisRun() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.thisRun...)
}

// Len returns the number of known processed ids.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.processed)
}

// NewLog builds the configured Log. The returned close func releases any
// client it opened.
func NewLog(cfg config.StateConfig, path string) (Log, func() error, error) {
	switch cfg.Backend {
	case config.StateBackendFile, "":
		return NewFileLog(path), func() error { return nil }, nil
	case config.StateBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisLog(client, cfg.Redis.Key), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
