package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSentryReporterEmptyDSN(t *testing.T) {
	r, err := NewSentryReporter("", "test")
	require.NoError(t, err)
	assert.IsType(t, &NopReporter{}, r)
	assert.True(t, r.Flush(time.Second))
}

func TestNewSentryReporterBadDSN(t *testing.T) {
	_, err := NewSentryReporter("not a dsn", "test")
	assert.Error(t, err)
}

func TestSentryReporterTagsRunID(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	r := newSentryReporter(client)
	r.SetRunID("20240101T000000Z-abcdef12")
	r.CaptureError(errors.New("fetch failed"), map[string]string{"symbol": "AAPL", "stage": "bronze"})
	r.CaptureError(nil, nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "20240101T000000Z-abcdef12", events[0].Tags["run_id"])
	assert.Equal(t, "AAPL", events[0].Tags["symbol"])
	assert.Equal(t, "bronze", events[0].Tags["stage"])
}

func TestMemoryReporter(t *testing.T) {
	m := NewMemoryReporter()
	m.CaptureError(errors.New("a"), nil)
	m.SetRunID("run-2")
	m.CaptureError(errors.New("b"), map[string]string{"file": "x.csv"})

	caps := m.Captures()
	require.Len(t, caps, 2)
	assert.Equal(t, "", caps[0].RunID)
	assert.Equal(t, "run-2", caps[1].RunID)
	assert.Equal(t, "x.csv", caps[1].Tags["file"])
	assert.NotNil(t, OrNop(nil))
}
