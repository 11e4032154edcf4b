package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketETL/internal/logging"
)

type captureNotifier struct{ msgs []string }

func (c *captureNotifier) Notify(_ context.Context, text string) error {
	c.msgs = append(c.msgs, text)
	return nil
}

func TestRunNowRecordsStatus(t *testing.T) {
	n := &captureNotifier{}
	s := NewScheduler(context.Background(), func(context.Context) (string, error) {
		return "3 files processed", nil
	}, n, nil)

	assert.Equal(t, "No run yet.", FormatStatus(s.Status()))
	require.True(t, s.RunNow())

	st := s.Status()
	assert.False(t, st.Running)
	assert.Equal(t, "3 files processed", st.Summary)
	assert.NoError(t, st.Err)
	assert.Contains(t, s.HandleCommand(context.Background(), "/status"), "3 files processed")
	assert.Empty(t, n.msgs)
}

func TestRunNowFailureNotifies(t *testing.T) {
	n := &captureNotifier{}
	rec := logging.NewRecorder()
	s := NewScheduler(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("store unreachable")
	}, n, rec)

	s.RunNow()
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "store unreachable")
	assert.Equal(t, 1, rec.Count("pipeline run failed"))
	assert.Contains(t, FormatStatus(s.Status()), "error: store unreachable")
}

func TestRunNowSkipsWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var runs atomic.Int32
	s := NewScheduler(context.Background(), func(context.Context) (string, error) {
		runs.Add(1)
		close(started)
		<-release
		return "", nil
	}, nil, nil)

	done := make(chan bool)
	go func() { done <- s.RunNow() }()
	<-started

	assert.False(t, s.RunNow())
	assert.Equal(t, "A run is already in progress.", s.HandleCommand(context.Background(), "/run"))
	assert.True(t, s.Status().Running)

	close(release)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, 1, s.Status().Skipped)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), func(context.Context) (string, error) { return "", nil }, nil, nil)
	assert.NoError(t, s.Register("0 30 6 * * 1-5"))
	assert.Error(t, s.Register("every day"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestCronFiresJob(t *testing.T) {
	fired := make(chan struct{}, 1)
	s := NewScheduler(context.Background(), func(context.Context) (string, error) {
		select {
		case fired <- struct{}{}:
		default:
		}
		return "", nil
	}, nil, nil)
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
}

func TestHandleCommandHelp(t *testing.T) {
	s := NewScheduler(context.Background(), func(context.Context) (string, error) { return "", nil }, nil, nil)
	assert.Contains(t, s.HandleCommand(context.Background(), "hello"), "/status")
}

func TestStopWaitsForOnDemandRuns(t *testing.T) {
	for _, trigger := range []string{"async", "command"} {
		t.Run(trigger, func(t *testing.T) {
			release := make(chan struct{})
			started := make(chan struct{})
			var finished atomic.Bool
			s := NewScheduler(context.Background(), func(context.Context) (string, error) {
				close(started)
				<-release
				finished.Store(true)
				return "", nil
			}, nil, nil)
			s.Start()

			if trigger == "async" {
				s.RunAsync()
			} else {
				assert.Equal(t, "Pipeline run started.", s.HandleCommand(context.Background(), "/run"))
			}
			<-started

			stopped := make(chan struct{})
			go func() {
				s.Stop()
				close(stopped)
			}()

			select {
			case <-stopped:
				t.Fatal("Stop returned while the run was still in progress")
			case <-time.After(100 * time.Millisecond):
			}

			close(release)
			select {
			case <-stopped:
			case <-time.After(3 * time.Second):
				t.Fatal("Stop did not return after the run finished")
			}
			assert.True(t, finished.Load())
		})
	}
}
