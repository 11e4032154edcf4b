package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryReporter sends captures to Sentry through its own hub.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter builds a reporter for dsn. An empty dsn returns a no-op
// reporter.
func NewSentryReporter(dsn, env string) (Reporter, error) {
	if dsn == "" {
		return Nop(), nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return newSentryReporter(client), nil
}

func newSentryReporter(client *sentry.Client) *SentryReporter {
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}
}

func (s *SentryReporter) SetRunID(id string) {
	s.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("run_id", id)
	})
}

func (s *SentryReporter) CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *SentryReporter) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}
