package state

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const runIDLayout = "20060102T150405Z"

// NewRunID returns a token unique to one pipeline invocation, e.g.
// 20240101T063000Z-3f2a9c1b. It sorts by start time.
func NewRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.UTC().Format(runIDLayout) + "-" + suffix
}
