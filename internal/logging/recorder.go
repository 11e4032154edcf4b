package logging

import (
	"fmt"
	"sync"
)

// Entry is one captured log call.
type Entry struct {
	Level string
	Msg   string
	Attrs map[string]any
}

// Recorder is a Logger that keeps every entry in memory. Tests use it to
// assert on emitted events.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Debug(msg string, args ...any) { r.add("DEBUG", msg, args) }
func (r *Recorder) Info(msg string, args ...any)  { r.add("INFO", msg, args) }
func (r *Recorder) Warn(msg string, args ...any)  { r.add("WARN", msg, args) }
func (r *Recorder) Error(msg string, args ...any) { r.add("ERROR", msg, args) }

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Find returns the first entry with the given message.
func (r *Recorder) Find(msg string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Msg == msg {
			return e, true
		}
	}
	return Entry{}, false
}

// Count returns how many entries carry the given message.
func (r *Recorder) Count(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Msg == msg {
			n++
		}
	}
	return n
}

func (r *Recorder) add(level, msg string, args []any) {
	attrs := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		attrs[fmt.Sprint(args[i])] = args[i+1]
	}
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Attrs: attrs})
	r.mu.Unlock()
}
