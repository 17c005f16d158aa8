// Package logsink implements the append-only batch log.
//
// Appends are serialized under a single mutex: every entry gets a sequence
// number in the order it was accepted, and hooks run while the lock is held so
// they observe the same total order. Filter is a pure projection over the
// entries and never mutates them.
package logsink

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Presets used by the batch views.
const (
	FilterAll        = ".*"
	FilterErrors     = "error"
	FilterSuccessful = "successful"
)

type Entry struct {
	Seq     int
	Time    time.Time
	Message string
}

type Option func(*Sink)

// WithLogger mirrors every entry to the given logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Sink) {
		s.logger = l
	}
}

// WithHook registers fn to be called for every appended entry.
// Hooks must not call back into the sink.
func WithHook(fn func(Entry)) Option {
	return func(s *Sink) {
		s.hooks = append(s.hooks, fn)
	}
}

type Sink struct {
	mu      sync.Mutex
	entries []Entry
	hooks   []func(Entry)
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func New(opts ...Option) *Sink {
	s := &Sink{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Append(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{Seq: len(s.entries), Time: s.now(), Message: msg}
	s.entries = append(s.entries, e)

	if s.logger != nil {
		s.logger.Infow(msg, "seq", e.Seq)
	}
	for _, h := range s.hooks {
		h(e)
	}
}

func (s *Sink) Appendf(format string, args ...any) {
	s.Append(fmt.Sprintf(format, args...))
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of all entries in append order.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Messages returns the messages only, in append order.
func (s *Sink) Messages() []string {
	entries := s.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

// Filter returns the entries whose message matches pattern, case-insensitively.
// An empty pattern matches everything.
func (s *Sink) Filter(pattern string) ([]Entry, error) {
	if pattern == "" {
		pattern = FilterAll
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid log filter %q: %w", pattern, err)
	}

	var out []Entry
	for _, e := range s.Entries() {
		if re.MatchString(e.Message) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Reset drops all entries. It is used between batches.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
