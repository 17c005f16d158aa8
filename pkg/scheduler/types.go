package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/luminancehdr/hdr-batch/internal/models"
)

// WorkItem is one (input file, settings) pair. Index is its position in the queue.
type WorkItem struct {
	Index     int
	InputPath string
	Options   *models.ToneMappingOptions
	OutputDir string
}

// Name is the human readable label used in log lines.
func (w WorkItem) Name() string {
	base := filepath.Base(w.InputPath)
	if w.Options == nil {
		return base
	}
	return fmt.Sprintf("%s with %s", base, w.Options.Postfix())
}

// CrossProduct pairs every input with every option set, input-major.
func CrossProduct(inputs []string, options []*models.ToneMappingOptions, outputDir string) []WorkItem {
	items := make([]WorkItem, 0, len(inputs)*len(options))
	for _, in := range inputs {
		for _, opt := range options {
			items = append(items, WorkItem{
				Index:     len(items),
				InputPath: in,
				Options:   opt,
				OutputDir: outputDir,
			})
		}
	}
	return items
}

type Output struct {
	Path string
}

// Backend processes one work item. Implementations must honour ctx between
// stages but may treat each stage as atomic.
type Backend interface {
	Apply(ctx context.Context, item WorkItem) (Output, error)
}

type BackendFunc func(ctx context.Context, item WorkItem) (Output, error)

func (f BackendFunc) Apply(ctx context.Context, item WorkItem) (Output, error) {
	return f(ctx, item)
}

type Result struct {
	Item       WorkItem
	Slot       int
	Outcome    models.Outcome
	OutputPath string
	Err        error
	Duration   time.Duration
}

type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	Cancelled  int
	NotStarted int
	Results    []Result
	Elapsed    time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d cancelled, %d not started", s.Succeeded, s.Failed, s.Cancelled, s.NotStarted)
}

// Status is a point in time snapshot of the dispatcher.
type Status struct {
	State     models.BatchState
	Total     int
	Cursor    int
	Progress  int
	InFlight  int
	FreeSlots int
	Capacity  int
}

// Sink receives human readable log lines. It must be safe for concurrent use.
type Sink interface {
	Append(msg string)
}

type nopSink struct{}

func (nopSink) Append(string) {}

// Observer receives the dispatcher signals. Calls are serialized and are made
// while the dispatcher holds its lock, so an Observer must not call back into
// the Dispatcher.
type Observer interface {
	OnStarted(slot, index int)
	OnProgress(delta int)
	OnSlotReleased(slot int)
	OnCompleted(summary Summary)
}

type NopObserver struct{}

func (NopObserver) OnStarted(int, int)  {}
func (NopObserver) OnProgress(int)      {}
func (NopObserver) OnSlotReleased(int)  {}
func (NopObserver) OnCompleted(Summary) {}

type Future[T any] struct {
	input  chan T
	cancel context.CancelFunc
}

func NewFuture[T any](input chan T, cancel context.CancelFunc) *Future[T] {
	f := &Future[T]{
		input:  input,
		cancel: cancel,
	}

	return f
}

func (f *Future[T]) C() chan T {
	return f.input
}

func (f *Future[T]) Stop() {
	f.cancel()
}

// stripCR keeps backend messages on one log line.
func stripCR(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", ""), "\n", " ")
}
