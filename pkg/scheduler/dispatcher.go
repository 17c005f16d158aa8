package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luminancehdr/hdr-batch/internal/models"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

type completion struct {
	slot   int
	result Result
}

// batch holds the state of one Start call.
type batch struct {
	items       []WorkItem
	cursor      int
	progress    int
	results     []Result
	pool        *SlotPool
	cancelled   bool
	ctx         context.Context
	cancel      context.CancelFunc
	completions chan completion
	summary     chan Summary
	done        chan struct{}
	wg          sync.WaitGroup
	startedAt   time.Time
}

type Option func(*Dispatcher)

func WithLogSink(s Sink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sink = s
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// Dispatcher feeds a fixed queue of work items into a bounded slot pool.
type Dispatcher struct {
	backend  Backend
	sink     Sink
	observer Observer
	logger   *zap.SugaredLogger

	mu    sync.Mutex
	state models.BatchState
	b     *batch
	last  *Summary
}

func NewDispatcher(backend Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:  backend,
		sink:     nopSink{},
		observer: NopObserver{},
		logger:   zap.S().Named("dispatcher"),
		state:    models.BatchStateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins a batch over items with at most capacity concurrent runners.
// The returned future receives the summary once every slot is free again;
// Stop on the future cancels the batch.
func (d *Dispatcher) Start(ctx context.Context, items []WorkItem, capacity int) (*Future[Summary], error) {
	if capacity < 1 {
		return nil, srvErrors.NewConfigurationError("worker capacity must be at least 1, got %d", capacity)
	}

	d.mu.Lock()
	if d.state != models.BatchStateIdle {
		d.mu.Unlock()
		return nil, srvErrors.NewBatchInProgressError()
	}

	queue := make([]WorkItem, len(items))
	for i, it := range items {
		it.Index = i
		queue[i] = it
	}

	bctx, cancel := context.WithCancel(ctx)
	b := &batch{
		items:       queue,
		results:     make([]Result, len(queue)),
		pool:        NewSlotPool(capacity),
		ctx:         bctx,
		cancel:      cancel,
		completions: make(chan completion, capacity),
		summary:     make(chan Summary, 1),
		done:        make(chan struct{}),
		startedAt:   time.Now(),
	}
	d.b = b
	d.last = nil
	d.state = models.BatchStateRunning
	d.logger.Infow("batch started", "items", len(queue), "capacity", capacity)

	go d.run(b)
	d.dispatchLocked()
	d.mu.Unlock()

	return NewFuture(b.summary, func() { d.cancelBatch(b) }), nil
}

// run is the batch event loop. Every completion releases a slot and
// triggers another dispatch step; it exits once the batch is done.
func (d *Dispatcher) run(b *batch) {
	ctxDone := b.ctx.Done()
	for {
		select {
		case c := <-b.completions:
			d.complete(b, c)
		case <-ctxDone:
			ctxDone = nil
			d.cancelBatch(b)
		case <-b.done:
			return
		}
	}
}

func (d *Dispatcher) complete(b *batch, c completion) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b.progress++
	b.results[c.result.Item.Index] = c.result
	d.observer.OnProgress(1)

	if err := b.pool.Release(c.slot); err != nil {
		panic(err)
	}
	d.observer.OnSlotReleased(c.slot)

	d.dispatchLocked()
}

func (d *Dispatcher) dispatchStep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatchLocked()
}

// dispatchLocked starts runners while a slot is free and the queue is not
// exhausted, then checks for completion. It is a no-op when neither can change.
func (d *Dispatcher) dispatchLocked() {
	b := d.b
	if b == nil || d.state == models.BatchStateIdle {
		return
	}

	for !b.cancelled && b.cursor < len(b.items) {
		slot, ok := b.pool.TryAcquire()
		if !ok {
			return
		}

		item := b.items[b.cursor]
		b.cursor++
		d.observer.OnStarted(slot, item.Index)

		r := newRunner(slot, item, d.backend, d.sink)
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.completions <- completion{slot: slot, result: r.Run(b.ctx)}
		}()
	}

	if b.cursor > len(b.items) {
		panic(srvErrors.NewInvariantViolationError("cursor %d beyond queue length %d", b.cursor, len(b.items)))
	}

	if !b.pool.AllFree() {
		d.state = models.BatchStateDraining
		return
	}
	d.finishLocked(b)
}

func (d *Dispatcher) finishLocked(b *batch) {
	summary := d.summarize(b)
	d.state = models.BatchStateIdle
	d.last = &summary

	if summary.NotStarted > 0 {
		d.sink.Append(fmt.Sprintf("Batch cancelled: %d item(s) not started.", summary.NotStarted))
	}
	d.sink.Append("All tasks completed.")
	d.sink.Append(summary.String())
	d.logger.Infow("batch completed",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
		"not_started", summary.NotStarted,
		"elapsed", summary.Elapsed)

	d.observer.OnCompleted(summary)
	b.cancel()
	b.summary <- summary
	close(b.done)
}

func (d *Dispatcher) summarize(b *batch) Summary {
	s := Summary{
		Total:      len(b.items),
		NotStarted: len(b.items) - b.cursor,
		Results:    make([]Result, b.cursor),
		Elapsed:    time.Since(b.startedAt),
	}
	copy(s.Results, b.results[:b.cursor])

	for _, r := range s.Results {
		switch r.Outcome {
		case models.OutcomeSucceeded:
			s.Succeeded++
		case models.OutcomeFailed:
			s.Failed++
		case models.OutcomeCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Cancel stops dispatching new items and cancels the context of the running
// ones. Runners already inside a backend call are allowed to finish.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	b := d.b
	d.mu.Unlock()

	if b != nil {
		d.cancelBatch(b)
	}
}

func (d *Dispatcher) cancelBatch(b *batch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.b != b || d.state == models.BatchStateIdle || b.cancelled {
		return
	}
	b.cancelled = true
	b.cancel()
	d.logger.Infow("batch cancelled", "dispatched", b.cursor, "total", len(b.items))

	d.dispatchLocked()
}

// Close cancels the current batch and waits for its runners to return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	b := d.b
	d.mu.Unlock()

	if b == nil {
		return
	}
	d.cancelBatch(b)
	<-b.done
	b.wg.Wait()
}

// Running reports whether a batch is in progress. A running batch cannot be reset.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state != models.BatchStateIdle
}

// Done returns a channel closed when the current batch completes.
func (d *Dispatcher) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.b == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return d.b.done
}

func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Status{State: d.state}
	if d.b == nil {
		return s
	}
	s.Total = len(d.b.items)
	s.Cursor = d.b.cursor
	s.Progress = d.b.progress
	s.Capacity = d.b.pool.Capacity()
	s.FreeSlots = d.b.pool.Free()
	s.InFlight = s.Capacity - s.FreeSlots
	return s
}

// Results returns the results of the items finished so far, by queue index.
// Entries for items that have not finished have an empty Outcome.
func (d *Dispatcher) Results() []Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.b == nil {
		return nil
	}
	out := make([]Result, len(d.b.results))
	copy(out, d.b.results)
	return out
}

// LastSummary returns the summary of the most recent completed batch.
func (d *Dispatcher) LastSummary() (Summary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.last == nil {
		return Summary{}, false
	}
	return *d.last, true
}
