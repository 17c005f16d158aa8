package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luminancehdr/hdr-batch/internal/models"
)

// runner executes exactly one work item bound to one slot.
type runner struct {
	slot    int
	item    WorkItem
	backend Backend
	sink    Sink
}

func newRunner(slot int, item WorkItem, backend Backend, sink Sink) runner {
	return runner{slot: slot, item: item, backend: backend, sink: sink}
}

// Run never returns an error: every failure is folded into the Result.
func (r runner) Run(ctx context.Context) Result {
	res := Result{Item: r.item, Slot: r.slot}

	if err := ctx.Err(); err != nil {
		res.Outcome = models.OutcomeCancelled
		res.Err = err
		r.sink.Append(fmt.Sprintf("cancelled: %s", r.item.Name()))
		return res
	}

	start := time.Now()
	out, err := r.apply(ctx)
	res.Duration = time.Since(start)

	switch {
	case err == nil:
		res.Outcome = models.OutcomeSucceeded
		res.OutputPath = out.Path
		r.sink.Append(fmt.Sprintf("successful: %s", r.item.Name()))
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		res.Outcome = models.OutcomeCancelled
		res.Err = err
		r.sink.Append(fmt.Sprintf("cancelled: %s", r.item.Name()))
	default:
		res.Outcome = models.OutcomeFailed
		res.Err = err
		r.sink.Append(fmt.Sprintf("error: %s: %s", r.item.Name(), stripCR(err.Error())))
	}

	return res
}

func (r runner) apply(ctx context.Context) (out Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("worker panicked: %v", rec)
		}
	}()
	return r.backend.Apply(ctx, r.item)
}
