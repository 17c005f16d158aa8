// Package scheduler implements the batch dispatcher used for tone mapping.
//
// A Dispatcher is handed the whole ordered queue of work items up front and
// feeds them, strictly in order, into a fixed-size pool of slots. Each slot
// runs one job at a time on its own goroutine. When a job finishes its slot is
// released and the dispatcher immediately tries to dispatch again, until the
// queue is exhausted and every slot is free.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                           Dispatcher                                │
//	│                                                                     │
//	│  ┌──────────────┐      ┌──────────────┐      ┌──────────────┐       │
//	│  │   Slot 0     │      │   Slot 1     │      │   Slot N-1   │       │
//	│  │  (runner)    │      │  (runner)    │      │  (free)      │       │
//	│  └──────┬───────┘      └──────┬───────┘      └──────────────┘       │
//	│         │ completion          │ completion          ▲               │
//	│         └─────────────────────┼─────────────────────┘               │
//	│                               ▼                                     │
//	│                        ┌─────────────┐                              │
//	│                        │   run()     │  release slot, progress++    │
//	│                        └──────┬──────┘                              │
//	│                               ▼                                     │
//	│                        ┌─────────────┐                              │
//	│                        │ dispatch    │  while free slot && cursor<N │
//	│                        │   step      │                              │
//	│                        └──────┬──────┘                              │
//	│                               │                                     │
//	│  ┌────────────────────────────┴────────────────────────────┐        │
//	│  │                      Work Queue                         │        │
//	│  │  [item0] [item1] [item2] ...          cursor ──►        │        │
//	│  └─────────────────────────────────────────────────────────┘        │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Core Components
//
// SlotPool:
//   - Fixed capacity, ids in [0, capacity)
//   - TryAcquire never blocks and always returns the lowest free id
//   - Release of an id that is not held returns an InvariantViolationError
//
// runner:
//   - Executes exactly one WorkItem through the Backend
//   - Folds every failure (backend error, panic, cancellation) into a Result
//   - Logs "successful: <name>" or "error: <name>: <reason>"
//   - Sends one completion to the event loop and exits
//
// Dispatcher:
//   - Owns the queue, the cursor and the slot pool
//   - Runs one event loop goroutine per batch
//   - Emits the Observer signals and the final Summary
//
// # Batch States
//
//	┌──────┐  Start   ┌─────────┐ queue exhausted ┌──────────┐ all slots free ┌──────┐
//	│ Idle │ ───────► │ Running │ ──────────────► │ Draining │ ─────────────► │ Idle │
//	└──────┘          └─────────┘                 └──────────┘                └──────┘
//	                       │          all slots free                              ▲
//	                       └──────────────────────────────────────────────────────┘
//
// On entry to the final Idle the dispatcher logs "All tasks completed.",
// calls Observer.OnCompleted and delivers the Summary on the future.
//
// # Dispatch Step
//
// The dispatch step runs under the dispatcher mutex at batch start and after
// every completion:
//
//	for !cancelled && cursor < len(queue) {
//	    slot, ok := pool.TryAcquire()
//	    if !ok {
//	        return                   // resumes on the next release
//	    }
//	    go runner(queue[cursor], slot)
//	    cursor++
//	}
//	if pool.AllFree() {
//	    finish()                     // Idle, summary
//	} else {
//	    state = Draining
//	}
//
// Calling it when no slot is free, or when the queue is exhausted and runners
// are still in flight, changes nothing and emits nothing.
//
// # Ordering
//
//   - The cursor only moves forward; queue[i] is dispatched no later than queue[i+1]
//   - A slot id is never bound to two live runners
//   - Completion order is not guaranteed: runners race
//   - Progress is incremented once per dispatched item, whatever its outcome
//
// # Cancellation
//
// Cancel (or Future.Stop) is cooperative:
//
//  1. No further items are dispatched; the cursor stays where it is
//  2. The batch context is cancelled
//  3. A runner that has not yet called the backend returns a cancelled result
//  4. A runner inside a backend call runs to completion (the call is opaque)
//  5. Once all slots are free the batch completes normally; undispatched
//     items are counted as NotStarted in the Summary
//
// # Usage Example
//
//	d := scheduler.NewDispatcher(backend, scheduler.WithLogSink(sink))
//	defer d.Close()
//
//	items := scheduler.CrossProduct(inputs, options, outDir)
//	future, err := d.Start(ctx, items, 4)
//	if err != nil {
//	    return err
//	}
//
//	summary := <-future.C()
//	log.Printf("%d succeeded, %d failed", summary.Succeeded, summary.Failed)
package scheduler
