package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luminancehdr/hdr-batch/internal/models"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
	"github.com/luminancehdr/hdr-batch/pkg/logsink"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
)

// recorder is an Observer that keeps every signal it receives.
type recorder struct {
	mu        sync.Mutex
	started   []int
	progress  int
	released  []int
	completed int
	summary   scheduler.Summary
}

func (r *recorder) OnStarted(slot, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, index)
}

func (r *recorder) OnProgress(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress += delta
}

func (r *recorder) OnSlotReleased(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, slot)
}

func (r *recorder) OnCompleted(s scheduler.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	r.summary = s
}

func (r *recorder) Started() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.started))
	copy(out, r.started)
	return out
}

func (r *recorder) Progress() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *recorder) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

func (r *recorder) Released() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.released)
}

// gatedBackend blocks every item until its gate is closed or ctx is done.
type gatedBackend struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	finished []string
}

func newGatedBackend(names ...string) *gatedBackend {
	g := &gatedBackend{gates: map[string]chan struct{}{}}
	for _, n := range names {
		g.gates[n] = make(chan struct{})
	}
	return g
}

func (g *gatedBackend) Open(name string) {
	close(g.gates[name])
}

func (g *gatedBackend) Finished() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.finished))
	copy(out, g.finished)
	return out
}

func (g *gatedBackend) Apply(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
	select {
	case <-g.gates[item.InputPath]:
	case <-ctx.Done():
		return scheduler.Output{}, ctx.Err()
	}
	g.mu.Lock()
	g.finished = append(g.finished, item.InputPath)
	g.mu.Unlock()
	return scheduler.Output{Path: item.InputPath + ".jpg"}, nil
}

func itemsFor(names ...string) []scheduler.WorkItem {
	opts := []*models.ToneMappingOptions{{Name: "reinhard", Operator: models.OperatorReinhard05}}
	return scheduler.CrossProduct(names, opts, "/out")
}

func numberedItems(n int) []scheduler.WorkItem {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("img%03d.hdr", i)
	}
	return itemsFor(names...)
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx  context.Context
		sink *logsink.Sink
		rec  *recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		sink = logsink.New()
		rec = &recorder{}
	})

	Describe("Start", func() {
		It("should reject a capacity below one", func() {
			d := scheduler.NewDispatcher(scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				return scheduler.Output{}, nil
			}))

			_, err := d.Start(ctx, numberedItems(2), 0)
			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsConfigurationError(err)).To(BeTrue())
			Expect(d.Status().State).To(Equal(models.BatchStateIdle))
		})

		It("should refuse a second batch while one is running", func() {
			g := newGatedBackend("a.hdr")
			d := scheduler.NewDispatcher(g)

			future, err := d.Start(ctx, itemsFor("a.hdr"), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Running()).To(BeTrue())

			_, err = d.Start(ctx, itemsFor("a.hdr"), 1)
			Expect(srvErrors.IsBatchInProgressError(err)).To(BeTrue())

			g.Open("a.hdr")
			Eventually(future.C(), 2*time.Second).Should(Receive())
			Expect(d.Running()).To(BeFalse())
		})

		It("should complete an empty queue immediately", func() {
			d := scheduler.NewDispatcher(newGatedBackend(), scheduler.WithLogSink(sink), scheduler.WithObserver(rec))

			future, err := d.Start(ctx, nil, 1)
			Expect(err).NotTo(HaveOccurred())

			var summary scheduler.Summary
			Eventually(future.C(), time.Second).Should(Receive(&summary))
			Expect(summary.Total).To(Equal(0))
			Expect(rec.Progress()).To(Equal(0))
			Expect(rec.Completed()).To(Equal(1))
			Expect(sink.Messages()).To(ContainElement("All tasks completed."))
			Eventually(d.Done()).Should(BeClosed())
		})

		It("should allow a new batch once the previous one completed", func() {
			d := scheduler.NewDispatcher(scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				return scheduler.Output{}, nil
			}))

			for i := 0; i < 3; i++ {
				future, err := d.Start(ctx, numberedItems(3), 2)
				Expect(err).NotTo(HaveOccurred())
				Eventually(future.C(), 2*time.Second).Should(Receive())
			}
		})
	})

	Describe("Bounded concurrency", func() {
		DescribeTable("should start and finish every item with at most capacity in flight",
			func(capacity, n int) {
				var inFlight, maxInFlight, calls int32
				backend := scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
					cur := atomic.AddInt32(&inFlight, 1)
					for {
						old := atomic.LoadInt32(&maxInFlight)
						if cur <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, cur) {
							break
						}
					}
					atomic.AddInt32(&calls, 1)
					time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
					atomic.AddInt32(&inFlight, -1)
					return scheduler.Output{}, nil
				})

				d := scheduler.NewDispatcher(backend, scheduler.WithObserver(rec))
				future, err := d.Start(ctx, numberedItems(n), capacity)
				Expect(err).NotTo(HaveOccurred())

				var summary scheduler.Summary
				Eventually(future.C(), 5*time.Second).Should(Receive(&summary))

				Expect(atomic.LoadInt32(&calls)).To(BeEquivalentTo(n))
				Expect(rec.Started()).To(HaveLen(n))
				Expect(rec.Released()).To(Equal(n))
				Expect(rec.Progress()).To(Equal(n))
				Expect(atomic.LoadInt32(&maxInFlight)).To(BeNumerically("<=", capacity))
				Expect(summary.Succeeded).To(Equal(n))

				status := d.Status()
				Expect(status.Cursor).To(Equal(n))
				Expect(status.FreeSlots).To(Equal(capacity))
				Expect(status.State).To(Equal(models.BatchStateIdle))
			},
			Entry("capacity 1, no items", 1, 0),
			Entry("capacity 1, 5 items", 1, 5),
			Entry("capacity 2, 1 item", 2, 1),
			Entry("capacity 3, 20 items", 3, 20),
			Entry("capacity 8, 5 items", 8, 5),
			Entry("capacity 8, 100 items", 8, 100),
		)
	})

	Describe("Ordering", func() {
		It("should dispatch items in queue order", func() {
			backend := scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				time.Sleep(time.Duration(rand.Intn(4)) * time.Millisecond)
				return scheduler.Output{}, nil
			})
			d := scheduler.NewDispatcher(backend, scheduler.WithObserver(rec))

			future, err := d.Start(ctx, numberedItems(40), 4)
			Expect(err).NotTo(HaveOccurred())
			Eventually(future.C(), 5*time.Second).Should(Receive())

			started := rec.Started()
			for i := range started {
				Expect(started[i]).To(Equal(i))
			}
		})

		It("should accept completions in any order", func() {
			g := newGatedBackend("a.hdr", "b.hdr", "c.hdr")
			d := scheduler.NewDispatcher(g, scheduler.WithObserver(rec))

			future, err := d.Start(ctx, itemsFor("a.hdr", "b.hdr", "c.hdr"), 3)
			Expect(err).NotTo(HaveOccurred())
			Eventually(rec.Started).Should(HaveLen(3))

			g.Open("c.hdr")
			Eventually(g.Finished).Should(Equal([]string{"c.hdr"}))
			g.Open("a.hdr")
			Eventually(g.Finished).Should(HaveLen(2))
			g.Open("b.hdr")

			var summary scheduler.Summary
			Eventually(future.C(), 2*time.Second).Should(Receive(&summary))
			Expect(g.Finished()).To(Equal([]string{"c.hdr", "a.hdr", "b.hdr"}))
			Expect(summary.Succeeded).To(Equal(3))
			Expect(summary.Results[0].Item.InputPath).To(Equal("a.hdr"))
			Expect(summary.Results[2].Item.InputPath).To(Equal("c.hdr"))
		})
	})

	Describe("Refilling freed slots", func() {
		It("should start C and D only as A and B finish", func() {
			g := newGatedBackend("A", "B", "C", "D")
			d := scheduler.NewDispatcher(g, scheduler.WithObserver(rec), scheduler.WithLogSink(sink))

			future, err := d.Start(ctx, itemsFor("A", "B", "C", "D"), 2)
			Expect(err).NotTo(HaveOccurred())

			Eventually(rec.Started).Should(Equal([]int{0, 1}))
			Consistently(rec.Started, 100*time.Millisecond).Should(HaveLen(2))
			Expect(d.Status().FreeSlots).To(Equal(0))

			g.Open("A")
			Eventually(rec.Started).Should(Equal([]int{0, 1, 2}))
			Consistently(rec.Started, 50*time.Millisecond).Should(HaveLen(3))

			g.Open("B")
			Eventually(rec.Started).Should(Equal([]int{0, 1, 2, 3}))
			Eventually(func() models.BatchState { return d.Status().State }).Should(Equal(models.BatchStateDraining))

			g.Open("C")
			g.Open("D")

			var summary scheduler.Summary
			Eventually(future.C(), 2*time.Second).Should(Receive(&summary))
			Expect(summary.Succeeded).To(Equal(4))

			status := d.Status()
			Expect(status.Cursor).To(Equal(4))
			Expect(status.FreeSlots).To(Equal(2))
			Expect(status.Progress).To(Equal(4))
			Expect(status.State).To(Equal(models.BatchStateIdle))
			Expect(sink.Messages()).To(ContainElement("All tasks completed."))
		})
	})

	Describe("Failures", func() {
		It("should isolate a failing item", func() {
			backend := scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				if item.InputPath == "missing.hdr" {
					return scheduler.Output{}, errors.New("open missing.hdr: no such file or directory")
				}
				return scheduler.Output{Path: item.InputPath + ".jpg"}, nil
			})
			d := scheduler.NewDispatcher(backend, scheduler.WithLogSink(sink), scheduler.WithObserver(rec))

			future, err := d.Start(ctx, itemsFor("a.hdr", "missing.hdr", "c.hdr"), 2)
			Expect(err).NotTo(HaveOccurred())

			var summary scheduler.Summary
			Eventually(future.C(), 2*time.Second).Should(Receive(&summary))

			errLines, err := sink.Filter(logsink.FilterErrors)
			Expect(err).NotTo(HaveOccurred())
			Expect(errLines).To(HaveLen(1))
			Expect(errLines[0].Message).To(ContainSubstring("missing.hdr"))

			Expect(rec.Progress()).To(Equal(3))
			Expect(rec.Completed()).To(Equal(1))
			Expect(summary.Succeeded).To(Equal(2))
			Expect(summary.Failed).To(Equal(1))
			Expect(summary.Results[1].Outcome).To(Equal(models.OutcomeFailed))
			Expect(summary.Results[1].Err).To(HaveOccurred())
		})

		It("should turn a backend panic into a failed result", func() {
			backend := scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				panic("boom")
			})
			d := scheduler.NewDispatcher(backend, scheduler.WithLogSink(sink))

			future, err := d.Start(ctx, numberedItems(2), 1)
			Expect(err).NotTo(HaveOccurred())

			var summary scheduler.Summary
			Eventually(future.C(), 2*time.Second).Should(Receive(&summary))
			Expect(summary.Failed).To(Equal(2))
			Expect(summary.Results[0].Err).To(MatchError(ContainSubstring("worker panicked")))
		})
	})

	Describe("Idempotent dispatch step", func() {
		It("should do nothing when no slot is free", func() {
			g := newGatedBackend("a.hdr", "b.hdr")
			d := scheduler.NewDispatcher(g, scheduler.WithObserver(rec), scheduler.WithLogSink(sink))

			future, err := d.Start(ctx, itemsFor("a.hdr", "b.hdr"), 1)
			Expect(err).NotTo(HaveOccurred())
			Eventually(rec.Started).Should(HaveLen(1))

			before := d.Status()
			logLen := sink.Len()
			for i := 0; i < 5; i++ {
				d.DispatchStep()
			}
			Expect(d.Status()).To(Equal(before))
			Expect(rec.Started()).To(HaveLen(1))
			Expect(sink.Len()).To(Equal(logLen))

			g.Open("a.hdr")
			g.Open("b.hdr")
			Eventually(future.C(), 2*time.Second).Should(Receive())
		})

		It("should not emit a second completion once the queue is done", func() {
			d := scheduler.NewDispatcher(scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				return scheduler.Output{}, nil
			}), scheduler.WithObserver(rec), scheduler.WithLogSink(sink))

			future, err := d.Start(ctx, numberedItems(3), 2)
			Expect(err).NotTo(HaveOccurred())
			Eventually(future.C(), 2*time.Second).Should(Receive())

			before := d.Status()
			logLen := sink.Len()
			d.DispatchStep()
			d.DispatchStep()

			Expect(d.Status()).To(Equal(before))
			Expect(rec.Completed()).To(Equal(1))
			Expect(sink.Len()).To(Equal(logLen))
		})

		It("should stay draining while runners are in flight", func() {
			g := newGatedBackend("a.hdr")
			d := scheduler.NewDispatcher(g, scheduler.WithObserver(rec))

			future, err := d.Start(ctx, itemsFor("a.hdr"), 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status().State).To(Equal(models.BatchStateDraining))

			d.DispatchStep()
			Expect(d.Status().State).To(Equal(models.BatchStateDraining))
			Expect(rec.Completed()).To(Equal(0))

			g.Open("a.hdr")
			Eventually(future.C(), 2*time.Second).Should(Receive())
		})
	})

	Describe("Cancellation", func() {
		It("should stop dispatching and report undispatched items", func() {
			g := newGatedBackend("a.hdr", "b.hdr", "c.hdr")
			d := scheduler.NewDispatcher(g, scheduler.WithObserver(rec), scheduler.WithLogSink(sink))

			future, err := d.Start(ctx, itemsFor("a.hdr", "b.hdr", "c.hdr"), 1)
			Expect(err).NotTo(HaveOccurred())
			Eventually(rec.Started).Should(HaveLen(1))

			future.Stop()

			var summary scheduler.Summary
			Eventually(future.C(), 2*time.Second).Should(Receive(&summary))
			Expect(summary.Cancelled).To(Equal(1))
			Expect(summary.NotStarted).To(Equal(2))
			Expect(rec.Started()).To(HaveLen(1))
			Expect(d.Status().Cursor).To(Equal(1))
			Expect(d.Status().State).To(Equal(models.BatchStateIdle))
			Expect(sink.Messages()).To(ContainElement("All tasks completed."))
		})

		It("should let a runner inside the backend finish", func() {
			entered := make(chan struct{})
			release := make(chan struct{})
			backend := scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				close(entered)
				<-release
				return scheduler.Output{Path: "done"}, nil
			})
			d := scheduler.NewDispatcher(backend)

			future, err := d.Start(ctx, numberedItems(2), 1)
			Expect(err).NotTo(HaveOccurred())
			Eventually(entered).Should(BeClosed())

			d.Cancel()
			Consistently(future.C(), 100*time.Millisecond).ShouldNot(Receive())
			close(release)

			var summary scheduler.Summary
			Eventually(future.C(), 2*time.Second).Should(Receive(&summary))
			Expect(summary.Succeeded).To(Equal(1))
			Expect(summary.NotStarted).To(Equal(1))
		})

		It("should cancel when the parent context is cancelled", func() {
			g := newGatedBackend("a.hdr", "b.hdr")
			d := scheduler.NewDispatcher(g)

			cctx, cancel := context.WithCancel(ctx)
			future, err := d.Start(cctx, itemsFor("a.hdr", "b.hdr"), 1)
			Expect(err).NotTo(HaveOccurred())

			cancel()

			var summary scheduler.Summary
			Eventually(future.C(), 2*time.Second).Should(Receive(&summary))
			Expect(summary.Cancelled + summary.NotStarted).To(Equal(2))
		})

		It("should wait for in-flight runners on Close", func() {
			entered := make(chan struct{})
			release := make(chan struct{})
			backend := scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				close(entered)
				<-release
				return scheduler.Output{}, nil
			})
			d := scheduler.NewDispatcher(backend)

			_, err := d.Start(ctx, numberedItems(1), 1)
			Expect(err).NotTo(HaveOccurred())
			Eventually(entered).Should(BeClosed())

			closeDone := make(chan struct{})
			go func() {
				d.Close()
				close(closeDone)
			}()

			Consistently(closeDone, 100*time.Millisecond).ShouldNot(BeClosed())
			close(release)
			Eventually(closeDone, time.Second).Should(BeClosed())
		})
	})

	Describe("LastSummary", func() {
		It("should hold the summary of the last completed batch only", func() {
			hold := make(chan struct{})
			d := scheduler.NewDispatcher(scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
				if item.OutputDir == "/hold" {
					<-hold
				}
				return scheduler.Output{}, nil
			}))
			defer d.Close()

			_, ok := d.LastSummary()
			Expect(ok).To(BeFalse())

			future, err := d.Start(ctx, numberedItems(2), 2)
			Expect(err).NotTo(HaveOccurred())
			Eventually(future.C(), 2*time.Second).Should(Receive())

			last, ok := d.LastSummary()
			Expect(ok).To(BeTrue())
			Expect(last.Total).To(Equal(2))
			Expect(last.Succeeded).To(Equal(2))

			held := numberedItems(3)
			for i := range held {
				held[i].OutputDir = "/hold"
			}
			future, err = d.Start(ctx, held, 1)
			Expect(err).NotTo(HaveOccurred())
			_, ok = d.LastSummary()
			Expect(ok).To(BeFalse())

			close(hold)
			Eventually(future.C(), 2*time.Second).Should(Receive())
			last, ok = d.LastSummary()
			Expect(ok).To(BeTrue())
			Expect(last.Total).To(Equal(3))
		})
	})

	Describe("CrossProduct", func() {
		It("should pair inputs and options input-major with positional indexes", func() {
			opts := []*models.ToneMappingOptions{{Name: "x"}, {Name: "y"}}
			items := scheduler.CrossProduct([]string{"a.hdr", "b.hdr"}, opts, "/out")

			Expect(items).To(HaveLen(4))
			Expect(items[1].InputPath).To(Equal("a.hdr"))
			Expect(items[1].Options.Name).To(Equal("y"))
			Expect(items[2].InputPath).To(Equal("b.hdr"))
			for i, it := range items {
				Expect(it.Index).To(Equal(i))
				Expect(it.OutputDir).To(Equal("/out"))
			}
		})

		It("should be empty when either side is empty", func() {
			Expect(scheduler.CrossProduct(nil, []*models.ToneMappingOptions{{}}, "/out")).To(BeEmpty())
			Expect(scheduler.CrossProduct([]string{"a"}, nil, "/out")).To(BeEmpty())
		})
	})
})
