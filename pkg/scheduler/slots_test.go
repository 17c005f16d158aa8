package scheduler_test

import (
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
)

var _ = Describe("SlotPool", func() {
	It("should hand out the lowest free id first", func() {
		p := scheduler.NewSlotPool(3)

		for want := 0; want < 3; want++ {
			id, ok := p.TryAcquire()
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(want))
		}
		Expect(p.Free()).To(Equal(0))

		Expect(p.Release(1)).To(Succeed())
		id, ok := p.TryAcquire()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(1))
	})

	It("should fail fast when no slot is free", func() {
		p := scheduler.NewSlotPool(1)

		_, ok := p.TryAcquire()
		Expect(ok).To(BeTrue())

		id, ok := p.TryAcquire()
		Expect(ok).To(BeFalse())
		Expect(id).To(Equal(-1))
	})

	It("should reject releasing a slot that is not held", func() {
		p := scheduler.NewSlotPool(2)

		err := p.Release(0)
		Expect(err).To(HaveOccurred())
		Expect(srvErrors.IsInvariantViolationError(err)).To(BeTrue())
		Expect(p.Free()).To(Equal(2))
	})

	It("should reject a double release", func() {
		p := scheduler.NewSlotPool(2)

		id, _ := p.TryAcquire()
		Expect(p.Release(id)).To(Succeed())

		err := p.Release(id)
		Expect(srvErrors.IsInvariantViolationError(err)).To(BeTrue())
		Expect(p.Free()).To(Equal(2))
	})

	It("should reject out of range ids", func() {
		p := scheduler.NewSlotPool(2)

		Expect(srvErrors.IsInvariantViolationError(p.Release(-1))).To(BeTrue())
		Expect(srvErrors.IsInvariantViolationError(p.Release(2))).To(BeTrue())
	})

	It("should panic on a non-positive capacity", func() {
		Expect(func() { scheduler.NewSlotPool(0) }).To(Panic())
	})

	It("should never give the same id to two concurrent holders", func() {
		const capacity = 4
		const goroutines = 32
		const rounds = 200

		p := scheduler.NewSlotPool(capacity)
		var holders [capacity]int32
		var violations int32
		var outOfBounds int32

		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for r := 0; r < rounds; r++ {
					id, ok := p.TryAcquire()
					if free := p.Free(); free < 0 || free > capacity {
						atomic.AddInt32(&outOfBounds, 1)
					}
					if !ok {
						continue
					}
					if atomic.AddInt32(&holders[id], 1) != 1 {
						atomic.AddInt32(&violations, 1)
					}
					atomic.AddInt32(&holders[id], -1)
					if err := p.Release(id); err != nil {
						atomic.AddInt32(&violations, 1)
					}
				}
			}()
		}
		wg.Wait()

		Expect(atomic.LoadInt32(&violations)).To(BeZero())
		Expect(atomic.LoadInt32(&outOfBounds)).To(BeZero())
		Expect(p.Free()).To(Equal(capacity))
	})
})
