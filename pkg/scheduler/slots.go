package scheduler

import (
	"sync"

	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

// SlotPool hands out exclusive slot ids in [0, capacity).
// The free counter and the bitmap are guarded by the same mutex, so
// free + held == capacity after every call.
type SlotPool struct {
	mu    sync.Mutex
	free  int
	slots []bool // true means free
}

func NewSlotPool(capacity int) *SlotPool {
	if capacity < 1 {
		panic(srvErrors.NewInvariantViolationError("slot pool capacity must be positive, got %d", capacity))
	}
	p := &SlotPool{
		free:  capacity,
		slots: make([]bool, capacity),
	}
	for i := range p.slots {
		p.slots[i] = true
	}
	return p
}

// TryAcquire reserves the lowest free slot. It never blocks.
func (p *SlotPool) TryAcquire() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.free == 0 {
		return -1, false
	}
	for id, free := range p.slots {
		if free {
			p.slots[id] = false
			p.free--
			return id, true
		}
	}
	panic(srvErrors.NewInvariantViolationError("free count is %d but no slot is marked free", p.free))
}

// Release returns a held slot to the pool. Releasing an id that is not held
// is reported as an invariant violation and leaves the pool untouched.
func (p *SlotPool) Release(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id < 0 || id >= len(p.slots) {
		return srvErrors.NewInvariantViolationError("slot %d out of range [0,%d)", id, len(p.slots))
	}
	if p.slots[id] {
		return srvErrors.NewInvariantViolationError("slot %d released while free", id)
	}
	p.slots[id] = true
	p.free++
	return nil
}

func (p *SlotPool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free
}

func (p *SlotPool) Capacity() int {
	return len(p.slots)
}

// AllFree reports whether no slot is held.
func (p *SlotPool) AllFree() bool {
	return p.Free() == p.Capacity()
}
