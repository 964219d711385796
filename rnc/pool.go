// Package rnc manages remote node contexts, the hardware table slots that
// represent remote devices inside the controller.
package rnc

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/sas"
)

// Index addresses one slot of the remote node table.
type Index uint16

// InvalidIndex marks a context that does not own a slot.
const InvalidIndex Index = 0xffff

// Pool hands out remote node table slots. It is shared by all the devices of
// one controller.
type Pool struct {
	lock     sync.Mutex
	inUse    []bool
	sequence []uint32
	used     int
}

// NewPool creates a pool with size slots, normally the controller's maximum
// device count.
func NewPool(size int) *Pool {
	if size <= 0 || size >= int(InvalidIndex) {
		log.Panicf("invalid remote node table size %d", size)
	}

	return &Pool{
		inUse:    make([]bool, size),
		sequence: make([]uint32, size),
	}
}

// Allocate claims the lowest free slot.
func (p *Pool) Allocate() (Index, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	for i, used := range p.inUse {
		if !used {
			p.inUse[i] = true
			p.used++

			return Index(i), nil
		}
	}

	return InvalidIndex, sas.FailureInsufficientResources
}

// Free returns a slot to the pool.
func (p *Pool) Free(idx Index) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if int(idx) >= len(p.inUse) || !p.inUse[idx] {
		log.Panicf("freeing remote node index %d that is not in use", idx)
	}

	p.inUse[idx] = false
	p.used--
}

// InUse returns the number of claimed slots.
func (p *Pool) InUse() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.used
}

// Capacity returns the number of slots.
func (p *Pool) Capacity() int {
	return len(p.inUse)
}

// BumpSequence advances the remote device sequence of a slot. The sequence
// changes every time a device becomes ready on the slot, so stale hardware
// state can be told apart from the current one.
func (p *Pool) BumpSequence(idx Index) uint32 {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.sequence[idx]++

	return p.sequence[idx]
}

// Sequence returns the current remote device sequence of a slot.
func (p *Pool) Sequence(idx Index) uint32 {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.sequence[idx]
}
