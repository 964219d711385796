package request

import (
	"fmt"
	"sync"

	"github.com/sarchlab/sashba/sas"
)

// Handle is a generation-checked index into a Table. A handle whose slot has
// been reused no longer resolves.
type Handle struct {
	Index uint16
	Gen   uint32
}

// NoHandle is the zero handle. It never resolves.
var NoHandle = Handle{}

func (h Handle) String() string {
	return fmt.Sprintf("%d.%d", h.Index, h.Gen)
}

// IsValid tells if the handle was ever issued by a table.
func (h Handle) IsValid() bool {
	return h.Gen != 0
}

type slot struct {
	gen uint32
	req *Request
}

// Table is the bounded, controller-wide table of outstanding requests.
type Table struct {
	lock  sync.Mutex
	slots []slot
	free  []uint16
	used  int
}

// NewTable creates a table that holds at most capacity requests.
func NewTable(capacity int) *Table {
	if capacity <= 0 || capacity > 1<<16 {
		panic(fmt.Sprintf("invalid request table capacity %d", capacity))
	}

	t := &Table{
		slots: make([]slot, capacity),
		free:  make([]uint16, 0, capacity),
	}

	for i := capacity - 1; i >= 0; i-- {
		t.free = append(t.free, uint16(i))
	}

	return t
}

// Add stores the request and assigns its handle.
func (t *Table) Add(req *Request) (Handle, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.free) == 0 {
		return NoHandle, sas.FailureInsufficientResources
	}

	index := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]

	s := &t.slots[index]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.req = req
	t.used++

	h := Handle{Index: index, Gen: s.gen}
	req.Handle = h

	return h, nil
}

// Get resolves a handle.
func (t *Table) Get(h Handle) (*Request, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.get(h)
}

func (t *Table) get(h Handle) (*Request, bool) {
	if int(h.Index) >= len(t.slots) {
		return nil, false
	}

	s := t.slots[h.Index]
	if s.req == nil || s.gen != h.Gen {
		return nil, false
	}

	return s.req, true
}

// Remove drops the request addressed by the handle and frees its slot.
func (t *Table) Remove(h Handle) (*Request, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	req, ok := t.get(h)
	if !ok {
		return nil, false
	}

	t.slots[h.Index].req = nil
	t.free = append(t.free, h.Index)
	t.used--

	return req, true
}

// ForDevice returns the outstanding requests bound to the device, in table
// order.
func (t *Table) ForDevice(dev sas.DeviceID) []*Request {
	t.lock.Lock()
	defer t.lock.Unlock()

	reqs := []*Request{}
	for _, s := range t.slots {
		if s.req != nil && s.req.Device == dev {
			reqs = append(reqs, s.req)
		}
	}

	return reqs
}

// Len returns the number of outstanding requests.
func (t *Table) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.used
}

// Capacity returns the maximum number of outstanding requests.
func (t *Table) Capacity() int {
	return len(t.slots)
}
