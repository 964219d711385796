package rnc

import (
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/sas"
)

// State is the state of a remote node context.
type State int

// Remote node context states.
const (
	StateInvalidated State = iota
	StatePosting
	StateInvalidating
	StateResuming
	StateReady
	StateTxSuspended
	StateTxRxSuspended
)

var stateNames = [...]string{
	StateInvalidated:   "INVALIDATED",
	StatePosting:       "POSTING",
	StateInvalidating:  "INVALIDATING",
	StateResuming:      "RESUMING",
	StateReady:         "READY",
	StateTxSuspended:   "TX_SUSPENDED",
	StateTxRxSuspended: "TX_RX_SUSPENDED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}

	return stateNames[s]
}

// SuspendKind selects how much traffic a suspension stops.
type SuspendKind int

// Suspension kinds.
const (
	SuspendTx SuspendKind = iota
	SuspendTxRx
)

type operation struct {
	op     hw.RNCOp
	notify bool
}

// Context is the remote node context of one device. At most one hardware
// operation is in flight. An operation requested while another is in flight
// is queued, and a later request replaces the queued one.
type Context struct {
	device sas.DeviceID
	index  Index
	state  State
	hw     hw.Hardware

	seq      uint64
	inFlight *operation
	queued   *operation
}

// NewContext creates a context bound to a claimed slot.
func NewContext(dev sas.DeviceID, idx Index, hardware hw.Hardware) *Context {
	return &Context{
		device: dev,
		index:  idx,
		state:  StateInvalidated,
		hw:     hardware,
	}
}

// Index returns the slot the context owns.
func (c *Context) Index() Index {
	return c.index
}

// State returns the current state.
func (c *Context) State() State {
	return c.state
}

// Busy tells if a hardware operation is in flight.
func (c *Context) Busy() bool {
	return c.inFlight != nil
}

// Resume asks the hardware to make the slot ready. If the slot is already
// ready and idle it returns done and posts nothing. Otherwise the result
// arrives through Complete.
func (c *Context) Resume(notify bool) (done bool, err error) {
	if c.index == InvalidIndex {
		return false, sas.FailureInvalidState
	}

	if c.inFlight == nil && c.state == StateReady {
		return true, nil
	}

	if c.invalidating() {
		return false, sas.FailureInvalidState
	}

	c.request(operation{op: hw.OpResume, notify: notify})

	return false, nil
}

// Suspend asks the hardware to stop traffic on the slot.
func (c *Context) Suspend(kind SuspendKind, notify bool) error {
	if c.index == InvalidIndex || c.invalidating() {
		return sas.FailureInvalidState
	}

	op := hw.OpSuspendTx
	if kind == SuspendTxRx {
		op = hw.OpSuspendTxRx
	}

	c.request(operation{op: op, notify: notify})

	return nil
}

// Destruct asks the hardware to invalidate the slot. The caller must have no
// started requests on the device. It returns done when the slot is already
// invalidated and idle.
func (c *Context) Destruct(startedCount uint32) (done bool) {
	if startedCount != 0 {
		log.Panicf("%s: destructing remote node context %d with %d started requests",
			c.device, c.index, startedCount)
	}

	if c.inFlight == nil && c.state == StateInvalidated {
		return true
	}

	c.request(operation{op: hw.OpInvalidate, notify: true})

	return false
}

// invalidating tells if an invalidate has been posted or queued. Nothing may
// be requested after it.
func (c *Context) invalidating() bool {
	if c.queued != nil {
		return c.queued.op == hw.OpInvalidate
	}

	return c.inFlight != nil && c.inFlight.op == hw.OpInvalidate
}

func (c *Context) request(o operation) {
	if c.inFlight == nil {
		c.post(o)
		return
	}

	if c.queued == nil && c.inFlight.op == o.op {
		c.inFlight.notify = c.inFlight.notify || o.notify
		return
	}

	c.queued = &o
}

func (c *Context) post(o operation) {
	c.seq++
	c.inFlight = &o

	switch o.op {
	case hw.OpResume:
		if c.state == StateInvalidated {
			c.state = StatePosting
		} else {
			c.state = StateResuming
		}
	case hw.OpSuspendTx:
		c.state = StateTxSuspended
	case hw.OpSuspendTxRx:
		c.state = StateTxRxSuspended
	case hw.OpInvalidate:
		c.state = StateInvalidating
	}

	c.hw.PostRNC(hw.RNCRequest{
		Device: c.device,
		Index:  uint16(c.index),
		Op:     o.op,
		Seq:    c.seq,
	})
}

// Result is what Complete reports to the owner of the context.
type Result struct {
	Op     hw.RNCOp
	Err    error
	Notify bool
}

// Complete consumes the token of the in-flight operation. Tokens that do not
// match the in-flight operation are stale and ignored, which Complete reports
// with consumed == false. When another operation was queued behind the
// completed one, the queued one is posted and the completed one is not
// reported to the owner.
func (c *Context) Complete(cpl hw.RNCCompletion) (res Result, consumed bool) {
	if c.inFlight == nil || cpl.Seq != c.seq || cpl.Index != uint16(c.index) {
		log.WithFields(log.Fields{
			"device": c.device,
			"index":  c.index,
			"seq":    cpl.Seq,
			"op":     cpl.Op,
		}).Debug("stale remote node context completion")

		return Result{}, false
	}

	done := c.inFlight
	c.inFlight = nil
	c.apply(done.op, cpl.Err)

	res = Result{Op: done.op, Err: cpl.Err, Notify: done.notify}

	if c.queued != nil {
		next := *c.queued
		c.queued = nil
		res.Notify = false
		c.post(next)
	}

	return res, true
}

func (c *Context) apply(op hw.RNCOp, err error) {
	if err != nil {
		switch c.state {
		case StatePosting:
			c.state = StateInvalidated
		case StateResuming:
			c.state = StateTxRxSuspended
		}

		return
	}

	switch op {
	case hw.OpResume:
		c.state = StateReady
	case hw.OpInvalidate:
		c.state = StateInvalidated
	}
}

// HardwareSuspended records that the hardware suspended an idle, ready slot
// on its own, for example after a link error.
func (c *Context) HardwareSuspended() {
	if c.inFlight == nil && c.state == StateReady {
		c.state = StateTxRxSuspended
	}
}

// Release gives the slot back to the pool. Only an invalidated and idle
// context can be released.
func (c *Context) Release(pool *Pool) {
	if c.index == InvalidIndex {
		return
	}

	if c.inFlight != nil || c.queued != nil || c.state != StateInvalidated {
		log.Panicf("%s: releasing remote node context %d in state %s",
			c.device, c.index, c.state)
	}

	pool.Free(c.index)
	c.index = InvalidIndex
}
