// Package controller ties the remote devices of one host bus adapter
// together. It owns the remote node table, the request table, and the
// completion queue, and it routes every completion back into the critical
// section of the device it belongs to.
//
// A device lock is never taken while the controller lock is held. The
// controller lock may be taken inside a device lock.
package controller

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/framework"
	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/rnc"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
)

// Domain is the discovery domain the devices of the controller report to.
type Domain interface {
	framework.Domain
}

// User receives the completions of the requests it started. The callbacks
// run without any lock held and may start new requests.
type User interface {
	IOCompleted(req *request.Request)
	TaskCompleted(req *request.Request)
}

// HookPosRequestStart marks a request admitted to a device. The item is the
// request.
var HookPosRequestStart = &sim.HookPos{Name: "RequestStart"}

// HookPosRequestComplete marks a request retired from a device. The item is
// the request.
var HookPosRequestComplete = &sim.HookPos{Name: "RequestComplete"}

// Stats counts what the controller did.
type Stats struct {
	IOStarted      uint64
	IOCompleted    uint64
	TasksStarted   uint64
	TasksCompleted uint64
	Rejected       uint64

	Terminated        uint64
	TerminateFailures uint64
	TargetResets      uint64

	NCQErrors      uint64
	NCQRecovered   uint64
	NCQNotQueued   uint64
	NCQNoMatch     uint64
	NCQBadLog      uint64
	NCQTimeouts    uint64
	StaleCompletes uint64
}

// Controller manages the remote devices of one host bus adapter.
type Controller struct {
	*sim.ComponentBase

	hw          hw.Hardware
	completions <-chan hw.Completion
	domain      Domain
	user        User

	pool  *rnc.Pool
	table *request.Table

	maxDevices int
	maxRate    sas.LinkRate
	ncqEnabled bool
	ncqDepth   int
	pollBudget int

	devices     map[sas.DeviceID]*framework.Device
	addresses   map[sas.Address]sas.DeviceID
	nextID      sas.DeviceID
	resets      map[sas.DeviceID]*request.Request
	deviceHooks []sim.Hook

	stats Stats
}

func newController(name string, b Builder) *Controller {
	return &Controller{
		ComponentBase: sim.NewComponentBase(name),
		hw:            b.hardware,
		completions:   b.completions,
		domain:        b.domain,
		user:          b.user,
		pool:          rnc.NewPool(b.maxDevices),
		table:         request.NewTable(b.maxRequests),
		maxDevices:    b.maxDevices,
		maxRate:       sas.LinkRateForGeneration(b.speedGen),
		ncqEnabled:    b.ncqEnabled,
		ncqDepth:      b.ncqDepth,
		pollBudget:    b.pollBudget,
		devices:       make(map[sas.DeviceID]*framework.Device),
		addresses:     make(map[sas.Address]sas.DeviceID),
		resets:        make(map[sas.DeviceID]*request.Request),
	}
}

// SetUser replaces the receiver of request completions.
func (c *Controller) SetUser(u User) {
	c.Lock()
	defer c.Unlock()

	c.user = u
}

// AcceptDeviceHook registers a hook on every current and future device.
func (c *Controller) AcceptDeviceHook(h sim.Hook) {
	c.Lock()
	c.deviceHooks = append(c.deviceHooks, h)
	devices := c.deviceList()
	c.Unlock()

	for _, d := range devices {
		d.Lock()
		d.AcceptHook(h)
		d.Unlock()
	}
}

// Stats returns a copy of the counters.
func (c *Controller) Stats() Stats {
	c.Lock()
	defer c.Unlock()

	return c.stats
}

// MaxConnectionRate returns the fastest rate the ports allow.
func (c *Controller) MaxConnectionRate() sas.LinkRate {
	return c.maxRate
}

// RNCInUse returns the number of claimed remote node table slots.
func (c *Controller) RNCInUse() int {
	return c.pool.InUse()
}

// RNCCapacity returns the size of the remote node table.
func (c *Controller) RNCCapacity() int {
	return c.pool.Capacity()
}

// OutstandingRequests returns the number of requests in the request table.
func (c *Controller) OutstandingRequests() int {
	return c.table.Len()
}

// RequestCapacity returns the size of the request table.
func (c *Controller) RequestCapacity() int {
	return c.table.Capacity()
}

// Device returns a device. Callers must lock the device around every use.
func (c *Controller) Device(id sas.DeviceID) (*framework.Device, bool) {
	return c.lookup(id)
}

// DeviceIDs returns the identifiers of every constructed device, in
// construction order.
func (c *Controller) DeviceIDs() []sas.DeviceID {
	c.Lock()
	defer c.Unlock()

	ids := make([]sas.DeviceID, 0, len(c.devices))
	for id := sas.NoDevice + 1; id <= c.nextID; id++ {
		if _, ok := c.devices[id]; ok {
			ids = append(ids, id)
		}
	}

	return ids
}

func (c *Controller) deviceList() []*framework.Device {
	list := make([]*framework.Device, 0, len(c.devices))
	for id := sas.NoDevice + 1; id <= c.nextID; id++ {
		if d, ok := c.devices[id]; ok {
			list = append(list, d)
		}
	}

	return list
}

func (c *Controller) lookup(id sas.DeviceID) (*framework.Device, bool) {
	c.Lock()
	defer c.Unlock()

	d, ok := c.devices[id]

	return d, ok
}

// withDevice runs f inside the critical section of a device and forgets the
// device if f tore it down.
func (c *Controller) withDevice(
	id sas.DeviceID,
	f func(d *framework.Device) error,
) error {
	d, ok := c.lookup(id)
	if !ok {
		return sas.FailureInvalidParameterValue
	}

	d.Lock()
	err := f(d)
	final := d.State() == sas.StateFinal
	d.Unlock()

	if final {
		c.forget(d)
	}

	return err
}

func (c *Controller) forget(d *framework.Device) {
	c.Lock()
	defer c.Unlock()

	if c.devices[d.ID()] != d {
		return
	}

	delete(c.devices, d.ID())
	delete(c.resets, d.ID())

	if c.addresses[d.SASAddress()] == d.ID() {
		delete(c.addresses, d.SASAddress())
	}

	log.WithFields(log.Fields{
		"controller": c.Name(),
		"device":     d.ID(),
	}).Debug("device destructed")
}

func (c *Controller) count(f func(s *Stats)) {
	c.Lock()
	defer c.Unlock()

	f(&c.stats)
}

func (c *Controller) deviceName(id sas.DeviceID) string {
	return fmt.Sprintf("%s.Device[%d]", c.Name(), uint32(id))
}

func (c *Controller) hookRequest(pos *sim.HookPos, req *request.Request) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   req,
	})
}
