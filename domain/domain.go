// Package domain is the minimal discovery domain the devices of a controller
// report to. It counts starting devices so discovery can tell when the
// topology has settled, and it queues re-discovery requests.
package domain

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/sas"
)

// Domain collects the notifications of the devices of one controller.
type Domain struct {
	lock sync.Mutex
	name string

	starting int
	started  int
	stopped  int

	discoveryRequests []sas.DeviceID
	controllerErrors  []error

	onDiscovery func(dev sas.DeviceID)
}

// New creates an empty domain.
func New(name string) *Domain {
	return &Domain{name: name}
}

// Name returns the name of the domain.
func (d *Domain) Name() string {
	return d.name
}

// OnDiscoveryRequest registers a function called for every re-discovery
// request. It runs with the requesting device locked and must not call back
// into the controller synchronously.
func (d *Domain) OnDiscoveryRequest(f func(dev sas.DeviceID)) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.onDiscovery = f
}

// DeviceStarting counts a device that starts.
func (d *Domain) DeviceStarting(dev sas.DeviceID) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.starting++
	d.started++
}

// DeviceStartDone counts a device that finished starting.
func (d *Domain) DeviceStartDone(dev sas.DeviceID) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.starting == 0 {
		log.Panicf("domain %s: %s finished starting but none is starting",
			d.name, dev)
	}

	d.starting--
}

// ControllerError records an error that is not local to one device.
func (d *Domain) ControllerError(dev sas.DeviceID, err error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	log.WithFields(log.Fields{
		"domain": d.name,
		"device": dev,
		"error":  err,
	}).Error("controller error")

	d.controllerErrors = append(d.controllerErrors, err)
}

// RequestDiscovery queues a re-discovery of the topology around a device.
func (d *Domain) RequestDiscovery(dev sas.DeviceID) {
	d.lock.Lock()
	d.discoveryRequests = append(d.discoveryRequests, dev)
	f := d.onDiscovery
	d.lock.Unlock()

	if f != nil {
		f(dev)
	}
}

// DeviceStopped counts a stopped device.
func (d *Domain) DeviceStopped(dev sas.DeviceID) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.stopped++
}

// Settled tells if no device is starting.
func (d *Domain) Settled() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.starting == 0
}

// Counters returns the starting, started, and stopped device counters.
func (d *Domain) Counters() (starting, started, stopped int) {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.starting, d.started, d.stopped
}

// TakeDiscoveryRequests returns and clears the queued re-discovery requests.
func (d *Domain) TakeDiscoveryRequests() []sas.DeviceID {
	d.lock.Lock()
	defer d.lock.Unlock()

	reqs := d.discoveryRequests
	d.discoveryRequests = nil

	return reqs
}

// ControllerErrors returns the recorded controller errors.
func (d *Domain) ControllerErrors() []error {
	d.lock.Lock()
	defer d.lock.Unlock()

	return append([]error(nil), d.controllerErrors...)
}
