// Package framework implements the protocol-facing remote device state
// machine. A framework device wraps a core device, runs the starting and
// ready sub-machines, admits requests, and drives NCQ error recovery.
//
// A device is guarded by its own lock, which is the device critical section.
// Callers lock the device around every call.
package framework

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/core"
	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/rnc"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
	"github.com/sarchlab/sashba/stp"
)

// Domain is the discovery domain a device belongs to.
type Domain interface {
	// DeviceStarting counts a device that starts. It bumps both the starting
	// and the started counters.
	DeviceStarting(dev sas.DeviceID)

	// DeviceStartDone counts a device that is no longer starting, whether
	// it became ready or gave up.
	DeviceStartDone(dev sas.DeviceID)

	ControllerError(dev sas.DeviceID, err error)
	RequestDiscovery(dev sas.DeviceID)
	DeviceStopped(dev sas.DeviceID)
}

// HookPosStateChange marks a change of the device state or of one of its
// substates. The hook item is a StateChange.
var HookPosStateChange = &sim.HookPos{Name: "DeviceStateChange"}

// StateChange describes one state change of a device.
type StateChange struct {
	Device  sas.DeviceID
	Machine string
	From    string
	To      string
}

// Params configure a framework device.
type Params struct {
	Core       core.Params
	Containing Containing

	// STP devices.
	SATI       *stp.SATIDevice
	NCQEnabled bool
	NCQDepth   int
	PollBudget int

	// SMP devices.
	NumPhys int
}

// Device is a framework remote device.
type Device struct {
	*sim.ComponentBase

	id       sas.DeviceID
	core     *core.Device
	domain   Domain
	protocol ProtocolDevice

	containing Containing

	state            sas.DeviceState
	startingSubstate StartingSubstate
	readySubstate    ReadySubstate

	requestCount     uint32
	taskRequestCount uint32

	destructWhenStopped bool
	ncqErrorPending     bool
	awaitingReady       bool
}

// NewDevice constructs a stopped device.
func NewDevice(
	name string,
	params Params,
	pool *rnc.Pool,
	hardware hw.Hardware,
	domain Domain,
	terminator core.Terminator,
) (*Device, error) {
	d := &Device{
		ComponentBase: sim.NewComponentBase(name),
		id:            params.Core.ID,
		domain:        domain,
		containing:    params.Containing,
		state:         sas.StateStopped,
	}

	protocol, err := newProtocolDevice(params, hardware)
	if err != nil {
		return nil, err
	}
	d.protocol = protocol

	c, err := core.NewDevice(params.Core, pool, hardware, d, terminator)
	if err != nil {
		return nil, err
	}
	d.core = c

	return d, nil
}

func newProtocolDevice(params Params, hardware hw.Hardware) (ProtocolDevice, error) {
	protocols := params.Core.Protocols

	switch {
	case protocols.Has(sas.ProtocolSTP):
		depth := params.NCQDepth
		if depth == 0 {
			depth = stp.MaxNCQDepth
		}

		if params.SATI != nil && params.SATI.NCQDepth > 0 &&
			params.SATI.NCQDepth < depth {
			depth = params.SATI.NCQDepth
		}

		budget := params.PollBudget
		if budget == 0 {
			budget = 1
		}

		sati := params.SATI
		if sati == nil {
			sati = &stp.SATIDevice{}
		}

		return &STPDevice{
			SATI:       sati,
			Tags:       stp.NewTagPool(depth),
			Recovery:   stp.NewRecovery(params.Core.ID, hardware, budget),
			NCQEnabled: params.NCQEnabled && !sati.IsATAPI(),
		}, nil
	case protocols.Has(sas.ProtocolSMP):
		return &SMPDevice{NumPhys: params.NumPhys}, nil
	case protocols.Has(sas.ProtocolSSP):
		return &SSPDevice{}, nil
	default:
		return nil, sas.FailureUnsupportedProtocol
	}
}

// ID returns the device identifier.
func (d *Device) ID() sas.DeviceID {
	return d.id
}

// State returns the parent state.
func (d *Device) State() sas.DeviceState {
	return d.state
}

// StartingSubstate returns the state of the starting sub-machine.
func (d *Device) StartingSubstate() StartingSubstate {
	return d.startingSubstate
}

// ReadySubstate returns the state of the ready sub-machine.
func (d *Device) ReadySubstate() ReadySubstate {
	return d.readySubstate
}

// RequestCount returns the number of admitted requests, tasks included.
func (d *Device) RequestCount() uint32 {
	return d.requestCount
}

// TaskRequestCount returns the number of admitted task requests.
func (d *Device) TaskRequestCount() uint32 {
	return d.taskRequestCount
}

// Core returns the core device.
func (d *Device) Core() *core.Device {
	return d.core
}

// ProtocolDevice returns the protocol specific part of the device.
func (d *Device) ProtocolDevice() ProtocolDevice {
	return d.protocol
}

// Containing returns the expander the device is attached through.
func (d *Device) Containing() Containing {
	return d.containing
}

// DestructWhenStopped tells if the device is torn down once it stops.
func (d *Device) DestructWhenStopped() bool {
	return d.destructWhenStopped
}

// NCQErrorPending tells if an NCQ error waits for the device to settle.
func (d *Device) NCQErrorPending() bool {
	return d.ncqErrorPending
}

// STP returns the STP part of the device, or nil.
func (d *Device) STP() *STPDevice {
	s, _ := d.protocol.(*STPDevice)
	return s
}

// SMP returns the SMP part of the device, or nil.
func (d *Device) SMP() *SMPDevice {
	s, _ := d.protocol.(*SMPDevice)
	return s
}

// Protocols returns the target protocols.
func (d *Device) Protocols() sas.Protocols {
	return d.core.Protocols()
}

// SASAddress returns the SAS address.
func (d *Device) SASAddress() sas.Address {
	return d.core.SASAddress()
}

// ConnectionRate returns the rate connections are opened at.
func (d *Device) ConnectionRate() sas.LinkRate {
	return d.core.ConnectionRate()
}

// SetMaxConnectionRate lowers the connection rate.
func (d *Device) SetMaxConnectionRate(rate sas.LinkRate) error {
	return d.core.SetMaxConnectionRate(rate)
}

// StartedIOCount returns the number of requests started on the core
// device.
func (d *Device) StartedIOCount() uint32 {
	return d.core.StartedIOCount()
}

func (d *Device) reject(op string) {
	log.WithFields(log.Fields{
		"device":   d.id,
		"state":    d.state,
		"substate": d.readySubstate,
		"op":       op,
	}).Warn("operation not allowed in current state")
}

func (d *Device) hookStateChange(machine string, from, to fmt.Stringer) {
	if d.NumHooks() == 0 {
		return
	}

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosStateChange,
		Item: StateChange{
			Device:  d.id,
			Machine: machine,
			From:    from.String(),
			To:      to.String(),
		},
	})
}

func (d *Device) setState(to sas.DeviceState) {
	from := d.state
	if from == to {
		return
	}

	if from == sas.StateStarting {
		d.setStartingSubstate(StartingNone)
	}

	if from == sas.StateReady {
		d.setReadySubstate(ReadyNone)
		d.ncqErrorPending = false
		d.awaitingReady = false
	}

	d.state = to
	d.hookStateChange("device", from, to)

	switch to {
	case sas.StateStarting:
		d.setStartingSubstate(StartingAwaitComplete)
		d.domain.DeviceStarting(d.id)
	case sas.StateReady:
		d.setReadySubstate(settle(d.flags()))
	}
}

func (d *Device) setStartingSubstate(to StartingSubstate) {
	from := d.startingSubstate
	if from == to {
		return
	}

	d.startingSubstate = to
	d.hookStateChange("starting", from, to)
}

func (d *Device) setReadySubstate(to ReadySubstate) {
	from := d.readySubstate
	if from == to {
		return
	}

	d.readySubstate = to
	d.hookStateChange("ready", from, to)

	if to == ReadyNCQError {
		d.ncqErrorPending = false
		d.STP().Recovery.Begin()
	}
}

func (d *Device) flags() readyFlags {
	return readyFlags{
		tasks:         d.taskRequestCount,
		ncqPending:    d.ncqErrorPending,
		awaitingReady: d.awaitingReady,
	}
}

func (d *Device) readyEvent(ev readyEvent) {
	if d.state != sas.StateReady {
		return
	}

	next, latch := readyTransition(d.readySubstate, ev, d.flags())
	if latch {
		d.ncqErrorPending = true
	}

	d.setReadySubstate(next)
}
