// Package core implements the hardware-facing remote device state machine. A
// core device owns the remote node context of one attached device, counts
// the requests started on it, and keeps its negotiated link parameters.
//
// None of the methods lock. The caller holds the critical section of the
// device.
package core

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/rnc"
	"github.com/sarchlab/sashba/sas"
)

// NotReadyReason tells why a device stopped accepting requests.
type NotReadyReason int

// Reasons reported through Listener.NotReady.
const (
	ReasonStartRequested NotReadyReason = iota
	ReasonStopRequested
	ReasonResetRequested
	ReasonFailed
	ReasonRNCSuspended
	ReasonITNexusTimeout
)

func (r NotReadyReason) String() string {
	switch r {
	case ReasonStartRequested:
		return "start-requested"
	case ReasonStopRequested:
		return "stop-requested"
	case ReasonResetRequested:
		return "reset-requested"
	case ReasonFailed:
		return "failed"
	case ReasonRNCSuspended:
		return "rnc-suspended"
	case ReasonITNexusTimeout:
		return "it-nexus-timeout"
	default:
		return "unknown"
	}
}

// A Listener is told about the lifecycle of a core device.
type Listener interface {
	StartComplete(err error)
	Ready()
	NotReady(reason NotReadyReason)
	StopComplete(err error)
}

// A Terminator drives every outstanding request of a device to a terminal
// state.
type Terminator interface {
	TerminateRequests(dev sas.DeviceID) error
}

// Reset timeouts suggested to the transport layer.
const (
	DefaultResetTimeout     = 1000 * time.Millisecond
	SignatureFISResetTimeout = 25000 * time.Millisecond
)

// Params describes a device as found by discovery.
type Params struct {
	ID        sas.DeviceID
	Address   sas.Address
	Protocols sas.Protocols
	Port      sas.PortID
	PortWidth int

	// PortMaxRate is the maximum rate allowed on the owning port.
	PortMaxRate sas.LinkRate

	// NegotiatedRate is the rate reported by the expander for an
	// expander-attached device. It is LinkRateUnknown for direct-attached
	// devices.
	NegotiatedRate sas.LinkRate
}

// Device is a core remote device.
type Device struct {
	id        sas.DeviceID
	address   sas.Address
	protocols sas.Protocols
	port      sas.PortID
	portWidth int

	connectionRate sas.LinkRate
	rateCeiling    sas.LinkRate

	state    sas.DeviceState
	rnc      *rnc.Context
	pool     *rnc.Pool
	hw       hw.Hardware
	started  uint32
	sequence uint32

	listener   Listener
	terminator Terminator
}

// NewDevice constructs a device in the STOPPED state. It claims a remote
// node table slot, so it fails when the table is full.
func NewDevice(
	params Params,
	pool *rnc.Pool,
	hardware hw.Hardware,
	listener Listener,
	terminator Terminator,
) (*Device, error) {
	if params.Protocols == 0 {
		return nil, sas.FailureUnsupportedProtocol
	}

	idx, err := pool.Allocate()
	if err != nil {
		return nil, err
	}

	d := &Device{
		id:         params.ID,
		address:    params.Address,
		protocols:  params.Protocols,
		port:       params.Port,
		portWidth:  params.PortWidth,
		state:      sas.StateInitial,
		rnc:        rnc.NewContext(params.ID, idx, hardware),
		pool:       pool,
		hw:         hardware,
		listener:   listener,
		terminator: terminator,
	}

	d.connectionRate = params.PortMaxRate
	if params.NegotiatedRate != sas.LinkRateUnknown {
		d.connectionRate = sas.MinLinkRate(params.PortMaxRate, params.NegotiatedRate)
	}
	d.rateCeiling = d.connectionRate

	d.fire(EventConstruct)

	return d, nil
}

// ID returns the device identifier.
func (d *Device) ID() sas.DeviceID {
	return d.id
}

// State returns the current state.
func (d *Device) State() sas.DeviceState {
	return d.state
}

// RNC returns the remote node context of the device.
func (d *Device) RNC() *rnc.Context {
	return d.rnc
}

// StartedIOCount returns the number of started and not yet completed
// requests.
func (d *Device) StartedIOCount() uint32 {
	return d.started
}

// Sequence returns the remote device sequence recorded when the device last
// became ready.
func (d *Device) Sequence() uint32 {
	return d.sequence
}

// Protocols returns the target protocols of the device.
func (d *Device) Protocols() sas.Protocols {
	return d.protocols
}

// SASAddress returns the SAS address of the device.
func (d *Device) SASAddress() sas.Address {
	return d.address
}

// Port returns the owning port.
func (d *Device) Port() sas.PortID {
	return d.port
}

// PortWidth returns the number of phys of the port the device is reached
// through.
func (d *Device) PortWidth() int {
	return d.portWidth
}

// ConnectionRate returns the rate connections to the device are opened at.
func (d *Device) ConnectionRate() sas.LinkRate {
	return d.connectionRate
}

// SetMaxConnectionRate lowers the rate connections are opened at. The rate
// must be a supported rate no faster than the negotiated one.
func (d *Device) SetMaxConnectionRate(rate sas.LinkRate) error {
	if !rate.Valid() || rate > d.rateCeiling {
		return sas.FailureInvalidParameterValue
	}

	d.connectionRate = rate

	return nil
}

// SuggestedResetTimeout returns how long a reset of the device may take.
// SATA devices need to send a signature FIS after the reset.
func (d *Device) SuggestedResetTimeout() time.Duration {
	if d.protocols.Has(sas.ProtocolSTP) {
		return SignatureFISResetTimeout
	}

	return DefaultResetTimeout
}

// Start begins bringing up the device by resuming its remote node context.
func (d *Device) Start() error {
	return d.fire(EventStart)
}

// Stop begins tearing the device down. Outstanding requests are terminated
// and the remote node context is destructed once none are left.
func (d *Device) Stop() error {
	return d.fire(EventStop)
}

// Reset suspends the remote node context ahead of a device reset.
func (d *Device) Reset() error {
	return d.fire(EventReset)
}

// ResetComplete resumes the remote node context after a device reset.
func (d *Device) ResetComplete() error {
	return d.fire(EventResetComplete)
}

// Fail moves the device to FAILED. Only Stop is accepted afterwards.
func (d *Device) Fail() error {
	return d.fire(EventFail)
}

// Destruct moves a stopped device to FINAL and releases its remote node
// table slot.
func (d *Device) Destruct() error {
	return d.fire(EventDestruct)
}

// Resume resumes a remote node context that was suspended while the device
// is READY. The listener is told Ready once the context is running again.
func (d *Device) Resume() error {
	if d.state != sas.StateReady {
		d.reject("resume")
		return sas.FailureInvalidState
	}

	done, err := d.rnc.Resume(true)
	if err != nil {
		return err
	}

	if done {
		d.listener.Ready()
	}

	return nil
}

// StartIO admits an IO request and posts it to the hardware.
func (d *Device) StartIO(req *request.Request) error {
	return d.startRequest(req, "start-io")
}

// StartTask admits a task management request. Requests owned by the
// controller are counted but not posted.
func (d *Device) StartTask(req *request.Request) error {
	return d.startRequest(req, "start-task")
}

func (d *Device) startRequest(req *request.Request, op string) error {
	if d.state != sas.StateReady {
		d.reject(op)
		return sas.FailureInvalidState
	}

	d.started++

	if !req.ControllerOwned {
		d.hw.PostRequest(req)
	}

	return nil
}

// CompleteIO accounts for a completed IO request.
func (d *Device) CompleteIO(req *request.Request) {
	d.completeRequest(req)
}

// CompleteTask accounts for a completed task management request.
func (d *Device) CompleteTask(req *request.Request) {
	d.completeRequest(req)
}

func (d *Device) completeRequest(req *request.Request) {
	if d.started == 0 {
		log.Panicf("%s: completing %s with no started requests", d.id, req)
	}

	d.started--

	if d.state == sas.StateStopping && d.started == 0 {
		d.destructRNC()
	}
}

// HandleRNC consumes a remote node context completion token.
func (d *Device) HandleRNC(cpl hw.RNCCompletion) {
	res, consumed := d.rnc.Complete(cpl)
	if !consumed || !res.Notify {
		return
	}

	switch res.Op {
	case hw.OpResume:
		if res.Err != nil {
			log.WithFields(log.Fields{
				"device": d.id,
				"state":  d.state,
				"error":  res.Err,
			}).Error("remote node context resume failed")
			d.fire(EventResumeFailed)

			return
		}

		d.fire(EventResumeDone)
	case hw.OpInvalidate:
		d.fire(EventDestructDone)
	}
}

// HandleEvent reacts to an unsolicited hardware event. NCQ errors are left
// to the protocol layer.
func (d *Device) HandleEvent(kind hw.EventKind) {
	if d.state != sas.StateReady {
		return
	}

	switch kind {
	case hw.EventRNCSuspended:
		d.rnc.HardwareSuspended()
		d.listener.NotReady(ReasonRNCSuspended)
	case hw.EventITNexusTimeout:
		if err := d.rnc.Suspend(rnc.SuspendTxRx, false); err != nil {
			return
		}
		d.listener.NotReady(ReasonITNexusTimeout)
	}
}

func (d *Device) fire(ev Event) error {
	from := d.state

	to, effects, err := transition(from, ev, d.started)
	if err != nil {
		d.reject(ev.String())
		return err
	}

	d.state = to
	if from != to {
		log.WithFields(log.Fields{
			"device": d.id,
			"from":   from,
			"to":     to,
			"event":  ev,
		}).Debug("core device transition")
	}

	for _, e := range effects {
		d.apply(e)
	}

	return nil
}

func (d *Device) reject(op string) {
	log.WithFields(log.Fields{
		"device": d.id,
		"state":  d.state,
		"op":     op,
	}).Warn("operation not allowed in current state")
}

//nolint:gocyclo
func (d *Device) apply(e effect) {
	switch e {
	case effectResumeRNC:
		d.resumeRNC()
	case effectSuspendRNC:
		if err := d.rnc.Suspend(rnc.SuspendTxRx, false); err != nil {
			log.WithField("device", d.id).
				Error("cannot suspend remote node context")
		}
	case effectDestructRNC:
		d.destructRNC()
	case effectTerminate:
		if err := d.terminator.TerminateRequests(d.id); err != nil {
			log.WithFields(log.Fields{
				"device": d.id,
				"error":  err,
			}).Warn("terminating outstanding requests")
		}
	case effectReleaseRNC:
		d.rnc.Release(d.pool)
	case effectBumpSequence:
		d.sequence = d.pool.BumpSequence(d.rnc.Index())
	case effectStartComplete:
		d.listener.StartComplete(nil)
	case effectStartFailed:
		d.listener.StartComplete(sas.FailureControllerError)
	case effectReady:
		d.listener.Ready()
	case effectNotReadyStart:
		d.listener.NotReady(ReasonStartRequested)
	case effectNotReadyStop:
		d.listener.NotReady(ReasonStopRequested)
	case effectNotReadyReset:
		d.listener.NotReady(ReasonResetRequested)
	case effectNotReadyFailed:
		d.listener.NotReady(ReasonFailed)
	case effectStopComplete:
		d.listener.StopComplete(nil)
	}
}

func (d *Device) resumeRNC() {
	done, err := d.rnc.Resume(true)
	if err != nil {
		d.fire(EventResumeFailed)
		return
	}

	if done {
		d.fire(EventResumeDone)
	}
}

func (d *Device) destructRNC() {
	if d.rnc.Destruct(d.started) {
		d.fire(EventDestructDone)
	}
}
