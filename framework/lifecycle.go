package framework

import (
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/core"
	"github.com/sarchlab/sashba/rnc"
	"github.com/sarchlab/sashba/sas"
)

// Start brings a stopped device up. The device becomes READY once the core
// device reports it is ready.
func (d *Device) Start() error {
	if d.state != sas.StateStopped {
		d.reject("start")
		return sas.FailureInvalidState
	}

	d.setState(sas.StateStarting)

	return d.core.Start()
}

// Stop tears the device down. A device that is starting abandons the start.
func (d *Device) Stop() error {
	switch d.state {
	case sas.StateStopped:
		return nil
	case sas.StateStarting:
		next, parent, _ := startingTransition(d.startingSubstate, startingStop)
		d.setStartingSubstate(next)
		d.domain.DeviceStartDone(d.id)
		d.setState(parent)
	case sas.StateReady, sas.StateResetting, sas.StateFailed:
		d.setState(sas.StateStopping)
	case sas.StateStopping:
	default:
		d.reject("stop")
		return sas.FailureInvalidState
	}

	return d.core.Stop()
}

// Reset suspends a ready device ahead of a device or link reset.
func (d *Device) Reset() error {
	if d.state != sas.StateReady {
		d.reject("reset")
		return sas.FailureInvalidState
	}

	d.setState(sas.StateResetting)

	return d.core.Reset()
}

// ResetComplete returns a reset device to READY. The device stays suspended
// until its remote node context runs again.
func (d *Device) ResetComplete() error {
	if d.state != sas.StateResetting {
		d.reject("reset-complete")
		return sas.FailureInvalidState
	}

	if err := d.core.ResetComplete(); err != nil {
		return err
	}

	ctx := d.core.RNC()
	d.awaitingReady = ctx.Busy() || ctx.State() != rnc.StateReady
	d.setState(sas.StateReady)

	return nil
}

// Fail moves the device to FAILED.
func (d *Device) Fail() error {
	if err := d.core.Fail(); err != nil {
		return err
	}

	d.setState(sas.StateFailed)

	return nil
}

// Destruct tears down a stopped device. A device that is not stopped is
// stopped first and torn down when the stop completes.
func (d *Device) Destruct() error {
	switch d.state {
	case sas.StateStopped:
		if err := d.core.Destruct(); err != nil {
			return err
		}

		d.setState(sas.StateFinal)

		return nil
	case sas.StateFinal:
		d.reject("destruct")
		return sas.FailureInvalidState
	default:
		d.destructWhenStopped = true
		return d.Stop()
	}
}

// StartComplete is called by the core device when its start finished.
func (d *Device) StartComplete(err error) {
	if d.state != sas.StateStarting {
		return
	}

	ev := startingStartComplete
	if err != nil {
		ev = startingStartFailed
	}

	next, parent, terr := startingTransition(d.startingSubstate, ev)
	if terr != nil {
		d.reject("start-complete")
		return
	}

	d.setStartingSubstate(next)

	if parent == sas.StateFailed {
		log.WithFields(log.Fields{
			"device": d.id,
			"error":  err,
		}).Error("device start failed")

		d.setState(sas.StateFailed)
		d.domain.DeviceStartDone(d.id)
		d.domain.ControllerError(d.id, err)
	}
}

// Ready is called by the core device when it accepts requests.
func (d *Device) Ready() {
	switch d.state {
	case sas.StateStarting:
		next, parent, err := startingTransition(d.startingSubstate, startingReady)
		if err != nil {
			d.reject("ready")
			return
		}

		d.setStartingSubstate(next)
		d.awaitingReady = false
		d.setState(parent)
		d.domain.DeviceStartDone(d.id)
	case sas.StateReady:
		d.awaitingReady = false
		d.readyEvent(readyReady)
	}
}

// NotReady is called by the core device when it stops accepting requests.
func (d *Device) NotReady(reason core.NotReadyReason) {
	if d.state != sas.StateReady {
		return
	}

	switch reason {
	case core.ReasonRNCSuspended, core.ReasonITNexusTimeout:
		d.awaitingReady = true
		d.readyEvent(readyNotReady)

		if err := d.core.Resume(); err != nil {
			log.WithFields(log.Fields{
				"device": d.id,
				"reason": reason,
				"error":  err,
			}).Warn("cannot resume remote node context")
		}
	case core.ReasonFailed:
		d.setState(sas.StateFailed)
	}
}

// StopComplete is called by the core device when it stopped.
func (d *Device) StopComplete(err error) {
	if d.state != sas.StateStopping {
		return
	}

	d.setState(sas.StateStopped)
	d.domain.DeviceStopped(d.id)

	if d.destructWhenStopped {
		if err := d.Destruct(); err != nil {
			log.WithFields(log.Fields{
				"device": d.id,
				"error":  err,
			}).Error("cannot destruct stopped device")
		}
	}
}
