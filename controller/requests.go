package controller

import (
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/framework"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
)

// StartIO admits an IO or SMP request to the device it is addressed to and
// posts it to the hardware.
func (c *Controller) StartIO(req *request.Request) error {
	return c.withDevice(req.Device, func(d *framework.Device) error {
		if err := d.StartIO(req, c.table); err != nil {
			c.count(func(s *Stats) { s.Rejected++ })
			return err
		}

		c.count(func(s *Stats) { s.IOStarted++ })
		c.hookRequest(HookPosRequestStart, req)

		return nil
	})
}

// StartTask admits a task management request. A target reset is carried
// out by the controller; every other task is posted to the device.
func (c *Controller) StartTask(req *request.Request) error {
	if req.Kind != request.KindTask {
		return sas.FailureInvalidParameterValue
	}

	if req.Task == request.TaskTargetReset {
		return c.TargetReset(req)
	}

	return c.withDevice(req.Device, func(d *framework.Device) error {
		return c.startTask(d, req)
	})
}

func (c *Controller) startTask(d *framework.Device, req *request.Request) error {
	if err := d.StartTask(req, c.table); err != nil {
		c.count(func(s *Stats) { s.Rejected++ })
		return err
	}

	c.count(func(s *Stats) { s.TasksStarted++ })
	c.hookRequest(HookPosRequestStart, req)

	return nil
}

// terminator lets core devices terminate their requests. It runs inside
// the critical section of the device.
type terminator struct {
	c *Controller
}

func (t terminator) TerminateRequests(dev sas.DeviceID) error {
	return t.c.terminate(dev)
}

// TerminateRequests aborts every outstanding request of a device that is
// not already being terminated. The scan goes through the whole request
// table and returns the worst status met. Calling it again while the
// aborted requests are still outstanding aborts nothing.
func (c *Controller) TerminateRequests(id sas.DeviceID) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return c.terminate(id)
	})
}

func (c *Controller) terminate(id sas.DeviceID) error {
	worst := sas.Success
	terminated := uint64(0)
	failed := uint64(0)

	for _, req := range c.table.ForDevice(id) {
		if req.Terminating || req.ControllerOwned {
			continue
		}

		if err := c.hw.AbortRequest(id, req.Handle); err != nil {
			worst = sas.Worse(worst, sas.AsStatus(err))
			failed++

			log.WithFields(log.Fields{
				"device":  id,
				"request": req,
				"error":   err,
			}).Warn("cannot terminate request")

			continue
		}

		req.Terminating = true
		terminated++
	}

	c.count(func(s *Stats) {
		s.Terminated += terminated
		s.TerminateFailures += failed
	})

	return worst.Err()
}

// TargetReset resets a device with a task management request. The other
// requests of the device are terminated and the device is suspended. A
// direct-attached device gets a hard reset of its port. An expander-attached
// device gets an SMP PHY CONTROL hard reset through its expander, which
// records the reset as its current activity.
//
// When the reset finishes the task completes, the device resumes, and the
// domain is asked to rediscover the device.
func (c *Controller) TargetReset(task *request.Request) error {
	if task.Kind != request.KindTask || task.Task != request.TaskTargetReset {
		return sas.FailureInvalidParameterValue
	}

	task.ControllerOwned = true
	id := task.Device

	var containing framework.Containing

	err := c.withDevice(id, func(d *framework.Device) error {
		if err := c.startTask(d, task); err != nil {
			return err
		}

		c.count(func(s *Stats) { s.TargetResets++ })

		if err := c.terminate(id); err != nil {
			log.WithFields(log.Fields{
				"device": id,
				"error":  err,
			}).Warn("target reset could not terminate every request")
		}

		if err := d.Reset(); err != nil {
			log.Panicf("%s: cannot reset a device that admitted a task: %v",
				id, err)
		}

		c.Lock()
		c.resets[id] = task
		c.Unlock()

		containing = d.Containing()
		if !containing.Valid() {
			c.hw.HardResetPort(d.Core().Port(), id)
		}

		return nil
	})
	if err != nil || !containing.Valid() {
		return err
	}

	phyControl := request.NewSMPPhyControl(containing.Device, id, containing.Phy)
	phyControl.Internal = true

	err = c.withDevice(containing.Device, func(exp *framework.Device) error {
		if err := exp.StartIO(phyControl, c.table); err != nil {
			return err
		}

		exp.SetActivity(smp.ActivityTargetReset, id)
		c.hookRequest(HookPosRequestStart, phyControl)

		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{
			"device":   id,
			"expander": containing.Device,
			"error":    err,
		}).Error("cannot send PHY CONTROL to the expander")

		c.finishReset(id, err)
	}

	return nil
}

// finishReset completes a target reset. The task completes to its
// requester before the device resumes and is rediscovered.
func (c *Controller) finishReset(id sas.DeviceID, resetErr error) {
	var task *request.Request

	err := c.withDevice(id, func(d *framework.Device) error {
		c.Lock()
		task = c.resets[id]
		delete(c.resets, id)
		c.Unlock()

		if task == nil {
			return sas.FailureInvalidState
		}

		task.Status = request.StatusSuccess
		if resetErr != nil {
			task.Status = request.StatusFailed
		}

		c.retire(d, task)

		if d.State() == sas.StateResetting {
			if err := d.ResetComplete(); err != nil {
				log.WithFields(log.Fields{
					"device": id,
					"error":  err,
				}).Error("cannot complete target reset")
			}
		}

		c.domain.RequestDiscovery(id)

		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{
			"device": id,
			"error":  err,
		}).Debug("reset completion for a device that is not resetting")

		return
	}

	c.report(task)
}

// retire removes a finished request from its device and counts it.
func (c *Controller) retire(d *framework.Device, req *request.Request) {
	d.CompleteRequest(req, c.table)

	c.count(func(s *Stats) {
		switch req.Kind {
		case request.KindTask:
			s.TasksCompleted++
		default:
			s.IOCompleted++
		}
	})

	c.hookRequest(HookPosRequestComplete, req)
}

// report hands a retired request back to its requester.
func (c *Controller) report(req *request.Request) {
	if req.Internal {
		return
	}

	c.Lock()
	u := c.user
	c.Unlock()

	if u == nil {
		return
	}

	if req.Kind == request.KindTask {
		u.TaskCompleted(req)
		return
	}

	u.IOCompleted(req)
}
