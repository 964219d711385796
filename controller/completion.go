package controller

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/framework"
	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
	"github.com/sarchlab/sashba/stp"
)

// ProcessCompletions handles every completion waiting in the queue without
// blocking and returns how many it handled.
func (c *Controller) ProcessCompletions() int {
	n := 0

	for {
		select {
		case cpl := <-c.completions:
			c.HandleCompletion(cpl)
			n++
		default:
			return n
		}
	}
}

// Run handles completions until the context is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cpl := <-c.completions:
			c.HandleCompletion(cpl)
		}
	}
}

// HandleCompletion routes one completion into its device. Completions for
// devices that no longer exist are dropped.
func (c *Controller) HandleCompletion(cpl hw.Completion) {
	switch cpl := cpl.(type) {
	case hw.RNCCompletion:
		c.handleRNC(cpl)
	case hw.RequestCompletion:
		c.completeRequest(cpl)
	case hw.DeviceEvent:
		c.handleEvent(cpl)
	case hw.PollCompletion:
		c.pollRecovery(cpl)
	case hw.ResetCompletion:
		c.finishReset(cpl.Device, cpl.Err)
	default:
		log.Panicf("unknown completion %T", cpl)
	}
}

func (c *Controller) stale(cpl hw.Completion) {
	c.count(func(s *Stats) { s.StaleCompletes++ })

	log.WithFields(log.Fields{
		"controller": c.Name(),
		"device":     cpl.DeviceID(),
		"completion": cpl,
	}).Debug("dropping stale completion")
}

func (c *Controller) handleRNC(cpl hw.RNCCompletion) {
	err := c.withDevice(cpl.Device, func(d *framework.Device) error {
		d.Core().HandleRNC(cpl)
		return nil
	})
	if err != nil {
		c.stale(cpl)
	}
}

func (c *Controller) completeRequest(cpl hw.RequestCompletion) {
	var req *request.Request

	err := c.withDevice(cpl.Device, func(d *framework.Device) error {
		r, ok := c.table.Get(cpl.Handle)
		if !ok || r.Device != cpl.Device {
			return sas.FailureInvalidParameterValue
		}

		r.Status = cpl.Status
		r.Registers = cpl.Registers

		if r.Kind == request.KindSMP && r.ResetTarget != sas.NoDevice {
			d.SetActivity(smp.ActivityNone, sas.NoDevice)
		}

		c.retire(d, r)
		req = r

		return nil
	})
	if err != nil {
		c.stale(cpl)
		return
	}

	if req.Kind == request.KindSMP && req.ResetTarget != sas.NoDevice {
		var resetErr error
		if req.Status != request.StatusSuccess {
			resetErr = sas.FailureControllerError
		}

		c.finishReset(req.ResetTarget, resetErr)

		return
	}

	c.report(req)
}

func (c *Controller) handleEvent(cpl hw.DeviceEvent) {
	err := c.withDevice(cpl.Device, func(d *framework.Device) error {
		if cpl.Kind == hw.EventNCQError {
			c.count(func(s *Stats) { s.NCQErrors++ })
			d.NCQError()

			return nil
		}

		d.Core().HandleEvent(cpl.Kind)

		return nil
	})
	if err != nil {
		c.stale(cpl)
	}
}

func (c *Controller) pollRecovery(cpl hw.PollCompletion) {
	var res stp.Result

	err := c.withDevice(cpl.Device, func(d *framework.Device) error {
		res = d.PollRecovery(cpl.Seq, c.table)
		c.recoveryOutcome(d, res)

		return nil
	})
	if err != nil {
		c.stale(cpl)
		return
	}

	switch res.Outcome {
	case stp.OutcomeRecovered:
		c.report(res.Request)
	case stp.OutcomeTimedOut:
		task := request.NewTask(cpl.Device, request.TaskTargetReset)
		task.Internal = true

		if err := c.TargetReset(task); err != nil {
			log.WithFields(log.Fields{
				"device": cpl.Device,
				"error":  err,
			}).Error("cannot reset device after NCQ recovery timed out")
		}
	}
}

func (c *Controller) recoveryOutcome(d *framework.Device, res stp.Result) {
	fields := log.Fields{
		"device": d.ID(),
		"tag":    res.Log.Tag,
	}

	switch res.Outcome {
	case stp.OutcomeRecovered:
		c.count(func(s *Stats) {
			s.NCQRecovered++
			s.IOCompleted++
		})
		c.hookRequest(HookPosRequestComplete, res.Request)
		log.WithFields(fields).Info("NCQ error isolated to one command")
	case stp.OutcomeNothingUsable:
		switch res.Reason {
		case stp.ReasonNotQueued:
			c.count(func(s *Stats) { s.NCQNotQueued++ })
			log.WithFields(fields).
				Warn("NCQ error log reports a non-queued command")
		case stp.ReasonNoMatch:
			c.count(func(s *Stats) { s.NCQNoMatch++ })
			log.WithFields(fields).
				Warn("NCQ error log names no outstanding command")
		case stp.ReasonBadLog:
			c.count(func(s *Stats) { s.NCQBadLog++ })
			log.WithFields(fields).
				Warn("NCQ error log cannot be decoded")
		}

		if err := c.terminate(d.ID()); err != nil {
			log.WithFields(fields).
				WithField("status", sas.AsStatus(err)).
				Warn("cannot terminate requests after NCQ error")
		}
	case stp.OutcomeTimedOut:
		c.count(func(s *Stats) { s.NCQTimeouts++ })
		log.WithField("device", d.ID()).
			Warn("NCQ error log did not arrive in time, resetting device")
	}
}
