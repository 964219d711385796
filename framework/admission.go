package framework

import (
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
	"github.com/sarchlab/sashba/stp"
)

func (d *Device) canAdmitIO(req *request.Request) bool {
	if d.state != sas.StateReady {
		return false
	}

	switch d.readySubstate {
	case ReadyOperational:
		return true
	case ReadyTaskMgmt:
		return req.HighPriority
	default:
		return false
	}
}

func (d *Device) canAdmitTask() bool {
	if d.state != sas.StateReady {
		return false
	}

	return d.readySubstate == ReadyOperational ||
		d.readySubstate == ReadyTaskMgmt
}

// StartIO admits an IO or SMP request. The request is added to the table,
// given an NCQ tag when it is queued to an STP device, and posted.
func (d *Device) StartIO(req *request.Request, table *request.Table) error {
	if !d.canAdmitIO(req) {
		d.reject("start-io")
		return sas.FailureInvalidState
	}

	stpDev := d.STP()
	if req.Queued && stpDev == nil {
		return sas.FailureInvalidParameterValue
	}

	h, err := table.Add(req)
	if err != nil {
		return err
	}

	if req.Queued && stpDev.NCQEnabled {
		tag, err := stpDev.Tags.Allocate(h)
		if err != nil {
			table.Remove(h)
			return err
		}

		req.NCQTag = tag
	}

	if err := d.core.StartIO(req); err != nil {
		d.release(req)
		table.Remove(h)

		return err
	}

	d.requestCount++

	return nil
}

// StartTask admits a task management request and moves the device into
// task management.
func (d *Device) StartTask(req *request.Request, table *request.Table) error {
	if !d.canAdmitTask() {
		d.reject("start-task")
		return sas.FailureInvalidState
	}

	h, err := table.Add(req)
	if err != nil {
		return err
	}

	if err := d.core.StartTask(req); err != nil {
		table.Remove(h)
		return err
	}

	d.requestCount++
	d.taskRequestCount++
	d.readyEvent(readyTaskStart)

	return nil
}

func (d *Device) release(req *request.Request) {
	if !req.Tagged() {
		return
	}

	d.STP().Tags.Free(req.NCQTag)
	req.NCQTag = request.NoTag
}

// CompleteRequest retires a request that reached a terminal state.
func (d *Device) CompleteRequest(req *request.Request, table *request.Table) {
	if _, ok := table.Remove(req.Handle); !ok {
		log.Panicf("%s: completing %s that is not outstanding", d.id, req)
	}

	d.release(req)

	if d.requestCount == 0 {
		log.Panicf("%s: completing %s with no admitted requests", d.id, req)
	}
	d.requestCount--

	if req.Kind != request.KindTask {
		d.core.CompleteIO(req)
		return
	}

	if d.taskRequestCount == 0 {
		log.Panicf("%s: completing %s with no admitted tasks", d.id, req)
	}
	d.taskRequestCount--

	d.core.CompleteTask(req)

	if d.taskRequestCount == 0 {
		d.readyEvent(readyTasksDone)
	}
}

// NCQError reacts to an NCQ error reported by the hardware. Recovery starts
// right away on an operational device and is deferred while task management
// is in progress or the device is suspended.
func (d *Device) NCQError() {
	if d.STP() == nil {
		log.WithField("device", d.id).Warn("NCQ error on a non-STP device")
		return
	}

	d.readyEvent(readyNCQError)
}

// PollRecovery consumes an NCQ recovery poll token. A recovered request is
// retired and returned in the result for completion to its requester. When
// recovery ends for any reason the device leaves NCQ_ERROR.
func (d *Device) PollRecovery(seq uint64, table *request.Table) stp.Result {
	stpDev := d.STP()
	if stpDev == nil {
		return stp.Result{Outcome: stp.OutcomeStale}
	}

	res := stpDev.Recovery.Poll(seq, stpDev.Tags, table)

	switch res.Outcome {
	case stp.OutcomeStale, stp.OutcomePending:
		return res
	case stp.OutcomeRecovered:
		d.CompleteRequest(res.Request, table)
	}

	d.readyEvent(readyRecoveryDone)

	return res
}

// SetActivity records what an expander is busy with.
func (d *Device) SetActivity(a smp.Activity, target sas.DeviceID) {
	smpDev := d.SMP()
	if smpDev == nil {
		log.Panicf("%s: setting expander activity on a non-SMP device", d.id)
	}

	smpDev.Activity = a
	smpDev.ActivityTarget = target
}
