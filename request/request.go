// Package request defines the requests admitted to remote devices and the
// controller-wide table that tracks them while they are outstanding.
package request

import (
	"fmt"

	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
	"github.com/sarchlab/sashba/smp"
)

// Kind tells what a request carries.
type Kind int

// Request kinds.
const (
	KindIO Kind = iota
	KindTask
	KindSMP
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindTask:
		return "task"
	case KindSMP:
		return "smp"
	default:
		return "unknown"
	}
}

// TaskFunction is the task management function carried by a task request.
type TaskFunction int

// Task management functions.
const (
	TaskNone TaskFunction = iota
	TaskAbortTask
	TaskAbortTaskSet
	TaskClearTaskSet
	TaskLUNReset
	TaskTargetReset
	TaskClearACA
	TaskQueryTask
)

var taskFunctionNames = map[TaskFunction]string{
	TaskNone:         "none",
	TaskAbortTask:    "abort-task",
	TaskAbortTaskSet: "abort-task-set",
	TaskClearTaskSet: "clear-task-set",
	TaskLUNReset:     "lun-reset",
	TaskTargetReset:  "target-reset",
	TaskClearACA:     "clear-aca",
	TaskQueryTask:    "query-task",
}

func (f TaskFunction) String() string {
	name, found := taskFunctionNames[f]
	if !found {
		return "unknown"
	}

	return name
}

// CompletionStatus is the terminal status a request completes with.
type CompletionStatus int

// Completion statuses.
const (
	StatusPending CompletionStatus = iota
	StatusSuccess
	StatusDeviceError
	StatusAborted
	StatusFailed
)

func (s CompletionStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusDeviceError:
		return "device-error"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// NoTag marks a request that does not hold an NCQ tag.
const NoTag = -1

// A Request is an IO, task management, or SMP request addressed to one
// remote device.
type Request struct {
	ID     string
	Handle Handle
	Device sas.DeviceID
	Kind   Kind
	Task   TaskFunction

	// Queued requests an NCQ tag on STP devices. NCQTag is the assigned tag,
	// or NoTag.
	Queued bool
	NCQTag int

	// HighPriority requests are internal requests that may be admitted while
	// the device is in task management.
	HighPriority bool

	// ControllerOwned requests are carried out by the controller itself, for
	// example a target reset done as a link reset. They are counted against
	// the device but never posted to it and cannot be aborted.
	ControllerOwned bool

	// Internal requests are issued by the lifecycle manager. Their
	// completion is not reported to the user.
	Internal bool

	Terminating bool
	Status      CompletionStatus
	Registers   sas.ATARegisters

	// ResetTarget, Phy, and PhyOperation describe an SMP PHY CONTROL
	// request.
	ResetTarget  sas.DeviceID
	Phy          uint8
	PhyOperation smp.PhyOperation

	// Context is opaque to the lifecycle manager and handed back on
	// completion.
	Context interface{}
}

func newRequest(dev sas.DeviceID, kind Kind) *Request {
	return &Request{
		ID:     sim.GetIDGenerator().Generate(),
		Device: dev,
		Kind:   kind,
		NCQTag: NoTag,
	}
}

// NewIO creates an IO request.
func NewIO(dev sas.DeviceID) *Request {
	return newRequest(dev, KindIO)
}

// NewNCQ creates a queued IO request that needs an NCQ tag.
func NewNCQ(dev sas.DeviceID) *Request {
	r := newRequest(dev, KindIO)
	r.Queued = true

	return r
}

// NewTask creates a task management request.
func NewTask(dev sas.DeviceID, fn TaskFunction) *Request {
	r := newRequest(dev, KindTask)
	r.Task = fn

	return r
}

// NewSMPPhyControl creates an SMP PHY CONTROL (hard reset) request sent to an
// expander to reset the device attached to one of its phys.
func NewSMPPhyControl(
	expander sas.DeviceID,
	target sas.DeviceID,
	phy uint8,
) *Request {
	r := newRequest(expander, KindSMP)
	r.ResetTarget = target
	r.Phy = phy
	r.PhyOperation = smp.PhyOpHardReset
	r.HighPriority = true

	return r
}

// Tagged tells if the request currently holds an NCQ tag.
func (r *Request) Tagged() bool {
	return r.NCQTag != NoTag
}

func (r *Request) String() string {
	if r.Kind == KindTask {
		return fmt.Sprintf("%s(%s %s %s)", r.Kind, r.ID, r.Device, r.Task)
	}

	return fmt.Sprintf("%s(%s %s)", r.Kind, r.ID, r.Device)
}
