package hw

import (
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
)

// A Completion is a continuation token delivered by the hardware. The
// controller consumes each token exactly once.
type Completion interface {
	DeviceID() sas.DeviceID
	isCompletion()
}

// RNCCompletion reports the outcome of a posted RNC operation.
type RNCCompletion struct {
	Device sas.DeviceID
	Index  uint16
	Op     RNCOp
	Seq    uint64
	Err    error
}

// RequestCompletion reports that a posted request reached a terminal state.
type RequestCompletion struct {
	Device    sas.DeviceID
	Handle    request.Handle
	Status    request.CompletionStatus
	Registers sas.ATARegisters
}

// EventKind is an unsolicited device event.
type EventKind int

// Device events.
const (
	EventRNCSuspended EventKind = iota
	EventNCQError
	EventITNexusTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventRNCSuspended:
		return "rnc-suspended"
	case EventNCQError:
		return "ncq-error"
	case EventITNexusTimeout:
		return "it-nexus-timeout"
	default:
		return "unknown"
	}
}

// DeviceEvent reports an unsolicited event for a device.
type DeviceEvent struct {
	Device sas.DeviceID
	Kind   EventKind
}

// PollCompletion is delivered once per SchedulePoll call.
type PollCompletion struct {
	Device sas.DeviceID
	Seq    uint64
}

// ResetCompletion reports the end of a port hard reset.
type ResetCompletion struct {
	Device sas.DeviceID
	Err    error
}

// DeviceID returns the device the completion belongs to.
func (c RNCCompletion) DeviceID() sas.DeviceID { return c.Device }

// DeviceID returns the device the completion belongs to.
func (c RequestCompletion) DeviceID() sas.DeviceID { return c.Device }

// DeviceID returns the device the completion belongs to.
func (c DeviceEvent) DeviceID() sas.DeviceID { return c.Device }

// DeviceID returns the device the completion belongs to.
func (c PollCompletion) DeviceID() sas.DeviceID { return c.Device }

// DeviceID returns the device the completion belongs to.
func (c ResetCompletion) DeviceID() sas.DeviceID { return c.Device }

func (RNCCompletion) isCompletion()     {}
func (RequestCompletion) isCompletion() {}
func (DeviceEvent) isCompletion()       {}
func (PollCompletion) isCompletion()    {}
func (ResetCompletion) isCompletion()   {}
