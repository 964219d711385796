// Package hw is the boundary between the lifecycle manager and the controller
// hardware. Posts return immediately; their outcomes come back later as
// Completion values on the controller's completion queue.
package hw

import (
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
)

// RNCOp is an operation posted against a remote node context slot.
type RNCOp int

// RNC operations.
const (
	OpResume RNCOp = iota
	OpSuspendTx
	OpSuspendTxRx
	OpInvalidate
)

func (op RNCOp) String() string {
	switch op {
	case OpResume:
		return "resume"
	case OpSuspendTx:
		return "suspend-tx"
	case OpSuspendTxRx:
		return "suspend-tx-rx"
	case OpInvalidate:
		return "invalidate"
	default:
		return "unknown"
	}
}

// RNCRequest is one post to the hardware remote node table.
type RNCRequest struct {
	Device sas.DeviceID
	Index  uint16
	Op     RNCOp
	Seq    uint64
}

// NCQLogPage is the READ LOG EXT page that reports the failed NCQ command.
const NCQLogPage uint8 = 0x10

// Hardware is everything the lifecycle manager asks of the controller.
type Hardware interface {
	// PostRNC posts an RNC operation. It completes with an RNCCompletion
	// carrying the same sequence number.
	PostRNC(req RNCRequest)

	// PostRequest posts an IO, task, or SMP request. It completes with a
	// RequestCompletion.
	PostRequest(req *request.Request)

	// AbortRequest is the terminate primitive. The aborted request completes
	// with a RequestCompletion.
	AbortRequest(dev sas.DeviceID, h request.Handle) error

	// HardResetPort resets the link of a direct-attached device. It
	// completes with a ResetCompletion.
	HardResetPort(port sas.PortID, dev sas.DeviceID)

	DisableDMA(dev sas.DeviceID)
	EnableDMA(dev sas.DeviceID)

	// EngineWedged tells if the task context engine of the device's port is
	// in the state that needs the vendor workaround.
	EngineWedged(dev sas.DeviceID) bool
	ApplyWedgeWorkaround(dev sas.DeviceID)

	// IssueReadLogExt starts the diagnostic log read. PollReadLogExt returns
	// the page once the command has finished.
	IssueReadLogExt(dev sas.DeviceID, page uint8)
	PollReadLogExt(dev sas.DeviceID) (data []byte, done bool)

	// SchedulePoll asks for a PollCompletion carrying seq after one poll
	// interval.
	SchedulePoll(dev sas.DeviceID, seq uint64)
}
