package framework

import "github.com/sarchlab/sashba/sas"

// StartingSubstate is the state of the starting sub-machine.
type StartingSubstate int

// Starting sub-machine states. StartingNone means the sub-machine is not
// active.
const (
	StartingNone StartingSubstate = iota
	StartingAwaitComplete
	StartingAwaitReady
)

func (s StartingSubstate) String() string {
	switch s {
	case StartingNone:
		return "NONE"
	case StartingAwaitComplete:
		return "AWAIT_COMPLETE"
	case StartingAwaitReady:
		return "AWAIT_READY"
	default:
		return "UNKNOWN"
	}
}

// ReadySubstate is the state of the ready sub-machine.
type ReadySubstate int

// Ready sub-machine states. ReadyNone means the sub-machine is not active.
const (
	ReadyNone ReadySubstate = iota
	ReadyOperational
	ReadySuspended
	ReadyTaskMgmt
	ReadyNCQError
)

func (s ReadySubstate) String() string {
	switch s {
	case ReadyNone:
		return "NONE"
	case ReadyOperational:
		return "OPERATIONAL"
	case ReadySuspended:
		return "SUSPENDED"
	case ReadyTaskMgmt:
		return "TASK_MGMT"
	case ReadyNCQError:
		return "NCQ_ERROR"
	default:
		return "UNKNOWN"
	}
}

type startingEvent int

const (
	startingStartComplete startingEvent = iota
	startingStartFailed
	startingReady
	startingStop
)

// startingTransition returns the next starting substate and the parent state
// it implies.
func startingTransition(
	s StartingSubstate,
	ev startingEvent,
) (StartingSubstate, sas.DeviceState, error) {
	if ev == startingStop {
		return StartingNone, sas.StateStopping, nil
	}

	switch s {
	case StartingAwaitComplete:
		switch ev {
		case startingStartComplete:
			return StartingAwaitReady, sas.StateStarting, nil
		case startingStartFailed:
			return StartingNone, sas.StateFailed, nil
		}
	case StartingAwaitReady:
		if ev == startingReady {
			return StartingNone, sas.StateReady, nil
		}
	}

	return s, sas.StateStarting, sas.FailureInvalidState
}

type readyEvent int

const (
	readyNotReady readyEvent = iota
	readyReady
	readyTaskStart
	readyTasksDone
	readyNCQError
	readyRecoveryDone
)

// readyFlags is what the ready sub-machine needs to know about the device
// when it settles.
type readyFlags struct {
	tasks         uint32
	ncqPending    bool
	awaitingReady bool
}

// settle picks the substate a device lands in when nothing holds it in its
// current one. Task management wins over everything else, and an NCQ error
// waits until the remote node is running.
func settle(f readyFlags) ReadySubstate {
	switch {
	case f.tasks > 0:
		return ReadyTaskMgmt
	case f.awaitingReady:
		return ReadySuspended
	case f.ncqPending:
		return ReadyNCQError
	default:
		return ReadyOperational
	}
}

// readyTransition returns the next ready substate. latch reports an NCQ
// error that cannot be handled in the current substate and must be kept
// until the device settles.
func readyTransition(
	s ReadySubstate,
	ev readyEvent,
	f readyFlags,
) (next ReadySubstate, latch bool) {
	switch ev {
	case readyNotReady:
		if s == ReadyOperational {
			return ReadySuspended, false
		}
	case readyReady:
		if s == ReadySuspended {
			return settle(f), false
		}
	case readyTaskStart:
		if s == ReadyOperational {
			return ReadyTaskMgmt, false
		}
	case readyTasksDone:
		if s == ReadyTaskMgmt {
			return settle(f), false
		}
	case readyNCQError:
		switch s {
		case ReadyOperational:
			return ReadyNCQError, false
		case ReadyTaskMgmt, ReadySuspended:
			return s, true
		}
	case readyRecoveryDone:
		if s == ReadyNCQError {
			return settle(f), false
		}
	}

	return s, false
}
