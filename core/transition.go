package core

import (
	"github.com/sarchlab/sashba/sas"
)

// Event drives the core device state machine.
type Event int

// Core device events.
const (
	EventConstruct Event = iota
	EventStart
	EventStop
	EventResumeDone
	EventResumeFailed
	EventDestructDone
	EventReset
	EventResetComplete
	EventFail
	EventDestruct
)

var eventNames = [...]string{
	EventConstruct:     "construct",
	EventStart:         "start",
	EventStop:          "stop",
	EventResumeDone:    "resume-done",
	EventResumeFailed:  "resume-failed",
	EventDestructDone:  "destruct-done",
	EventReset:         "reset",
	EventResetComplete: "reset-complete",
	EventFail:          "fail",
	EventDestruct:      "destruct",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return "unknown"
	}

	return eventNames[e]
}

type effect int

const (
	effectResumeRNC effect = iota
	effectSuspendRNC
	effectDestructRNC
	effectTerminate
	effectReleaseRNC
	effectBumpSequence
	effectStartComplete
	effectStartFailed
	effectReady
	effectNotReadyStart
	effectNotReadyStop
	effectNotReadyReset
	effectNotReadyFailed
	effectStopComplete
)

// transition is the core device state machine. It returns the next state and
// the effects to carry out, in order: exit effects of the old state, entry
// effects of the new state, then the effects of the event itself.
func transition(
	from sas.DeviceState,
	ev Event,
	started uint32,
) (sas.DeviceState, []effect, error) {
	to, effects, err := next(from, ev, started)
	if err != nil {
		return from, nil, err
	}

	if to == from {
		return to, effects, nil
	}

	all := exitEffects(from, to)
	all = append(all, entryEffects(from, to, started)...)
	all = append(all, effects...)

	return to, all, nil
}

//nolint:gocyclo
func next(
	from sas.DeviceState,
	ev Event,
	started uint32,
) (sas.DeviceState, []effect, error) {
	// Hardware resume outcomes that arrive in a state not waiting for them
	// are dropped.
	if ev == EventResumeDone || ev == EventResumeFailed {
		switch from {
		case sas.StateStarting:
			if ev == EventResumeDone {
				return sas.StateReady, nil, nil
			}

			return sas.StateFailed, nil, nil
		case sas.StateReady:
			if ev == EventResumeDone {
				return sas.StateReady, []effect{effectReady}, nil
			}

			return sas.StateFailed, nil, nil
		default:
			return from, nil, nil
		}
	}

	switch from {
	case sas.StateInitial:
		if ev == EventConstruct {
			return sas.StateStopped, nil, nil
		}
	case sas.StateStopped:
		switch ev {
		case EventStart:
			return sas.StateStarting, nil, nil
		case EventStop:
			return sas.StateStopped, nil, nil
		case EventFail:
			return sas.StateFailed, nil, nil
		case EventDestruct:
			return sas.StateFinal, nil, nil
		}
	case sas.StateStarting, sas.StateReady, sas.StateResetting:
		switch ev {
		case EventStop:
			return sas.StateStopping, nil, nil
		case EventFail:
			return sas.StateFailed, nil, nil
		case EventReset:
			if from == sas.StateReady {
				return sas.StateResetting, nil, nil
			}
		case EventResetComplete:
			if from == sas.StateResetting {
				return sas.StateReady, nil, nil
			}
		}
	case sas.StateStopping:
		switch ev {
		case EventStop:
			if started > 0 {
				return sas.StateStopping, []effect{effectTerminate}, nil
			}

			return sas.StateStopping, nil, nil
		case EventDestructDone:
			return sas.StateStopped, nil, nil
		}
	case sas.StateFailed:
		if ev == EventStop {
			return sas.StateStopping, nil, nil
		}
	}

	return from, nil, sas.FailureInvalidState
}

func exitEffects(from, to sas.DeviceState) []effect {
	switch from {
	case sas.StateStarting:
		switch to {
		case sas.StateReady:
			return []effect{effectStartComplete}
		case sas.StateFailed:
			return []effect{effectStartFailed}
		}
	case sas.StateReady:
		switch to {
		case sas.StateStopping:
			return []effect{effectNotReadyStop}
		case sas.StateResetting:
			return []effect{effectNotReadyReset}
		case sas.StateFailed:
			return []effect{effectNotReadyFailed}
		}
	case sas.StateResetting:
		if to == sas.StateReady {
			return []effect{effectResumeRNC}
		}
	}

	return nil
}

func entryEffects(from, to sas.DeviceState, started uint32) []effect {
	switch to {
	case sas.StateStarting:
		return []effect{effectNotReadyStart, effectResumeRNC}
	case sas.StateReady:
		if from == sas.StateStarting {
			return []effect{effectBumpSequence, effectReady}
		}

		return []effect{effectBumpSequence}
	case sas.StateResetting:
		return []effect{effectSuspendRNC}
	case sas.StateStopping:
		if started == 0 {
			return []effect{effectDestructRNC}
		}

		return []effect{effectTerminate}
	case sas.StateStopped:
		if from == sas.StateStopping {
			return []effect{effectStopComplete}
		}
	case sas.StateFinal:
		return []effect{effectReleaseRNC}
	}

	return nil
}
