// Package sas defines the vocabulary shared by every layer of the remote
// device lifecycle manager: the closed status set, protocol bitmasks,
// addresses, link rates, and the base device state enumeration.
package sas

import "errors"

// Status is the closed set of results returned by the lifecycle manager.
// Every operation returns either nil or one of these values; raw hardware
// error codes never cross this boundary.
type Status int

// The statuses that can be returned.
const (
	Success Status = iota
	FailureInvalidParameterValue
	FailureInvalidState
	FailureInsufficientResources
	FailureDeviceExists
	FailureUnsupportedProtocol
	FailureRemoteDeviceResetRequired
	FailureControllerError
)

var statusNames = map[Status]string{
	Success:                          "success",
	FailureInvalidParameterValue:     "invalid parameter value",
	FailureInvalidState:              "invalid state",
	FailureInsufficientResources:     "insufficient resources",
	FailureDeviceExists:              "device exists",
	FailureUnsupportedProtocol:       "unsupported protocol",
	FailureRemoteDeviceResetRequired: "remote device reset required",
	FailureControllerError:           "controller error",
}

// Error implements the error interface.
func (s Status) Error() string {
	return s.String()
}

// String returns a human readable name of the status.
func (s Status) String() string {
	name, found := statusNames[s]
	if !found {
		return "unknown status"
	}

	return name
}

// severity orders statuses from benign to fatal. The order is used when
// several operations are folded into a single result.
var severity = map[Status]int{
	Success:                          0,
	FailureInvalidParameterValue:     1,
	FailureInvalidState:              2,
	FailureRemoteDeviceResetRequired: 3,
	FailureDeviceExists:              4,
	FailureUnsupportedProtocol:       4,
	FailureInsufficientResources:     5,
	FailureControllerError:           6,
}

// Worse returns the more severe of the two statuses.
func Worse(a, b Status) Status {
	if severity[b] > severity[a] {
		return b
	}

	return a
}

// AsStatus converts an error returned by this module back to a Status. A nil
// error maps to Success and wrapped statuses are unwrapped. Errors that do
// not originate from this module map to FailureControllerError.
func AsStatus(err error) Status {
	if err == nil {
		return Success
	}

	var s Status
	if !errors.As(err, &s) {
		return FailureControllerError
	}

	return s
}

// Err converts a Status into an error, mapping Success to nil.
func (s Status) Err() error {
	if s == Success {
		return nil
	}

	return s
}
