package tracing

import "github.com/sarchlab/sashba/sim"

// Kinds of traced tasks.
const (
	// KindRequest tasks span a request from admission to retirement.
	KindRequest = "request"

	// KindState tasks span the time a device spends in one state or
	// substate.
	KindState = "state"
)

// A TaskStep is a milestone reached while a task runs.
type TaskStep struct {
	Time sim.VTimeInSec `json:"time"`
	What string         `json:"what"`
}

// A Task is something that takes time: a request or a state residency.
type Task struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"parent_id"`
	Kind      string         `json:"kind"`
	What      string         `json:"what"`
	Where     string         `json:"where"`
	StartTime sim.VTimeInSec `json:"start_time"`
	EndTime   sim.VTimeInSec `json:"end_time"`
	Steps     []TaskStep     `json:"steps"`
	Detail    interface{}    `json:"-"`
}

// TaskFilter selects the tasks a tracer cares about.
type TaskFilter func(t Task) bool

// KindIs selects the tasks of one kind.
func KindIs(kind string) TaskFilter {
	return func(t Task) bool { return t.Kind == kind }
}

// WhatIs selects the tasks of one kind doing one thing.
func WhatIs(kind, what string) TaskFilter {
	return func(t Task) bool { return t.Kind == kind && t.What == what }
}
