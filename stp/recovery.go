package stp

import (
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
)

// Outcome is how one run of NCQ error recovery ended.
type Outcome int

// Recovery outcomes.
const (
	// OutcomeStale means the poll token did not belong to the current run.
	OutcomeStale Outcome = iota
	OutcomePending
	OutcomeRecovered
	OutcomeNothingUsable
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStale:
		return "stale"
	case OutcomePending:
		return "pending"
	case OutcomeRecovered:
		return "recovered"
	case OutcomeNothingUsable:
		return "nothing-usable"
	case OutcomeTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Reason tells why a log page yielded nothing usable.
type Reason int

// Reasons for OutcomeNothingUsable.
const (
	ReasonNone Reason = iota
	// ReasonNotQueued means the device reported a non-queued command.
	ReasonNotQueued
	// ReasonNoMatch means the reported tag has no outstanding request. The
	// command most likely completed through another path.
	ReasonNoMatch
	// ReasonBadLog means the page could not be decoded.
	ReasonBadLog
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotQueued:
		return "not-queued"
	case ReasonNoMatch:
		return "no-match"
	case ReasonBadLog:
		return "bad-log"
	default:
		return "unknown"
	}
}

// Result reports a poll of the recovery sequence.
type Result struct {
	Outcome Outcome
	Reason  Reason
	Log     NCQErrorLog

	// Request is the evicted request when the outcome is OutcomeRecovered.
	// Its tag has been released and its status and registers are set.
	Request *request.Request
}

// Recovery runs the NCQ error recovery sequence of one device. Each run
// disables DMA, reads the NCQ error log, polls for it within a budget, and
// re-enables DMA when it ends.
type Recovery struct {
	device sas.DeviceID
	hw     hw.Hardware
	budget int

	active bool
	seq    uint64
	polls  int
}

// NewRecovery creates the recovery sequence of a device. The budget is the
// number of polls after which the log read is abandoned.
func NewRecovery(dev sas.DeviceID, hardware hw.Hardware, budget int) *Recovery {
	if budget < 1 {
		log.Panicf("invalid NCQ poll budget %d", budget)
	}

	return &Recovery{
		device: dev,
		hw:     hardware,
		budget: budget,
	}
}

// Active tells if a run is in progress.
func (r *Recovery) Active() bool {
	return r.active
}

// Begin starts a run. Starting while a run is active does nothing.
func (r *Recovery) Begin() {
	if r.active {
		return
	}

	r.active = true
	r.polls = 0

	r.hw.DisableDMA(r.device)

	if r.hw.EngineWedged(r.device) {
		log.WithField("device", r.device).
			Info("task context engine wedged, applying workaround")
		r.hw.ApplyWedgeWorkaround(r.device)
	}

	r.hw.IssueReadLogExt(r.device, hw.NCQLogPage)
	r.schedulePoll()
}

func (r *Recovery) schedulePoll() {
	r.seq++
	r.hw.SchedulePoll(r.device, r.seq)
}

// Poll consumes a poll token. While the log read has not finished and the
// budget allows, another poll is scheduled.
func (r *Recovery) Poll(
	seq uint64,
	tags *TagPool,
	table *request.Table,
) Result {
	if !r.active || seq != r.seq {
		return Result{Outcome: OutcomeStale}
	}

	r.polls++

	page, done := r.hw.PollReadLogExt(r.device)
	if !done {
		if r.polls >= r.budget {
			r.finish()
			return Result{Outcome: OutcomeTimedOut}
		}

		r.schedulePoll()

		return Result{Outcome: OutcomePending}
	}

	res := r.evaluate(page, tags, table)
	r.finish()

	return res
}

func (r *Recovery) evaluate(
	page []byte,
	tags *TagPool,
	table *request.Table,
) Result {
	l, err := DecodeNCQErrorLog(page)
	if err != nil {
		return Result{Outcome: OutcomeNothingUsable, Reason: ReasonBadLog}
	}

	if l.NotQueued {
		return Result{
			Outcome: OutcomeNothingUsable,
			Reason:  ReasonNotQueued,
			Log:     l,
		}
	}

	h, ok := tags.Lookup(l.Tag)
	if !ok {
		return Result{Outcome: OutcomeNothingUsable, Reason: ReasonNoMatch, Log: l}
	}

	req, ok := table.Get(h)
	if !ok {
		return Result{Outcome: OutcomeNothingUsable, Reason: ReasonNoMatch, Log: l}
	}

	tags.Free(l.Tag)
	req.NCQTag = request.NoTag
	req.Status = request.StatusDeviceError
	req.Registers = l.Registers

	return Result{Outcome: OutcomeRecovered, Log: l, Request: req}
}

func (r *Recovery) finish() {
	r.active = false
	r.hw.EnableDMA(r.device)
}
