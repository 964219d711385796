// Package hwsim simulates the controller hardware the lifecycle manager
// drives. Every posted operation completes as an event on a simulation
// engine, and the event delivers a completion token on the completion queue.
// Faults can be injected per device.
package hwsim

import (
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
	"github.com/sarchlab/sashba/stp"
)

// Processor consumes completion tokens.
type Processor interface {
	ProcessCompletions() int
}

// Stats counts the operations the hardware carried out.
type Stats struct {
	RNCPosts         uint64
	RequestPosts     uint64
	Aborts           uint64
	PortResets       uint64
	LogReads         uint64
	WedgeWorkarounds uint64
}

// NCQFault describes an injected NCQ error.
type NCQFault struct {
	// Tag is the tag the error log reports.
	Tag int

	// NotQueued marks the failed command as non-queued in the log.
	NotQueued bool

	// BadLog makes the log page fail its checksum.
	BadLog bool

	// NeverReady keeps the log read from ever finishing.
	NeverReady bool

	Registers sas.ATARegisters
}

type deviceFaults struct {
	failResumes int
	wedged      bool
	ncq         *NCQFault
}

type logRead struct {
	readyAt sim.VTimeInSec
	page    []byte
	never   bool
}

// Hardware is a simulated controller.
type Hardware struct {
	*sim.ComponentBase

	engine sim.Engine
	freq   sim.Freq
	queue  chan hw.Completion

	rncLatency     int
	requestLatency int
	resetLatency   int
	pollInterval   int
	logLatency     int
	autoComplete   bool

	faults      map[sas.DeviceID]*deviceFaults
	logs        map[sas.DeviceID]*logRead
	outstanding map[request.Handle]*request.Request
	dmaDisabled map[sas.DeviceID]bool
	rncOps      []hw.RNCRequest
	stats       Stats
}

func (h *Hardware) reset() {
	h.faults = make(map[sas.DeviceID]*deviceFaults)
	h.logs = make(map[sas.DeviceID]*logRead)
	h.outstanding = make(map[request.Handle]*request.Request)
	h.dmaDisabled = make(map[sas.DeviceID]bool)
}

// Completions returns the completion queue.
func (h *Hardware) Completions() <-chan hw.Completion {
	return h.queue
}

// Engine returns the engine the hardware runs on.
func (h *Hardware) Engine() sim.Engine {
	return h.engine
}

// Drive makes the engine hand every completion to the processor right
// after the event that produced it.
func (h *Hardware) Drive(p Processor) {
	h.engine.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos == sim.HookPosAfterEvent {
			p.ProcessCompletions()
		}
	}))
}

// Run runs the engine until no operation is in flight.
func (h *Hardware) Run() error {
	return h.engine.Run()
}

// Stats returns a copy of the counters.
func (h *Hardware) Stats() Stats {
	h.Lock()
	defer h.Unlock()

	return h.stats
}

// RNCOps returns every remote node context operation posted so far.
func (h *Hardware) RNCOps() []hw.RNCRequest {
	h.Lock()
	defer h.Unlock()

	return append([]hw.RNCRequest(nil), h.rncOps...)
}

// Outstanding returns the number of posted requests that have not
// completed.
func (h *Hardware) Outstanding() int {
	h.Lock()
	defer h.Unlock()

	return len(h.outstanding)
}

// DMADisabled tells if DMA is disabled on the port of a device.
func (h *Hardware) DMADisabled(dev sas.DeviceID) bool {
	h.Lock()
	defer h.Unlock()

	return h.dmaDisabled[dev]
}

func (h *Hardware) faultsOf(dev sas.DeviceID) *deviceFaults {
	f, ok := h.faults[dev]
	if !ok {
		f = &deviceFaults{}
		h.faults[dev] = f
	}

	return f
}

func (h *Hardware) later(cycles int) sim.VTimeInSec {
	return h.freq.NCyclesLater(cycles, h.engine.CurrentTime())
}

func (h *Hardware) schedule(cycles int, cpl hw.Completion) {
	h.engine.Schedule(&completionEvent{
		EventBase: sim.NewEventBase(h.later(cycles), h),
		cpl:       cpl,
	})
}

func (h *Hardware) scheduleRequest(cycles int, req *request.Request, status request.CompletionStatus) {
	h.engine.Schedule(&completionEvent{
		EventBase: sim.NewEventBase(h.later(cycles), h),
		cpl: hw.RequestCompletion{
			Device: req.Device,
			Handle: req.Handle,
			Status: status,
		},
		req: req,
	})
}

// PostRNC completes the operation after the RNC latency. A resume fails if
// a resume failure has been injected for the device.
func (h *Hardware) PostRNC(req hw.RNCRequest) {
	h.Lock()
	defer h.Unlock()

	h.stats.RNCPosts++
	h.rncOps = append(h.rncOps, req)

	var err error

	f := h.faultsOf(req.Device)
	if req.Op == hw.OpResume && f.failResumes > 0 {
		f.failResumes--
		err = sas.FailureControllerError
	}

	h.schedule(h.rncLatency, hw.RNCCompletion{
		Device: req.Device,
		Index:  req.Index,
		Op:     req.Op,
		Seq:    req.Seq,
		Err:    err,
	})
}

// PostRequest starts a request. SMP requests always complete on their own.
func (h *Hardware) PostRequest(req *request.Request) {
	h.Lock()
	defer h.Unlock()

	h.stats.RequestPosts++
	h.outstanding[req.Handle] = req

	if h.autoComplete || req.Kind == request.KindSMP {
		h.scheduleRequest(h.requestLatency, req, request.StatusSuccess)
	}
}

// CompleteRequest completes an outstanding request now.
func (h *Hardware) CompleteRequest(req *request.Request, status request.CompletionStatus) {
	h.Lock()
	defer h.Unlock()

	if h.outstanding[req.Handle] != req {
		log.Panicf("%s: completing %s that is not outstanding", h.Name(), req)
	}

	h.scheduleRequest(0, req, status)
}

// AbortRequest completes an outstanding request as aborted.
func (h *Hardware) AbortRequest(dev sas.DeviceID, handle request.Handle) error {
	h.Lock()
	defer h.Unlock()

	req, ok := h.outstanding[handle]
	if !ok || req.Device != dev {
		return sas.FailureInvalidParameterValue
	}

	h.stats.Aborts++
	delete(h.outstanding, handle)

	h.schedule(h.requestLatency/10, hw.RequestCompletion{
		Device: dev,
		Handle: handle,
		Status: request.StatusAborted,
	})

	return nil
}

// HardResetPort completes the reset after the reset latency.
func (h *Hardware) HardResetPort(port sas.PortID, dev sas.DeviceID) {
	h.Lock()
	defer h.Unlock()

	h.stats.PortResets++
	h.schedule(h.resetLatency, hw.ResetCompletion{Device: dev})
}

// DisableDMA disables DMA on the port of a device.
func (h *Hardware) DisableDMA(dev sas.DeviceID) {
	h.Lock()
	defer h.Unlock()

	h.dmaDisabled[dev] = true
}

// EnableDMA enables DMA on the port of a device.
func (h *Hardware) EnableDMA(dev sas.DeviceID) {
	h.Lock()
	defer h.Unlock()

	delete(h.dmaDisabled, dev)
}

// EngineWedged tells if a wedged task context engine has been injected.
func (h *Hardware) EngineWedged(dev sas.DeviceID) bool {
	h.Lock()
	defer h.Unlock()

	return h.faultsOf(dev).wedged
}

// ApplyWedgeWorkaround unwedges the task context engine.
func (h *Hardware) ApplyWedgeWorkaround(dev sas.DeviceID) {
	h.Lock()
	defer h.Unlock()

	h.stats.WedgeWorkarounds++
	h.faultsOf(dev).wedged = false
}

// IssueReadLogExt starts reading the NCQ error log of the injected fault.
func (h *Hardware) IssueReadLogExt(dev sas.DeviceID, page uint8) {
	h.Lock()
	defer h.Unlock()

	h.stats.LogReads++

	read := &logRead{readyAt: h.later(h.logLatency)}

	f := h.faultsOf(dev)
	switch {
	case page != hw.NCQLogPage || f.ncq == nil:
		read.page = stp.NCQErrorLog{NotQueued: true}.Encode()
	case f.ncq.NeverReady:
		read.never = true
	default:
		read.page = stp.NCQErrorLog{
			Tag:       f.ncq.Tag,
			NotQueued: f.ncq.NotQueued,
			Registers: f.ncq.Registers,
		}.Encode()

		if f.ncq.BadLog {
			read.page[stp.NCQLogSize-1]++
		}
	}

	f.ncq = nil
	h.logs[dev] = read
}

// PollReadLogExt returns the log page once the read has finished.
func (h *Hardware) PollReadLogExt(dev sas.DeviceID) ([]byte, bool) {
	h.Lock()
	defer h.Unlock()

	read, ok := h.logs[dev]
	if !ok || read.never || h.engine.CurrentTime() < read.readyAt {
		return nil, false
	}

	delete(h.logs, dev)

	return read.page, true
}

// SchedulePoll delivers a poll token after the poll interval.
func (h *Hardware) SchedulePoll(dev sas.DeviceID, seq uint64) {
	h.Lock()
	defer h.Unlock()

	h.schedule(h.pollInterval, hw.PollCompletion{Device: dev, Seq: seq})
}

// FailNextResumes makes the next n resumes of a device fail.
func (h *Hardware) FailNextResumes(dev sas.DeviceID, n int) {
	h.Lock()
	defer h.Unlock()

	h.faultsOf(dev).failResumes = n
}

// WedgeEngine makes the task context engine of a device report wedged.
func (h *Hardware) WedgeEngine(dev sas.DeviceID) {
	h.Lock()
	defer h.Unlock()

	h.faultsOf(dev).wedged = true
}

// InjectNCQError makes a device report an NCQ error. When the log will name
// the failed command, the request holding the fault's tag stops completing
// on its own.
func (h *Hardware) InjectNCQError(dev sas.DeviceID, fault NCQFault) {
	h.Lock()
	defer h.Unlock()

	usable := !fault.NotQueued && !fault.BadLog && !fault.NeverReady
	for handle, req := range h.outstanding {
		if usable && req.Device == dev && req.NCQTag == fault.Tag {
			delete(h.outstanding, handle)
		}
	}

	h.faultsOf(dev).ncq = &fault
	h.schedule(0, hw.DeviceEvent{Device: dev, Kind: hw.EventNCQError})
}

// InjectEvent raises an unsolicited device event.
func (h *Hardware) InjectEvent(dev sas.DeviceID, kind hw.EventKind) {
	h.Lock()
	defer h.Unlock()

	h.schedule(0, hw.DeviceEvent{Device: dev, Kind: kind})
}

type completionEvent struct {
	*sim.EventBase
	cpl hw.Completion

	// req is set for requests that complete on their own. The completion
	// is dropped if the request was aborted first.
	req *request.Request
}

// Handle delivers the completion of an event.
func (h *Hardware) Handle(e sim.Event) error {
	evt := e.(*completionEvent)

	if evt.req != nil {
		h.Lock()
		if h.outstanding[evt.req.Handle] != evt.req {
			h.Unlock()
			return nil
		}
		delete(h.outstanding, evt.req.Handle)
		h.Unlock()
	}

	h.queue <- evt.cpl

	return nil
}
