package tracing

import (
	"sync"

	"github.com/sarchlab/sashba/controller"
	"github.com/sarchlab/sashba/framework"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
)

// TraceController feeds a tracer with the requests of a controller and with
// the state residencies of its devices.
func TraceController(c *controller.Controller, tracer Tracer) {
	c.AcceptHook(&requestHook{t: tracer})
	c.AcceptDeviceHook(&stateHook{
		t:       tracer,
		current: make(map[stateKey]string),
	})
}

// What a request task does.
func requestWhat(req *request.Request) string {
	switch {
	case req.Kind == request.KindTask:
		return req.Task.String()
	case req.Kind == request.KindSMP:
		return "phy-control"
	case req.Queued:
		return "ncq-io"
	default:
		return "io"
	}
}

type requestHook struct {
	t Tracer
}

func (h *requestHook) Func(ctx sim.HookCtx) {
	req, ok := ctx.Item.(*request.Request)
	if !ok {
		return
	}

	switch ctx.Pos {
	case controller.HookPosRequestStart:
		h.t.StartTask(Task{
			ID:     req.ID,
			Kind:   KindRequest,
			What:   requestWhat(req),
			Where:  req.Device.String(),
			Detail: req,
		})
	case controller.HookPosRequestComplete:
		h.t.StepTask(Task{
			ID:    req.ID,
			Steps: []TaskStep{{What: req.Status.String()}},
		})
		h.t.EndTask(Task{ID: req.ID})
	}
}

type stateKey struct {
	device  sas.DeviceID
	machine string
}

// stateHook turns state changes into residency tasks. A residency in a
// resting state (NONE, FINAL) is not traced.
type stateHook struct {
	t Tracer

	lock    sync.Mutex
	current map[stateKey]string
}

func (h *stateHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != framework.HookPosStateChange {
		return
	}

	change := ctx.Item.(framework.StateChange)
	key := stateKey{device: change.Device, machine: change.Machine}

	h.lock.Lock()
	defer h.lock.Unlock()

	if id, ok := h.current[key]; ok {
		h.t.EndTask(Task{ID: id})
		delete(h.current, key)
	}

	if change.To == "NONE" || change.To == "FINAL" {
		return
	}

	where := change.Device.String()
	if named, ok := ctx.Domain.(sim.Named); ok {
		where = named.Name()
	}

	id := sim.GetIDGenerator().Generate()
	h.current[key] = id
	h.t.StartTask(Task{
		ID:     id,
		Kind:   KindState,
		What:   change.Machine + ":" + change.To,
		Where:  where,
		Detail: change,
	})
}
