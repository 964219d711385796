package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sashba/controller"
	"github.com/sarchlab/sashba/domain"
	"github.com/sarchlab/sashba/hwsim"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
)

var _ = Describe("TraceController", func() {
	var (
		engine   *sim.SerialEngine
		hardware *hwsim.Hardware
		c        *controller.Controller
		id       sas.DeviceID
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		hardware = hwsim.MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithRNCLatency(10).
			WithRequestLatency(100).
			Build("HW")
		c = controller.MakeBuilder().
			WithHardware(hardware).
			WithCompletionQueue(hardware.Completions()).
			WithDomain(domain.New("Domain")).
			Build("Controller")
		hardware.Drive(c)

		var err error
		id, err = c.ConstructDirectAttached(controller.DirectAttachedParams{
			Address:   0x5000c50000000001,
			Protocols: sas.ProtocolSSP,
			Port:      0,
			PortWidth: 1,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should trace the time a device spends starting", func() {
		starting := NewTimeTracer(engine, WhatIs(KindState, "device:STARTING"))
		ready := NewTimeTracer(engine, WhatIs(KindState, "device:READY"))
		TraceController(c, starting)
		TraceController(c, ready)

		Expect(c.Start(id)).To(Succeed())
		Expect(hardware.Run()).To(Succeed())

		Expect(starting.Count()).To(Equal(uint64(1)))
		Expect(starting.TotalTime()).To(BeNumerically("~", 10e-9, 1e-12))
		Expect(ready.InflightCount()).To(Equal(1))
	})

	It("should trace requests from start to retirement", func() {
		Expect(c.Start(id)).To(Succeed())
		Expect(hardware.Run()).To(Succeed())

		requests := NewTimeTracer(engine, KindIs(KindRequest))
		busy := NewBusyTimeTracer(engine, WhatIs(KindRequest, "io"))
		TraceController(c, requests)
		TraceController(c, busy)

		for i := 0; i < 2; i++ {
			Expect(c.StartIO(request.NewIO(id))).To(Succeed())
		}
		Expect(hardware.Run()).To(Succeed())

		Expect(requests.Count()).To(Equal(uint64(2)))
		Expect(requests.MaxTime()).To(BeNumerically("~", 100e-9, 1e-12))
		Expect(busy.BusyTime()).To(BeNumerically("~", 100e-9, 1e-12))
	})

	It("should not trace resting states", func() {
		states := NewTimeTracer(engine, KindIs(KindState))
		TraceController(c, states)

		Expect(c.Start(id)).To(Succeed())
		Expect(hardware.Run()).To(Succeed())
		Expect(c.Stop(id)).To(Succeed())
		Expect(hardware.Run()).To(Succeed())
		Expect(c.Destruct(id)).To(Succeed())

		Expect(states.InflightCount()).To(Equal(0))
	})
})
