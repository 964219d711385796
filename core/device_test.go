package core

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/rnc"
	"github.com/sarchlab/sashba/sas"
)

var _ = Describe("Device", func() {
	var (
		mockCtrl   *gomock.Controller
		hardware   *MockHardware
		listener   *MockListener
		terminator *MockTerminator
		pool       *rnc.Pool
		dev        *Device
		posted     []hw.RNCRequest
	)

	completeLast := func(err error) {
		req := posted[len(posted)-1]
		dev.HandleRNC(hw.RNCCompletion{
			Device: req.Device,
			Index:  req.Index,
			Op:     req.Op,
			Seq:    req.Seq,
			Err:    err,
		})
	}

	startDevice := func() {
		listener.EXPECT().NotReady(ReasonStartRequested)
		listener.EXPECT().StartComplete(nil)
		listener.EXPECT().Ready()

		Expect(dev.Start()).To(Succeed())
		completeLast(nil)
		Expect(dev.State()).To(Equal(sas.StateReady))
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		hardware = NewMockHardware(mockCtrl)
		listener = NewMockListener(mockCtrl)
		terminator = NewMockTerminator(mockCtrl)
		posted = nil
		hardware.EXPECT().PostRNC(gomock.Any()).
			Do(func(req hw.RNCRequest) {
				posted = append(posted, req)
			}).
			AnyTimes()

		pool = rnc.NewPool(4)

		var err error
		dev, err = NewDevice(Params{
			ID:          1,
			Address:     0x5000c50000000001,
			Protocols:   sas.ProtocolSSP,
			PortMaxRate: sas.LinkRate6_0G,
		}, pool, hardware, listener, terminator)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should be stopped after construction", func() {
		Expect(dev.State()).To(Equal(sas.StateStopped))
		Expect(pool.InUse()).To(Equal(1))
		Expect(dev.RNC().Index()).To(Equal(rnc.Index(0)))
	})

	It("should fail construction when the node table is full", func() {
		small := rnc.NewPool(1)
		_, err := NewDevice(Params{ID: 2, Protocols: sas.ProtocolSSP},
			small, hardware, listener, terminator)
		Expect(err).NotTo(HaveOccurred())

		_, err = NewDevice(Params{ID: 3, Protocols: sas.ProtocolSSP},
			small, hardware, listener, terminator)

		Expect(err).To(MatchError(sas.FailureInsufficientResources))
	})

	It("should reject a device without protocols", func() {
		_, err := NewDevice(Params{ID: 2}, pool, hardware, listener, terminator)

		Expect(err).To(MatchError(sas.FailureUnsupportedProtocol))
		Expect(pool.InUse()).To(Equal(1))
	})

	It("should become ready only after the resume completes", func() {
		listener.EXPECT().NotReady(ReasonStartRequested)
		Expect(dev.Start()).To(Succeed())

		Expect(dev.State()).To(Equal(sas.StateStarting))
		Expect(posted).To(HaveLen(1))
		Expect(posted[0].Op).To(Equal(hw.OpResume))

		listener.EXPECT().StartComplete(nil)
		listener.EXPECT().Ready()
		completeLast(nil)

		Expect(dev.State()).To(Equal(sas.StateReady))
		Expect(dev.Sequence()).To(Equal(uint32(1)))
	})

	It("should fail when the resume fails while starting", func() {
		listener.EXPECT().NotReady(ReasonStartRequested)
		listener.EXPECT().StartComplete(sas.FailureControllerError)
		Expect(dev.Start()).To(Succeed())

		completeLast(errors.New("no slot"))

		Expect(dev.State()).To(Equal(sas.StateFailed))
		Expect(dev.Reset()).To(MatchError(sas.FailureInvalidState))
	})

	It("should stop a failed device without posting", func() {
		listener.EXPECT().NotReady(ReasonStartRequested)
		listener.EXPECT().StartComplete(sas.FailureControllerError)
		Expect(dev.Start()).To(Succeed())
		completeLast(errors.New("no slot"))

		listener.EXPECT().StopComplete(nil)
		Expect(dev.Stop()).To(Succeed())

		Expect(dev.State()).To(Equal(sas.StateStopped))
		Expect(posted).To(HaveLen(1))
	})

	It("should reject requests outside READY", func() {
		Expect(dev.StartIO(request.NewIO(1))).
			To(MatchError(sas.FailureInvalidState))
		Expect(dev.StartedIOCount()).To(Equal(uint32(0)))
	})

	It("should run the normal start and stop sequence", func() {
		startDevice()

		req := request.NewIO(1)
		hardware.EXPECT().PostRequest(req)
		Expect(dev.StartIO(req)).To(Succeed())
		Expect(dev.StartedIOCount()).To(Equal(uint32(1)))

		dev.CompleteIO(req)
		Expect(dev.StartedIOCount()).To(Equal(uint32(0)))

		listener.EXPECT().NotReady(ReasonStopRequested)
		Expect(dev.Stop()).To(Succeed())

		Expect(dev.State()).To(Equal(sas.StateStopping))
		Expect(posted[len(posted)-1].Op).To(Equal(hw.OpInvalidate))

		listener.EXPECT().StopComplete(nil)
		completeLast(nil)

		Expect(dev.State()).To(Equal(sas.StateStopped))

		Expect(dev.Destruct()).To(Succeed())
		Expect(dev.State()).To(Equal(sas.StateFinal))
		Expect(pool.InUse()).To(Equal(0))
	})

	It("should defer the destruct until outstanding requests complete", func() {
		startDevice()

		reqs := []*request.Request{}
		for i := 0; i < 3; i++ {
			req := request.NewIO(1)
			hardware.EXPECT().PostRequest(req)
			Expect(dev.StartIO(req)).To(Succeed())
			reqs = append(reqs, req)
		}

		listener.EXPECT().NotReady(ReasonStopRequested)
		terminator.EXPECT().TerminateRequests(sas.DeviceID(1)).Return(nil)
		Expect(dev.Stop()).To(Succeed())

		numPosted := len(posted)
		dev.CompleteIO(reqs[0])
		dev.CompleteIO(reqs[1])
		Expect(posted).To(HaveLen(numPosted))
		Expect(dev.StartedIOCount()).To(Equal(uint32(1)))

		dev.CompleteIO(reqs[2])

		Expect(posted).To(HaveLen(numPosted + 1))
		Expect(posted[numPosted].Op).To(Equal(hw.OpInvalidate))
		Expect(dev.StartedIOCount()).To(Equal(uint32(0)))

		listener.EXPECT().StopComplete(nil)
		completeLast(nil)
		Expect(dev.State()).To(Equal(sas.StateStopped))
	})

	It("should terminate again on a second stop", func() {
		startDevice()
		req := request.NewIO(1)
		hardware.EXPECT().PostRequest(req)
		Expect(dev.StartIO(req)).To(Succeed())

		listener.EXPECT().NotReady(ReasonStopRequested)
		terminator.EXPECT().TerminateRequests(sas.DeviceID(1)).
			Return(nil).Times(2)

		Expect(dev.Stop()).To(Succeed())
		Expect(dev.Stop()).To(Succeed())
	})

	It("should panic on a completion without a start", func() {
		startDevice()

		Expect(func() { dev.CompleteIO(request.NewIO(1)) }).To(Panic())
	})

	It("should suspend before a reset and resume after it", func() {
		startDevice()

		listener.EXPECT().NotReady(ReasonResetRequested)
		Expect(dev.Reset()).To(Succeed())

		Expect(dev.State()).To(Equal(sas.StateResetting))
		Expect(posted[len(posted)-1].Op).To(Equal(hw.OpSuspendTxRx))
		completeLast(nil)

		Expect(dev.ResetComplete()).To(Succeed())
		Expect(posted[len(posted)-1].Op).To(Equal(hw.OpResume))
		Expect(dev.State()).To(Equal(sas.StateReady))

		listener.EXPECT().Ready()
		completeLast(nil)
		Expect(dev.Sequence()).To(Equal(uint32(2)))
	})

	It("should report a hardware suspension and resume on request", func() {
		startDevice()

		listener.EXPECT().NotReady(ReasonRNCSuspended)
		dev.HandleEvent(hw.EventRNCSuspended)
		Expect(dev.RNC().State()).To(Equal(rnc.StateTxRxSuspended))

		Expect(dev.Resume()).To(Succeed())
		listener.EXPECT().Ready()
		completeLast(nil)

		Expect(dev.RNC().State()).To(Equal(rnc.StateReady))
	})

	It("should suspend on an I_T nexus timeout", func() {
		startDevice()

		listener.EXPECT().NotReady(ReasonITNexusTimeout)
		dev.HandleEvent(hw.EventITNexusTimeout)

		Expect(posted[len(posted)-1].Op).To(Equal(hw.OpSuspendTxRx))
	})

	It("should not post controller owned tasks", func() {
		startDevice()

		task := request.NewTask(1, request.TaskTargetReset)
		task.ControllerOwned = true

		Expect(dev.StartTask(task)).To(Succeed())
		Expect(dev.StartedIOCount()).To(Equal(uint32(1)))
	})

	Context("connection rate", func() {
		It("should use the port rate for direct-attached devices", func() {
			Expect(dev.ConnectionRate()).To(Equal(sas.LinkRate6_0G))
		})

		It("should use the slower rate for expander-attached devices", func() {
			ea, err := NewDevice(Params{
				ID:             2,
				Protocols:      sas.ProtocolSTP,
				PortMaxRate:    sas.LinkRate6_0G,
				NegotiatedRate: sas.LinkRate3_0G,
			}, pool, hardware, listener, terminator)

			Expect(err).NotTo(HaveOccurred())
			Expect(ea.ConnectionRate()).To(Equal(sas.LinkRate3_0G))
			Expect(ea.SuggestedResetTimeout()).To(Equal(SignatureFISResetTimeout))
		})

		It("should keep the rate within the negotiated range", func() {
			Expect(dev.SetMaxConnectionRate(sas.LinkRate3_0G)).To(Succeed())
			Expect(dev.ConnectionRate()).To(Equal(sas.LinkRate3_0G))
			Expect(dev.SetMaxConnectionRate(sas.LinkRate6_0G)).To(Succeed())
			Expect(dev.SetMaxConnectionRate(sas.LinkRateUnknown)).
				To(MatchError(sas.FailureInvalidParameterValue))
			Expect(dev.SuggestedResetTimeout()).To(Equal(DefaultResetTimeout))
		})
	})
})
