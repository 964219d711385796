package framework

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sashba/sas"
)

var _ = DescribeTable("startingTransition",
	func(
		s StartingSubstate,
		ev startingEvent,
		next StartingSubstate,
		parent sas.DeviceState,
		ok bool,
	) {
		gotNext, gotParent, err := startingTransition(s, ev)

		Expect(gotNext).To(Equal(next))
		Expect(gotParent).To(Equal(parent))
		if ok {
			Expect(err).NotTo(HaveOccurred())
		} else {
			Expect(err).To(MatchError(sas.FailureInvalidState))
		}
	},
	Entry("start complete", StartingAwaitComplete, startingStartComplete,
		StartingAwaitReady, sas.StateStarting, true),
	Entry("start failed", StartingAwaitComplete, startingStartFailed,
		StartingNone, sas.StateFailed, true),
	Entry("ready", StartingAwaitReady, startingReady,
		StartingNone, sas.StateReady, true),
	Entry("stop awaiting complete", StartingAwaitComplete, startingStop,
		StartingNone, sas.StateStopping, true),
	Entry("stop awaiting ready", StartingAwaitReady, startingStop,
		StartingNone, sas.StateStopping, true),
	Entry("ready too early", StartingAwaitComplete, startingReady,
		StartingAwaitComplete, sas.StateStarting, false),
)

var _ = DescribeTable("readyTransition",
	func(
		s ReadySubstate,
		ev readyEvent,
		f readyFlags,
		next ReadySubstate,
		latch bool,
	) {
		gotNext, gotLatch := readyTransition(s, ev, f)

		Expect(gotNext).To(Equal(next))
		Expect(gotLatch).To(Equal(latch))
	},
	Entry("not ready", ReadyOperational, readyNotReady,
		readyFlags{awaitingReady: true}, ReadySuspended, false),
	Entry("ready again", ReadySuspended, readyReady,
		readyFlags{}, ReadyOperational, false),
	Entry("ready with a latched NCQ error", ReadySuspended, readyReady,
		readyFlags{ncqPending: true}, ReadyNCQError, false),
	Entry("task start", ReadyOperational, readyTaskStart,
		readyFlags{tasks: 1}, ReadyTaskMgmt, false),
	Entry("tasks done", ReadyTaskMgmt, readyTasksDone,
		readyFlags{}, ReadyOperational, false),
	Entry("tasks done with a latched NCQ error", ReadyTaskMgmt, readyTasksDone,
		readyFlags{ncqPending: true}, ReadyNCQError, false),
	Entry("tasks done while suspended", ReadyTaskMgmt, readyTasksDone,
		readyFlags{awaitingReady: true}, ReadySuspended, false),
	Entry("NCQ error", ReadyOperational, readyNCQError,
		readyFlags{}, ReadyNCQError, false),
	Entry("NCQ error in task management", ReadyTaskMgmt, readyNCQError,
		readyFlags{tasks: 1}, ReadyTaskMgmt, true),
	Entry("NCQ error while suspended", ReadySuspended, readyNCQError,
		readyFlags{awaitingReady: true}, ReadySuspended, true),
	Entry("NCQ error during recovery", ReadyNCQError, readyNCQError,
		readyFlags{}, ReadyNCQError, false),
	Entry("recovery done", ReadyNCQError, readyRecoveryDone,
		readyFlags{}, ReadyOperational, false),
	Entry("not ready during task management", ReadyTaskMgmt, readyNotReady,
		readyFlags{tasks: 1, awaitingReady: true}, ReadyTaskMgmt, false),
)
