package scenario_test

import (
	"context"
	"database/sql"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/sashba/config"
	"github.com/sarchlab/sashba/datarecording"
	"github.com/sarchlab/sashba/monitoring"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/scenario"
	"github.com/sarchlab/sashba/tracing"
)

type traceRow struct {
	ID        string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
}

var _ = Describe("Scenarios", func() {
	run := func(name string) scenario.Report {
		s, err := scenario.Find(name)
		Expect(err).NotTo(HaveOccurred())

		report, err := scenario.Run(s, scenario.MakeEnvBuilder())
		Expect(err).NotTo(HaveOccurred())

		return report
	}

	It("should list four scenarios", func() {
		names := []string{}
		for _, s := range scenario.All() {
			names = append(names, s.Name)
		}

		Expect(names).To(Equal([]string{
			"start-stop", "stop-outstanding", "ncq-error", "ea-target-reset",
		}))
	})

	It("should reject unknown scenarios", func() {
		_, err := scenario.Find("nope")

		Expect(err).To(MatchError(scenario.ErrUnknownScenario))
	})

	It("should start and stop devices", func() {
		report := run("start-stop")

		Expect(report.IOsCompleted).To(Equal(16))
		Expect(report.Stats.IOStarted).To(Equal(uint64(16)))
		Expect(report.Devices).To(BeEmpty())
		Expect(report.AvgLatency).To(BeNumerically(">", 0))
		Expect(report.ControllerErrors).To(BeZero())
	})

	It("should abort outstanding IO when stopping", func() {
		report := run("stop-outstanding")

		Expect(report.Stats.Terminated).To(Equal(uint64(4)))
		Expect(report.Hardware.Aborts).To(Equal(uint64(4)))
		Expect(report.IOsCompleted).To(Equal(4))
	})

	It("should isolate the failed NCQ command", func() {
		report := run("ncq-error")

		Expect(report.Stats.NCQErrors).To(Equal(uint64(1)))
		Expect(report.Stats.NCQRecovered).To(Equal(uint64(1)))
		Expect(report.Stats.Terminated).To(BeZero())
		Expect(report.Hardware.LogReads).To(Equal(uint64(1)))
		Expect(report.IOsCompleted).To(Equal(4))
	})

	It("should reset a device behind an expander", func() {
		report := run("ea-target-reset")

		Expect(report.TasksCompleted).To(Equal(1))
		Expect(report.Stats.TargetResets).To(Equal(uint64(1)))
		Expect(report.DiscoveryRequests).To(HaveLen(1))
		Expect(report.Devices).To(HaveLen(2))
		Expect(report.Devices[1].ConnectionRate).
			To(Equal(sas.LinkRate3_0G.String()))
	})

	It("should run with event logging", func() {
		s, err := scenario.Find("stop-outstanding")
		Expect(err).NotTo(HaveOccurred())

		_, err = scenario.Run(s, scenario.MakeEnvBuilder().WithEventLogging(true))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail a check with ErrCheckFailed", func() {
		env := scenario.MakeEnvBuilder().Build("check")
		id, err := scenario.ConstructDirect(env, 0x5000c50000000001, sas.ProtocolSSP, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(scenario.ExpectState(env, id, "READY", "")).To(MatchError(scenario.ErrCheckFailed))
		Expect(scenario.ExpectState(env, id, "STOPPED", "")).To(Succeed())
	})

	It("should refuse an invalid configuration", func() {
		cfg := config.Default()
		cfg.MaxDevices = 0

		Expect(func() { scenario.MakeEnvBuilder().WithConfig(cfg).Build("bad") }).
			To(Panic())
	})

	Context("with a recorder", func() {
		var db *sql.DB

		BeforeEach(func() {
			var err error
			db, err = sql.Open("sqlite3", ":memory:")
			Expect(err).NotTo(HaveOccurred())
			db.SetMaxOpenConns(1)
			DeferCleanup(db.Close)
		})

		It("should record the trace and the summary", func() {
			s, err := scenario.Find("start-stop")
			Expect(err).NotTo(HaveOccurred())

			b := scenario.MakeEnvBuilder().WithRecorder(datarecording.NewWithDB(db))
			_, err = scenario.Run(s, b)
			Expect(err).NotTo(HaveOccurred())

			reader := datarecording.NewReaderWithDB(db)
			reader.MapTable(scenario.SummaryTable, scenario.SummaryEntry{})
			reader.MapTable(tracing.TaskTable, traceRow{})

			ctx := context.Background()
			summaries, total, err := reader.Query(ctx, scenario.SummaryTable,
				datarecording.QueryParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(1))
			Expect(summaries[0].(*scenario.SummaryEntry).IOsCompleted).To(Equal(16))

			_, requests, err := reader.Query(ctx, tracing.TaskTable,
				datarecording.QueryParams{
					Where: "Kind = ?",
					Args:  []any{tracing.KindRequest},
				})
			Expect(err).NotTo(HaveOccurred())
			Expect(requests).To(Equal(16))

			states, _, err := reader.Query(ctx, tracing.TaskTable,
				datarecording.QueryParams{
					Where: "What = ?",
					Args:  []any{"device:STARTING"},
				})
			Expect(err).NotTo(HaveOccurred())
			Expect(states).To(HaveLen(2))
			Expect(states[0].(*traceRow).EndTime).
				To(BeNumerically(">", states[0].(*traceRow).StartTime))
		})
	})

	Context("with a monitor", func() {
		It("should track the IO progress", func() {
			m := monitoring.NewMonitor()
			env := scenario.MakeEnvBuilder().WithMonitor(m).Build("progress")

			id, err := scenario.ConstructDirect(env, 0x5000c50000000001, sas.ProtocolSSP, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(scenario.StartAll(env, id)).To(Succeed())

			_, err = env.StartIOs(id, 3, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Run()).To(Succeed())

			Expect(env.User.Progress().Done()).To(BeTrue())
			Expect(env.User.IOs()).To(HaveLen(3))
			Expect(env.User.IOs()[0].Status).To(Equal(request.StatusSuccess))

			env.Close()
		})
	})
})
