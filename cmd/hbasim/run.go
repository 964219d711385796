package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sarchlab/sashba/datarecording"
	"github.com/sarchlab/sashba/monitoring"
	"github.com/sarchlab/sashba/scenario"
)

type runOptions struct {
	*rootOptions

	traceDB     string
	record      bool
	monitor     bool
	monitorPort int
	openBrowser bool
	hold        bool
	logEvents   bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	runCmd := &cobra.Command{
		Use:   "run [scenario...|all]",
		Short: "Run scenarios.",
		Long: "Run the named scenarios, or every scenario with `all`. " +
			"The command fails if any scenario check fails.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout(), args)
		},
	}

	runCmd.Flags().BoolVar(&opts.record, "record", false,
		"record traces and summaries into SQLite databases")
	runCmd.Flags().StringVar(&opts.traceDB, "trace-db", "",
		"database name prefix, a unique name is picked when empty")
	runCmd.Flags().BoolVar(&opts.monitor, "monitor", false,
		"serve the monitor while running")
	runCmd.Flags().IntVar(&opts.monitorPort, "monitor-port", 0,
		"monitor port, a random port is used when 0")
	runCmd.Flags().BoolVar(&opts.openBrowser, "open-browser", false,
		"open the monitor in the default browser")
	runCmd.Flags().BoolVar(&opts.hold, "hold", false,
		"keep the monitor serving until interrupted")

	runCmd.Flags().BoolVar(&opts.logEvents, "log-events", false,
		"log every simulation event, needs --log-level debug")

	return runCmd
}

func selectScenarios(args []string) ([]scenario.Scenario, error) {
	if len(args) == 1 && args[0] == "all" {
		return scenario.All(), nil
	}

	selected := make([]scenario.Scenario, 0, len(args))

	for _, name := range args {
		s, err := scenario.Find(name)
		if err != nil {
			return nil, err
		}

		selected = append(selected, s)
	}

	return selected, nil
}

func (o *runOptions) run(out io.Writer, args []string) error {
	selected, err := selectScenarios(args)
	if err != nil {
		return err
	}

	var m *monitoring.Monitor
	if o.monitor {
		m = monitoring.NewMonitor().
			WithPortNumber(o.monitorPort).
			WithBrowser(o.openBrowser)
		m.StartServer()
	}

	var failed error

	for _, s := range selected {
		b := scenario.MakeEnvBuilder().
			WithConfig(o.cfg).
			WithEventLogging(o.logEvents)

		if o.record {
			name := ""
			if o.traceDB != "" {
				name = o.traceDB + "_" + s.Name
			}

			b = b.WithRecorder(datarecording.New(name))
		}

		if m != nil {
			b = b.WithMonitor(m)
		}

		report, err := scenario.Run(s, b)
		printReport(out, report, err)

		if err != nil {
			failed = errors.Join(failed, fmt.Errorf("%s: %w", s.Name, err))
		}
	}

	if m != nil && o.hold {
		fmt.Fprintln(out, "monitor running, press Ctrl-C to exit")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt)
		<-stop
	}

	return failed
}

func printReport(out io.Writer, r scenario.Report, err error) {
	result := "PASS"
	if err != nil {
		result = "FAIL"
	}

	fmt.Fprintf(out, "%s %s\n", result, r.Scenario)
	fmt.Fprintf(out, "  time %.9fs, %d IOs, %d tasks, latency avg %.9fs max %.9fs\n",
		float64(r.Time), r.IOsCompleted, r.TasksCompleted,
		float64(r.AvgLatency), float64(r.MaxLatency))
	fmt.Fprintf(out, "  started %d, terminated %d, target resets %d, "+
		"NCQ errors %d, NCQ recovered %d\n",
		r.Stats.IOStarted, r.Stats.Terminated, r.Stats.TargetResets,
		r.Stats.NCQErrors, r.Stats.NCQRecovered)

	for _, d := range r.Devices {
		fmt.Fprintf(out, "  %s %s %s %s %s\n",
			d.Name, d.Address, d.Protocols, d.State, d.ConnectionRate)
	}

	if err != nil {
		fmt.Fprintf(out, "  %v\n", err)
	}
}
