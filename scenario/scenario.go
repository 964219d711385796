// Package scenario runs the lifecycle of simulated remote devices end to
// end: a simulated controller, its hardware, and a user that issues
// requests. Each scenario checks what it expects and fails with
// ErrCheckFailed otherwise.
package scenario

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/sas"
)

var (
	// ErrUnknownScenario is returned for a name no scenario has.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrCheckFailed is returned when a scenario ends in a state it does
	// not expect.
	ErrCheckFailed = errors.New("check failed")
)

// A Scenario drives an env through one lifecycle story.
type Scenario struct {
	Name        string
	Description string

	// AutoComplete makes the hardware complete IO on its own.
	AutoComplete bool

	run func(env *Env) error
}

var scenarios = []Scenario{
	{
		Name:         "start-stop",
		Description:  "start an SSP and a SATA device, run IO, stop and destruct them",
		AutoComplete: true,
		run:          runStartStop,
	},
	{
		Name:        "stop-outstanding",
		Description: "stop a device while IO is outstanding",
		run:         runStopOutstanding,
	},
	{
		Name:        "ncq-error",
		Description: "isolate the one failed command of a SATA NCQ error",
		run:         runNCQError,
	},
	{
		Name:        "ea-target-reset",
		Description: "reset a device behind an expander with SMP PHY CONTROL",
		run:         runExpanderTargetReset,
	},
}

// All returns every scenario.
func All() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// Find returns the scenario with a name.
func Find(name string) (Scenario, error) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, nil
		}
	}

	return Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
}

// Run builds an env for the scenario and runs it. The report is returned
// even if a check fails.
func Run(s Scenario, b EnvBuilder) (Report, error) {
	env := b.WithAutoComplete(s.AutoComplete).Build(s.Name)
	defer env.Close()

	err := s.run(env)
	report := env.Report()
	env.record(report)

	fields := log.Fields{
		"scenario":  s.Name,
		"time":      report.Time,
		"ios":       report.IOsCompleted,
		"tasks":     report.TasksCompleted,
		"discovery": len(report.DiscoveryRequests),
	}

	if err != nil {
		log.WithFields(fields).WithError(err).Error("scenario failed")
		return report, err
	}

	log.WithFields(fields).Info("scenario passed")

	return report, nil
}

func check(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrCheckFailed, fmt.Sprintf(format, args...))
}

func expectState(env *Env, id sas.DeviceID, state, substate string) error {
	info, err := env.Controller.DeviceInfo(id)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	got := info.ReadySubstate
	if info.State == "STARTING" {
		got = info.StartingSubstate
	}

	return check(info.State == state && (substate == "" || got == substate),
		"%s is %s/%s, want %s/%s", info.Name, info.State, got, state, substate)
}
