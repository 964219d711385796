package scenario

import (
	"github.com/sarchlab/sashba/controller"
	"github.com/sarchlab/sashba/hwsim"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
)

const (
	summaryTable = "scenario_summary"
	statsTable   = "controller_stats"
)

// Report summarizes what happened in an env.
type Report struct {
	Scenario string
	Time     sim.VTimeInSec
	Stats    controller.Stats
	Hardware hwsim.Stats
	Devices  []controller.DeviceInfo

	IOsCompleted   int
	TasksCompleted int
	AvgLatency     sim.VTimeInSec
	MaxLatency     sim.VTimeInSec

	DiscoveryRequests []sas.DeviceID
	ControllerErrors  int
}

type summaryEntry struct {
	Scenario          string
	Time              float64
	IOsCompleted      int
	TasksCompleted    int
	AvgLatency        float64
	MaxLatency        float64
	DiscoveryRequests int
	ControllerErrors  int
}

// Report takes a report of the env. Discovery requests are consumed.
func (env *Env) Report() Report {
	return Report{
		Scenario:          env.Name,
		Time:              env.Engine.CurrentTime(),
		Stats:             env.Controller.Stats(),
		Hardware:          env.Hardware.Stats(),
		Devices:           env.Controller.Devices(),
		IOsCompleted:      len(env.User.IOs()),
		TasksCompleted:    len(env.User.Tasks()),
		AvgLatency:        env.RequestTimes.AverageTime(),
		MaxLatency:        env.RequestTimes.MaxTime(),
		DiscoveryRequests: env.Domain.TakeDiscoveryRequests(),
		ControllerErrors:  len(env.Domain.ControllerErrors()),
	}
}

func (env *Env) record(r Report) {
	if env.recorder == nil {
		return
	}

	env.recorder.InsertData(summaryTable, summaryEntry{
		Scenario:          r.Scenario,
		Time:              float64(r.Time),
		IOsCompleted:      r.IOsCompleted,
		TasksCompleted:    r.TasksCompleted,
		AvgLatency:        float64(r.AvgLatency),
		MaxLatency:        float64(r.MaxLatency),
		DiscoveryRequests: len(r.DiscoveryRequests),
		ControllerErrors:  r.ControllerErrors,
	})
	env.recorder.InsertData(statsTable, r.Stats)
}
