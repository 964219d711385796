package scenario

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/config"
	"github.com/sarchlab/sashba/controller"
	"github.com/sarchlab/sashba/datarecording"
	"github.com/sarchlab/sashba/domain"
	"github.com/sarchlab/sashba/hwsim"
	"github.com/sarchlab/sashba/monitoring"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/sim"
	"github.com/sarchlab/sashba/tracing"
)

// User records the completions the controller reports.
type User struct {
	lock     sync.Mutex
	ios      []*request.Request
	tasks    []*request.Request
	progress *monitoring.ProgressBar
}

// IOCompleted records a completed IO.
func (u *User) IOCompleted(req *request.Request) {
	u.lock.Lock()
	defer u.lock.Unlock()

	u.ios = append(u.ios, req)

	if u.progress != nil {
		u.progress.MoveInProgressToFinished(1, req.Status != request.StatusSuccess)
	}
}

// TaskCompleted records a completed task management request.
func (u *User) TaskCompleted(req *request.Request) {
	u.lock.Lock()
	defer u.lock.Unlock()

	u.tasks = append(u.tasks, req)
}

// IOs returns the completed IOs in completion order.
func (u *User) IOs() []*request.Request {
	u.lock.Lock()
	defer u.lock.Unlock()

	return append([]*request.Request(nil), u.ios...)
}

// Tasks returns the completed tasks in completion order.
func (u *User) Tasks() []*request.Request {
	u.lock.Lock()
	defer u.lock.Unlock()

	return append([]*request.Request(nil), u.tasks...)
}

// Env is one simulated controller with its hardware, its domain, and the
// user that receives completions.
type Env struct {
	Name       string
	Engine     *sim.SerialEngine
	Simulation *sim.Simulation
	Hardware   *hwsim.Hardware
	Controller *controller.Controller
	Domain     *domain.Domain
	User       *User

	// RequestTimes measures every request from admission to retirement.
	RequestTimes *tracing.TimeTracer

	monitor  *monitoring.Monitor
	recorder datarecording.DataRecorder
	tracer   *tracing.DBTracer
}

// EnvBuilder builds Envs.
type EnvBuilder struct {
	cfg          config.Config
	autoComplete bool
	recorder     datarecording.DataRecorder
	monitor      *monitoring.Monitor
	logEvents    bool
}

// MakeEnvBuilder creates an EnvBuilder with the default configuration.
func MakeEnvBuilder() EnvBuilder {
	return EnvBuilder{
		cfg:          config.Default(),
		autoComplete: true,
	}
}

// WithConfig sets the tunables of the controller and the hardware.
func (b EnvBuilder) WithConfig(cfg config.Config) EnvBuilder {
	b.cfg = cfg
	return b
}

// WithAutoComplete sets if IO requests complete on their own.
func (b EnvBuilder) WithAutoComplete(enabled bool) EnvBuilder {
	b.autoComplete = enabled
	return b
}

// WithRecorder makes the env trace into a data recorder and store its
// report there.
func (b EnvBuilder) WithRecorder(r datarecording.DataRecorder) EnvBuilder {
	b.recorder = r
	return b
}

// WithEventLogging makes the engine log every event at debug level.
func (b EnvBuilder) WithEventLogging(enabled bool) EnvBuilder {
	b.logEvents = enabled
	return b
}

// WithMonitor registers the env with a monitor.
func (b EnvBuilder) WithMonitor(m *monitoring.Monitor) EnvBuilder {
	b.monitor = m
	return b
}

// Build creates an Env.
func (b EnvBuilder) Build(name string) *Env {
	if err := b.cfg.Validate(); err != nil {
		panic(err)
	}

	env := &Env{
		Name:     name,
		Engine:   sim.NewSerialEngine(),
		Domain:   domain.New(name + ".Domain"),
		User:     &User{},
		monitor:  b.monitor,
		recorder: b.recorder,
	}

	if b.logEvents {
		env.Engine.AcceptHook(sim.NewEventLogger(log.StandardLogger()))
	}

	env.Hardware = b.cfg.Hardware(hwsim.MakeBuilder()).
		WithEngine(env.Engine).
		WithAutoComplete(b.autoComplete).
		Build(name + ".HW")
	env.Controller = b.cfg.Controller(controller.MakeBuilder()).
		WithHardware(env.Hardware).
		WithCompletionQueue(env.Hardware.Completions()).
		WithDomain(env.Domain).
		WithUser(env.User).
		Build(name + ".Controller")
	env.Hardware.Drive(env.Controller)

	env.Simulation = sim.NewSimulation(env.Engine)
	env.Simulation.RegisterComponent(env.Controller)
	env.Simulation.RegisterComponent(env.Hardware)

	env.RequestTimes = tracing.NewTimeTracer(env.Engine,
		tracing.KindIs(tracing.KindRequest))
	tracing.TraceController(env.Controller, env.RequestTimes)

	if b.recorder != nil {
		env.tracer = tracing.NewDBTracer(env.Engine, b.recorder)
		tracing.TraceController(env.Controller, env.tracer)
		b.recorder.CreateTable(summaryTable, summaryEntry{})
		b.recorder.CreateTable(statsTable, controller.Stats{})
	}

	if b.monitor != nil {
		b.monitor.RegisterSimulation(env.Simulation)
	}

	return env
}

// Run runs the simulation until no event is left.
func (env *Env) Run() error {
	return env.Hardware.Run()
}

// StartIOs starts n IO requests on a device.
func (env *Env) StartIOs(
	dev sas.DeviceID,
	n int,
	queued bool,
) ([]*request.Request, error) {
	if env.monitor != nil && env.User.progress == nil {
		env.User.lock.Lock()
		env.User.progress = env.monitor.CreateProgressBar(env.Name+" IO", 0)
		env.User.lock.Unlock()
	}

	reqs := make([]*request.Request, 0, n)

	for i := 0; i < n; i++ {
		req := request.NewIO(dev)
		if queued {
			req = request.NewNCQ(dev)
		}

		if err := env.Controller.StartIO(req); err != nil {
			return reqs, fmt.Errorf("starting IO %d on %s: %w", i, dev, err)
		}

		if env.User.progress != nil {
			env.User.progress.IncrementTotal(1)
			env.User.progress.IncrementInProgress(1)
		}

		reqs = append(reqs, req)
	}

	return reqs, nil
}

// Close ends the progress bar of the env and terminates its tracer.
func (env *Env) Close() {
	if env.monitor != nil && env.User.progress != nil {
		env.monitor.CompleteProgressBar(env.User.progress)
	}

	if env.tracer != nil {
		env.tracer.Terminate()
	}
}
