package hwsim

import (
	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/sim"
)

// Builder can build simulated hardware.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq

	rncLatency     int
	requestLatency int
	resetLatency   int
	pollInterval   int
	logLatency     int
	queueSize      int
	autoComplete   bool
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:           1 * sim.GHz,
		rncLatency:     10,
		requestLatency: 100,
		resetLatency:   1000,
		pollInterval:   50,
		logLatency:     80,
		queueSize:      1024,
		autoComplete:   true,
	}
}

// WithEngine sets the engine the hardware schedules its completions on.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithFreq sets the clock the latencies are counted in.
func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

// WithRNCLatency sets the cycles a remote node context operation takes.
func (b Builder) WithRNCLatency(n int) Builder {
	b.rncLatency = n
	return b
}

// WithRequestLatency sets the cycles a request takes when it completes on
// its own.
func (b Builder) WithRequestLatency(n int) Builder {
	b.requestLatency = n
	return b
}

// WithResetLatency sets the cycles a port hard reset takes.
func (b Builder) WithResetLatency(n int) Builder {
	b.resetLatency = n
	return b
}

// WithPollInterval sets the cycles between two NCQ error log polls.
func (b Builder) WithPollInterval(n int) Builder {
	b.pollInterval = n
	return b
}

// WithLogLatency sets the cycles the NCQ error log read takes.
func (b Builder) WithLogLatency(n int) Builder {
	b.logLatency = n
	return b
}

// WithQueueSize sets the capacity of the completion queue.
func (b Builder) WithQueueSize(n int) Builder {
	b.queueSize = n
	return b
}

// WithAutoComplete sets whether IO and task requests complete successfully
// on their own. When disabled, requests stay outstanding until
// CompleteRequest or an abort.
func (b Builder) WithAutoComplete(enabled bool) Builder {
	b.autoComplete = enabled
	return b
}

// Build creates the simulated hardware.
func (b Builder) Build(name string) *Hardware {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.queueSize <= 0 {
		panic("completion queue size must be positive")
	}

	h := &Hardware{
		ComponentBase:  sim.NewComponentBase(name),
		engine:         b.engine,
		freq:           b.freq,
		queue:          make(chan hw.Completion, b.queueSize),
		rncLatency:     b.rncLatency,
		requestLatency: b.requestLatency,
		resetLatency:   b.resetLatency,
		pollInterval:   b.pollInterval,
		logLatency:     b.logLatency,
		autoComplete:   b.autoComplete,
	}
	h.reset()

	return h
}
