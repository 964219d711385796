package controller

import (
	"github.com/sarchlab/sashba/hw"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/stp"
)

// Builder can build controllers.
type Builder struct {
	hardware    hw.Hardware
	completions <-chan hw.Completion
	domain      Domain
	user        User

	maxDevices  int
	maxRequests int
	speedGen    int
	ncqEnabled  bool
	ncqDepth    int
	pollBudget  int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		maxDevices:  128,
		maxRequests: 256,
		speedGen:    3,
		ncqEnabled:  true,
		ncqDepth:    stp.MaxNCQDepth,
		pollBudget:  10,
	}
}

// WithHardware sets the hardware the controller posts to.
func (b Builder) WithHardware(h hw.Hardware) Builder {
	b.hardware = h
	return b
}

// WithCompletionQueue sets the channel the hardware delivers completions on.
func (b Builder) WithCompletionQueue(q <-chan hw.Completion) Builder {
	b.completions = q
	return b
}

// WithDomain sets the discovery domain the devices report to.
func (b Builder) WithDomain(d Domain) Builder {
	b.domain = d
	return b
}

// WithUser sets the receiver of request completions.
func (b Builder) WithUser(u User) Builder {
	b.user = u
	return b
}

// WithMaxDevices sets the size of the remote node table.
func (b Builder) WithMaxDevices(n int) Builder {
	b.maxDevices = n
	return b
}

// WithMaxRequests sets the size of the request table.
func (b Builder) WithMaxRequests(n int) Builder {
	b.maxRequests = n
	return b
}

// WithMaxSpeedGeneration sets the fastest link rate the ports allow.
func (b Builder) WithMaxSpeedGeneration(gen int) Builder {
	b.speedGen = gen
	return b
}

// WithNCQ enables or disables native command queuing on SATA devices.
func (b Builder) WithNCQ(enabled bool) Builder {
	b.ncqEnabled = enabled
	return b
}

// WithNCQDepth sets the number of NCQ tags per SATA device.
func (b Builder) WithNCQDepth(depth int) Builder {
	b.ncqDepth = depth
	return b
}

// WithPollBudget sets how many times the NCQ error log is polled before
// recovery gives up.
func (b Builder) WithPollBudget(n int) Builder {
	b.pollBudget = n
	return b
}

// Build creates a controller.
func (b Builder) Build(name string) *Controller {
	b.mustBeValid()

	return newController(name, b)
}

func (b Builder) mustBeValid() {
	if b.hardware == nil {
		panic("hardware is not set")
	}

	if b.completions == nil {
		panic("completion queue is not set")
	}

	if b.domain == nil {
		panic("domain is not set")
	}

	if b.maxDevices <= 0 || b.maxRequests <= 0 {
		panic("table sizes must be positive")
	}

	if !sas.LinkRateForGeneration(b.speedGen).Valid() {
		panic("invalid speed generation")
	}

	if b.ncqDepth < 1 || b.ncqDepth > stp.MaxNCQDepth {
		panic("invalid NCQ depth")
	}

	if b.pollBudget < 1 {
		panic("poll budget must be positive")
	}
}
