// Package config loads the controller tunables from a dotenv file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sarchlab/sashba/controller"
	"github.com/sarchlab/sashba/hwsim"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/stp"
)

// Environment variables read by Load.
const (
	EnvMaxDevices         = "SASHBA_MAX_DEVICES"
	EnvMaxRequests        = "SASHBA_MAX_REQUESTS"
	EnvNCQEnabled         = "SASHBA_IS_SATA_NCQ_ENABLED"
	EnvMaxNCQDepth        = "SASHBA_MAX_NCQ_DEPTH"
	EnvNCQPollBudget      = "SASHBA_NCQ_POLL_BUDGET"
	EnvRNCLatency         = "SASHBA_RNC_LATENCY"
	EnvMaxSpeedGeneration = "SASHBA_MAX_SPEED_GENERATION"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the tunables of one controller.
type Config struct {
	MaxDevices         int
	MaxRequests        int
	NCQEnabled         bool
	MaxNCQDepth        int
	NCQPollBudget      int
	RNCLatency         int
	MaxSpeedGeneration int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		MaxDevices:         128,
		MaxRequests:        256,
		NCQEnabled:         true,
		MaxNCQDepth:        stp.MaxNCQDepth,
		NCQPollBudget:      10,
		RNCLatency:         10,
		MaxSpeedGeneration: 3,
	}
}

// Load starts from the defaults, applies the given dotenv files in order,
// and then the process environment. Missing files are skipped.
func Load(files ...string) (Config, error) {
	values := map[string]string{}

	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}

		fileValues, err := godotenv.Read(f)
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", f, err)
		}

		for k, v := range fileValues {
			values[k] = v
		}
	}

	for _, k := range []string{
		EnvMaxDevices, EnvMaxRequests, EnvNCQEnabled, EnvMaxNCQDepth,
		EnvNCQPollBudget, EnvRNCLatency, EnvMaxSpeedGeneration,
	} {
		if v, ok := os.LookupEnv(k); ok {
			values[k] = v
		}
	}

	return parse(values)
}

func parse(values map[string]string) (Config, error) {
	c := Default()

	ints := []struct {
		key string
		dst *int
	}{
		{EnvMaxDevices, &c.MaxDevices},
		{EnvMaxRequests, &c.MaxRequests},
		{EnvMaxNCQDepth, &c.MaxNCQDepth},
		{EnvNCQPollBudget, &c.NCQPollBudget},
		{EnvRNCLatency, &c.RNCLatency},
		{EnvMaxSpeedGeneration, &c.MaxSpeedGeneration},
	}

	for _, i := range ints {
		v, ok := values[i.key]
		if !ok {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, i.key, err)
		}

		*i.dst = n
	}

	if v, ok := values[EnvNCQEnabled]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, EnvNCQEnabled, err)
		}

		c.NCQEnabled = b
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks the ranges of every tunable.
func (c Config) Validate() error {
	switch {
	case c.MaxDevices < 1 || c.MaxDevices >= 0xffff:
		return fmt.Errorf("%w: max devices %d", ErrInvalid, c.MaxDevices)
	case c.MaxRequests < 1 || c.MaxRequests > 1<<16:
		return fmt.Errorf("%w: max requests %d", ErrInvalid, c.MaxRequests)
	case c.MaxNCQDepth < 1 || c.MaxNCQDepth > stp.MaxNCQDepth:
		return fmt.Errorf("%w: NCQ depth %d", ErrInvalid, c.MaxNCQDepth)
	case c.NCQPollBudget < 1:
		return fmt.Errorf("%w: NCQ poll budget %d", ErrInvalid, c.NCQPollBudget)
	case c.RNCLatency < 0:
		return fmt.Errorf("%w: RNC latency %d", ErrInvalid, c.RNCLatency)
	case !sas.LinkRateForGeneration(c.MaxSpeedGeneration).Valid():
		return fmt.Errorf("%w: speed generation %d", ErrInvalid,
			c.MaxSpeedGeneration)
	}

	return nil
}

// Controller applies the configuration to a controller builder.
func (c Config) Controller(b controller.Builder) controller.Builder {
	return b.
		WithMaxDevices(c.MaxDevices).
		WithMaxRequests(c.MaxRequests).
		WithNCQ(c.NCQEnabled).
		WithNCQDepth(c.MaxNCQDepth).
		WithPollBudget(c.NCQPollBudget).
		WithMaxSpeedGeneration(c.MaxSpeedGeneration)
}

// Hardware applies the configuration to a simulated hardware builder.
func (c Config) Hardware(b hwsim.Builder) hwsim.Builder {
	return b.WithRNCLatency(c.RNCLatency)
}
