package scenario

import (
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
)

func runStopOutstanding(env *Env) error {
	id, err := constructDirect(env, 0x5000c50000000001, sas.ProtocolSSP, 0)
	if err != nil {
		return err
	}

	if err = startAll(env, id); err != nil {
		return err
	}

	ios, err := env.StartIOs(id, 4, false)
	if err != nil {
		return err
	}

	if err = env.Controller.Stop(id); err != nil {
		return err
	}

	if err = expectState(env, id, "STOPPING", ""); err != nil {
		return err
	}

	if err = env.Run(); err != nil {
		return err
	}

	if err = allStatus(ios, request.StatusAborted); err != nil {
		return err
	}

	if err = expectState(env, id, "STOPPED", ""); err != nil {
		return err
	}

	stats := env.Controller.Stats()
	if err = check(stats.Terminated == 4 && env.Controller.OutstandingRequests() == 0,
		"%d terminated, %d outstanding", stats.Terminated,
		env.Controller.OutstandingRequests()); err != nil {
		return err
	}

	return env.Controller.Destruct(id)
}
