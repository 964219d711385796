package scenario

import (
	"github.com/sarchlab/sashba/controller"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/stp"
)

func constructDirect(
	env *Env,
	addr sas.Address,
	protocols sas.Protocols,
	port sas.PortID,
) (sas.DeviceID, error) {
	p := controller.DirectAttachedParams{
		Address:   addr,
		Protocols: protocols,
		Port:      port,
		PortWidth: 1,
	}

	switch {
	case protocols.Has(sas.ProtocolSTP):
		p.SATI = &stp.SATIDevice{
			Model:    "SIM SATA SSD",
			Serial:   addr.String(),
			NCQ:      true,
			NCQDepth: 32,
		}
	case protocols.Has(sas.ProtocolSMP):
		p.NumPhys = 12
	}

	return env.Controller.ConstructDirectAttached(p)
}

func startAll(env *Env, ids ...sas.DeviceID) error {
	for _, id := range ids {
		if err := env.Controller.Start(id); err != nil {
			return err
		}
	}

	if err := env.Run(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := expectState(env, id, "READY", "OPERATIONAL"); err != nil {
			return err
		}
	}

	return check(env.Domain.Settled(), "domain not settled after start")
}

func allStatus(reqs []*request.Request, status request.CompletionStatus) error {
	for _, req := range reqs {
		if err := check(req.Status == status,
			"%s completed with %s, want %s", req, req.Status, status); err != nil {
			return err
		}
	}

	return nil
}

func runStartStop(env *Env) error {
	ssp, err := constructDirect(env, 0x5000c50000000001, sas.ProtocolSSP, 0)
	if err != nil {
		return err
	}

	sata, err := constructDirect(env, 0x5000c50000000002, sas.ProtocolSTP, 1)
	if err != nil {
		return err
	}

	if err = startAll(env, ssp, sata); err != nil {
		return err
	}

	ios, err := env.StartIOs(ssp, 8, false)
	if err != nil {
		return err
	}

	queued, err := env.StartIOs(sata, 8, true)
	if err != nil {
		return err
	}

	if err = env.Run(); err != nil {
		return err
	}

	if err = allStatus(append(ios, queued...), request.StatusSuccess); err != nil {
		return err
	}

	for _, id := range []sas.DeviceID{ssp, sata} {
		if err = env.Controller.Stop(id); err != nil {
			return err
		}
	}

	if err = env.Run(); err != nil {
		return err
	}

	for _, id := range []sas.DeviceID{ssp, sata} {
		if err = expectState(env, id, "STOPPED", ""); err != nil {
			return err
		}

		if err = env.Controller.Destruct(id); err != nil {
			return err
		}
	}

	_, _, stopped := env.Domain.Counters()

	return check(stopped == 2 && env.Controller.RNCInUse() == 0 &&
		len(env.Controller.DeviceIDs()) == 0,
		"%d devices stopped, %d RNCs in use after destruct",
		stopped, env.Controller.RNCInUse())
}
