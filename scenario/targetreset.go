package scenario

import (
	"github.com/sarchlab/sashba/controller"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
)

func runExpanderTargetReset(env *Env) error {
	exp, err := constructDirect(env, 0x500605b000000001, sas.ProtocolSMP, 0)
	if err != nil {
		return err
	}

	if err = startAll(env, exp); err != nil {
		return err
	}

	id, err := env.Controller.ConstructExpanderAttached(
		controller.ExpanderAttachedParams{
			Expander: exp,
			Discover: smp.DiscoverResponse{
				PhyIdentifier:      3,
				AttachedSASAddress: 0x5000c50000000003,
				AttachedProtocols:  sas.ProtocolSSP,
				NegotiatedRate:     sas.LinkRate3_0G,
			},
		})
	if err != nil {
		return err
	}

	if err = startAll(env, id); err != nil {
		return err
	}

	ios, err := env.StartIOs(id, 2, false)
	if err != nil {
		return err
	}

	task := request.NewTask(id, request.TaskTargetReset)
	if err = env.Controller.StartTask(task); err != nil {
		return err
	}

	if err = expectState(env, id, "RESETTING", ""); err != nil {
		return err
	}

	if err = env.Run(); err != nil {
		return err
	}

	if err = check(task.Status == request.StatusSuccess,
		"target reset completed with %s", task.Status); err != nil {
		return err
	}

	if err = allStatus(ios, request.StatusAborted); err != nil {
		return err
	}

	if err = expectState(env, id, "READY", "OPERATIONAL"); err != nil {
		return err
	}

	info, err := env.Controller.DeviceInfo(exp)
	if err != nil {
		return err
	}

	if err = check(info.Activity == smp.ActivityNone.String(),
		"expander still busy with %s", info.Activity); err != nil {
		return err
	}

	tasks := env.User.Tasks()

	return check(len(tasks) == 1 && tasks[0] == task,
		"%d tasks reported", len(tasks))
}
