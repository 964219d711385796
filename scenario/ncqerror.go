package scenario

import (
	"github.com/sarchlab/sashba/hwsim"
	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
)

func runNCQError(env *Env) error {
	id, err := constructDirect(env, 0x5000c50000000002, sas.ProtocolSTP, 1)
	if err != nil {
		return err
	}

	if err = startAll(env, id); err != nil {
		return err
	}

	ios, err := env.StartIOs(id, 4, true)
	if err != nil {
		return err
	}

	failed := ios[2]
	regs := sas.ATARegisters{
		Status: sas.ATAStatusErr | sas.ATAStatusDRDY,
		Error:  sas.ATAErrAbort,
	}
	env.Hardware.InjectNCQError(id, hwsim.NCQFault{
		Tag:       failed.NCQTag,
		Registers: regs,
	})

	if err = env.Run(); err != nil {
		return err
	}

	if err = check(failed.Status == request.StatusDeviceError &&
		failed.Registers == regs,
		"failed command completed with %s", failed.Status); err != nil {
		return err
	}

	if err = check(env.Controller.Stats().NCQRecovered == 1,
		"NCQ error not isolated"); err != nil {
		return err
	}

	if err = expectState(env, id, "READY", "OPERATIONAL"); err != nil {
		return err
	}

	survivors := []*request.Request{}
	for _, req := range ios {
		if req != failed {
			survivors = append(survivors, req)
		}
	}

	if err = allStatus(survivors, request.StatusPending); err != nil {
		return err
	}

	for _, req := range survivors {
		env.Hardware.CompleteRequest(req, request.StatusSuccess)
	}

	if err = env.Run(); err != nil {
		return err
	}

	if err = allStatus(survivors, request.StatusSuccess); err != nil {
		return err
	}

	return check(env.Controller.OutstandingRequests() == 0,
		"%d requests outstanding", env.Controller.OutstandingRequests())
}
