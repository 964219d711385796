package framework

import (
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
	"github.com/sarchlab/sashba/stp"
)

// ProtocolDevice is the protocol specific part of a device. It is one of
// *SSPDevice, *STPDevice, or *SMPDevice.
type ProtocolDevice interface {
	Protocol() sas.Protocols
	isProtocolDevice()
}

// SSPDevice is a SCSI target. It carries no extra state.
type SSPDevice struct{}

// STPDevice is a SATA target reached through STP.
type STPDevice struct {
	SATI       *stp.SATIDevice
	Tags       *stp.TagPool
	Recovery   *stp.Recovery
	NCQEnabled bool
}

// SMPDevice is an expander.
type SMPDevice struct {
	NumPhys        int
	Activity       smp.Activity
	ActivityTarget sas.DeviceID
}

// Protocol returns ProtocolSSP.
func (*SSPDevice) Protocol() sas.Protocols { return sas.ProtocolSSP }

// Protocol returns ProtocolSTP.
func (*STPDevice) Protocol() sas.Protocols { return sas.ProtocolSTP }

// Protocol returns ProtocolSMP.
func (*SMPDevice) Protocol() sas.Protocols { return sas.ProtocolSMP }

func (*SSPDevice) isProtocolDevice() {}
func (*STPDevice) isProtocolDevice() {}
func (*SMPDevice) isProtocolDevice() {}

// Containing is a weak reference to the expander a device is attached
// through. The zero value means the device is direct-attached.
type Containing struct {
	Device sas.DeviceID
	Phy    uint8
}

// Valid tells if the reference names an expander.
func (c Containing) Valid() bool {
	return c.Device != sas.NoDevice
}
