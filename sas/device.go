package sas

import "fmt"

// DeviceID identifies a remote device within one controller. It is the
// non-owning handle used wherever one object refers to a device it does not
// own, for example a containing expander.
type DeviceID uint32

// NoDevice is the zero DeviceID and never names a constructed device.
const NoDevice DeviceID = 0

func (id DeviceID) String() string {
	return fmt.Sprintf("dev%d", uint32(id))
}

// PortID identifies a controller port. Devices keep it as a weak reference to
// their owning port.
type PortID uint8

// DeviceState is the base state set shared by the core and framework device
// state machines.
type DeviceState int

// Base device states.
const (
	StateInitial DeviceState = iota
	StateStopped
	StateStarting
	StateReady
	StateStopping
	StateFailed
	StateResetting
	StateFinal
)

var deviceStateNames = [...]string{
	StateInitial:   "INITIAL",
	StateStopped:   "STOPPED",
	StateStarting:  "STARTING",
	StateReady:     "READY",
	StateStopping:  "STOPPING",
	StateFailed:    "FAILED",
	StateResetting: "RESETTING",
	StateFinal:     "FINAL",
}

func (s DeviceState) String() string {
	if s < 0 || int(s) >= len(deviceStateNames) {
		return "UNKNOWN"
	}

	return deviceStateNames[s]
}

// ATARegisters is the ATA status block reported by a SATA device when a
// command fails.
type ATARegisters struct {
	Status      uint8
	Error       uint8
	Device      uint8
	LBA         uint64
	SectorCount uint16
}

// ATA status and error bits used by the lifecycle manager.
const (
	ATAStatusErr  uint8 = 0x01
	ATAStatusDRDY uint8 = 0x40
	ATAErrAbort   uint8 = 0x04
)
