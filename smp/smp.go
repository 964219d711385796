// Package smp holds the serial management protocol data the lifecycle
// manager consumes: the discover response that describes an
// expander-attached device, and the activity an expander is busy with.
package smp

import (
	"fmt"

	"github.com/sarchlab/sashba/sas"
)

// DiscoverResponse is the part of an SMP DISCOVER response that describes
// the device attached to one expander phy.
type DiscoverResponse struct {
	PhyIdentifier      uint8
	AttachedSASAddress sas.Address
	AttachedProtocols  sas.Protocols
	NegotiatedRate     sas.LinkRate
}

// Validate checks the fields needed to construct a device.
func (r DiscoverResponse) Validate() error {
	if r.AttachedSASAddress == 0 {
		return fmt.Errorf("phy %d: %w", r.PhyIdentifier,
			sas.FailureInvalidParameterValue)
	}

	if r.AttachedProtocols == 0 {
		return fmt.Errorf("phy %d: %w", r.PhyIdentifier,
			sas.FailureUnsupportedProtocol)
	}

	return nil
}

// Activity is what an expander is busy with. Discovery does not walk an
// expander whose activity is not ActivityNone.
type Activity int

// Expander activities.
const (
	ActivityNone Activity = iota
	ActivityDiscover
	ActivityTargetReset
)

func (a Activity) String() string {
	switch a {
	case ActivityNone:
		return "none"
	case ActivityDiscover:
		return "discover"
	case ActivityTargetReset:
		return "target-reset"
	default:
		return "unknown"
	}
}

// PhyOperation is the operation field of a PHY CONTROL request.
type PhyOperation uint8

// PHY CONTROL operations.
const (
	PhyOpNop       PhyOperation = 0x00
	PhyOpLinkReset PhyOperation = 0x01
	PhyOpHardReset PhyOperation = 0x02
	PhyOpDisable   PhyOperation = 0x03
)
