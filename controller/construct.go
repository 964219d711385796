package controller

import (
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/core"
	"github.com/sarchlab/sashba/framework"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
	"github.com/sarchlab/sashba/stp"
)

// DirectAttachedParams describe a device attached straight to a controller
// port.
type DirectAttachedParams struct {
	Address   sas.Address
	Protocols sas.Protocols
	Port      sas.PortID
	PortWidth int

	// SATI is the identify data of a SATA device. It is stored and handed
	// to the translation layer only.
	SATI *stp.SATIDevice

	// NumPhys is the phy count of an expander.
	NumPhys int
}

// ExpanderAttachedParams describe a device found behind an expander.
type ExpanderAttachedParams struct {
	Expander sas.DeviceID
	Discover smp.DiscoverResponse
	SATI     *stp.SATIDevice
	NumPhys  int
}

// ConstructDirectAttached creates a stopped direct-attached device. It
// connects at the port's maximum rate.
func (c *Controller) ConstructDirectAttached(
	p DirectAttachedParams,
) (sas.DeviceID, error) {
	if p.Address == 0 || p.PortWidth < 1 {
		return sas.NoDevice, sas.FailureInvalidParameterValue
	}

	return c.construct(framework.Params{
		Core: core.Params{
			Address:     p.Address,
			Protocols:   p.Protocols,
			Port:        p.Port,
			PortWidth:   p.PortWidth,
			PortMaxRate: c.maxRate,
		},
		SATI:    p.SATI,
		NumPhys: p.NumPhys,
	})
}

// ConstructExpanderAttached creates a stopped device from the discover
// response of one expander phy. The device shares the expander's port and
// connects at the slower of the port's maximum rate and the negotiated rate.
func (c *Controller) ConstructExpanderAttached(
	p ExpanderAttachedParams,
) (sas.DeviceID, error) {
	if err := p.Discover.Validate(); err != nil {
		return sas.NoDevice, err
	}

	var port sas.PortID

	err := c.withDevice(p.Expander, func(exp *framework.Device) error {
		if exp.SMP() == nil {
			return sas.FailureInvalidParameterValue
		}

		port = exp.Core().Port()

		return nil
	})
	if err != nil {
		return sas.NoDevice, err
	}

	return c.construct(framework.Params{
		Core: core.Params{
			Address:        p.Discover.AttachedSASAddress,
			Protocols:      p.Discover.AttachedProtocols,
			Port:           port,
			PortWidth:      1,
			PortMaxRate:    c.maxRate,
			NegotiatedRate: p.Discover.NegotiatedRate,
		},
		Containing: framework.Containing{
			Device: p.Expander,
			Phy:    p.Discover.PhyIdentifier,
		},
		SATI:    p.SATI,
		NumPhys: p.NumPhys,
	})
}

func (c *Controller) construct(params framework.Params) (sas.DeviceID, error) {
	c.Lock()
	defer c.Unlock()

	if id, dup := c.addresses[params.Core.Address]; dup {
		log.WithFields(log.Fields{
			"controller": c.Name(),
			"address":    params.Core.Address,
			"device":     id,
		}).Warn("device already constructed")

		return sas.NoDevice, sas.FailureDeviceExists
	}

	id := c.nextID + 1
	params.Core.ID = id
	params.NCQEnabled = c.ncqEnabled
	params.NCQDepth = c.ncqDepth
	params.PollBudget = c.pollBudget

	d, err := framework.NewDevice(
		c.deviceName(id), params, c.pool, c.hw, c.domain, terminator{c})
	if err != nil {
		return sas.NoDevice, err
	}

	for _, h := range c.deviceHooks {
		d.AcceptHook(h)
	}

	c.nextID = id
	c.devices[id] = d
	c.addresses[params.Core.Address] = id

	log.WithFields(log.Fields{
		"controller": c.Name(),
		"device":     id,
		"address":    params.Core.Address,
		"protocols":  params.Core.Protocols,
		"rate":       d.ConnectionRate(),
	}).Debug("device constructed")

	return id, nil
}

// Destruct tears a device down. A device that is not stopped is stopped
// first and forgotten once the stop completes.
func (c *Controller) Destruct(id sas.DeviceID) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return d.Destruct()
	})
}
