package controller

import (
	"github.com/sarchlab/sashba/framework"
	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
)

// Start brings a stopped device up.
func (c *Controller) Start(id sas.DeviceID) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return d.Start()
	})
}

// Stop brings a device down. Its outstanding requests are terminated.
func (c *Controller) Stop(id sas.DeviceID) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return d.Stop()
	})
}

// Reset suspends a ready device ahead of a reset done by the caller.
func (c *Controller) Reset(id sas.DeviceID) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return d.Reset()
	})
}

// ResetComplete tells a device the caller's reset finished.
func (c *Controller) ResetComplete(id sas.DeviceID) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return d.ResetComplete()
	})
}

// Fail marks a device failed.
func (c *Controller) Fail(id sas.DeviceID) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return d.Fail()
	})
}

// ConnectionRate returns the rate connections to a device are opened at.
func (c *Controller) ConnectionRate(id sas.DeviceID) (sas.LinkRate, error) {
	var rate sas.LinkRate

	err := c.withDevice(id, func(d *framework.Device) error {
		rate = d.ConnectionRate()
		return nil
	})

	return rate, err
}

// SetMaxConnectionRate lowers the rate connections to a device are opened
// at.
func (c *Controller) SetMaxConnectionRate(id sas.DeviceID, rate sas.LinkRate) error {
	return c.withDevice(id, func(d *framework.Device) error {
		return d.SetMaxConnectionRate(rate)
	})
}

// Protocols returns the target protocols of a device.
func (c *Controller) Protocols(id sas.DeviceID) (sas.Protocols, error) {
	var p sas.Protocols

	err := c.withDevice(id, func(d *framework.Device) error {
		p = d.Protocols()
		return nil
	})

	return p, err
}

// SASAddress returns the SAS address of a device.
func (c *Controller) SASAddress(id sas.DeviceID) (sas.Address, error) {
	var a sas.Address

	err := c.withDevice(id, func(d *framework.Device) error {
		a = d.SASAddress()
		return nil
	})

	return a, err
}

// StartedIOCount returns the number of requests started on a device and not
// yet completed.
func (c *Controller) StartedIOCount(id sas.DeviceID) (uint32, error) {
	var n uint32

	err := c.withDevice(id, func(d *framework.Device) error {
		n = d.StartedIOCount()
		return nil
	})

	return n, err
}

// DeviceInfo is a snapshot of one device.
type DeviceInfo struct {
	ID               sas.DeviceID
	Name             string
	Address          string
	Protocols        string
	State            string
	StartingSubstate string
	ReadySubstate    string
	ConnectionRate   string
	Expander         sas.DeviceID
	Phy              uint8
	RequestCount     uint32
	TaskRequestCount uint32
	StartedIOCount   uint32
	RNCIndex         int
	RNCState         string
	Sequence         uint32
	NCQTags          []int
	Activity         string
}

// DeviceInfo takes a snapshot of a device.
func (c *Controller) DeviceInfo(id sas.DeviceID) (DeviceInfo, error) {
	var info DeviceInfo

	err := c.withDevice(id, func(d *framework.Device) error {
		info = snapshot(d)
		return nil
	})

	return info, err
}

// Devices takes a snapshot of every device.
func (c *Controller) Devices() []DeviceInfo {
	c.Lock()
	devices := c.deviceList()
	c.Unlock()

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		d.Lock()
		infos = append(infos, snapshot(d))
		d.Unlock()
	}

	return infos
}

func snapshot(d *framework.Device) DeviceInfo {
	ctx := d.Core().RNC()
	info := DeviceInfo{
		ID:               d.ID(),
		Name:             d.Name(),
		Address:          d.SASAddress().String(),
		Protocols:        d.Protocols().String(),
		State:            d.State().String(),
		StartingSubstate: d.StartingSubstate().String(),
		ReadySubstate:    d.ReadySubstate().String(),
		ConnectionRate:   d.ConnectionRate().String(),
		Expander:         d.Containing().Device,
		Phy:              d.Containing().Phy,
		RequestCount:     d.RequestCount(),
		TaskRequestCount: d.TaskRequestCount(),
		StartedIOCount:   d.StartedIOCount(),
		RNCIndex:         int(ctx.Index()),
		RNCState:         ctx.State().String(),
		Sequence:         d.Core().Sequence(),
	}

	if s := d.STP(); s != nil {
		info.NCQTags = s.Tags.Tags()
	}

	if s := d.SMP(); s != nil {
		info.Activity = s.Activity.String()
	}

	if info.Activity == "" {
		info.Activity = smp.ActivityNone.String()
	}

	return info
}
