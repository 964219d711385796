package sas

import (
	"fmt"
	"strings"
)

// Protocols is the bitmask of target protocols a remote device speaks.
type Protocols uint8

// Target protocol bits.
const (
	ProtocolSSP Protocols = 1 << iota
	ProtocolSTP
	ProtocolSMP
)

// Has tells if all the bits in p are set.
func (ps Protocols) Has(p Protocols) bool {
	return ps&p == p && p != 0
}

// String lists the protocols, for example "SSP|STP".
func (ps Protocols) String() string {
	if ps == 0 {
		return "none"
	}

	names := []string{}
	if ps.Has(ProtocolSSP) {
		names = append(names, "SSP")
	}

	if ps.Has(ProtocolSTP) {
		names = append(names, "STP")
	}

	if ps.Has(ProtocolSMP) {
		names = append(names, "SMP")
	}

	return strings.Join(names, "|")
}

// Address is a 64-bit SAS address.
type Address uint64

// String formats the address the way SAS tools print it.
func (a Address) String() string {
	return fmt.Sprintf("0x%016x", uint64(a))
}

// High returns the upper 32 bits.
func (a Address) High() uint32 {
	return uint32(a >> 32)
}

// Low returns the lower 32 bits.
func (a Address) Low() uint32 {
	return uint32(a)
}

// MakeAddress assembles an address from its two halves.
func MakeAddress(high, low uint32) Address {
	return Address(uint64(high)<<32 | uint64(low))
}

// LinkRate is a negotiated SAS link rate.
type LinkRate int

// Supported link rates. The numbering follows the SAS negotiated physical
// link rate field.
const (
	LinkRateUnknown LinkRate = 0
	LinkRate1_5G    LinkRate = 8
	LinkRate3_0G    LinkRate = 9
	LinkRate6_0G    LinkRate = 10
)

// String returns the rate as printed by management tools.
func (r LinkRate) String() string {
	switch r {
	case LinkRate1_5G:
		return "1.5 Gbit/s"
	case LinkRate3_0G:
		return "3.0 Gbit/s"
	case LinkRate6_0G:
		return "6.0 Gbit/s"
	default:
		return "unknown"
	}
}

// Valid tells if the rate is one the controller can run at.
func (r LinkRate) Valid() bool {
	return r >= LinkRate1_5G && r <= LinkRate6_0G
}

// LinkRateForGeneration maps a speed generation (1, 2, 3) to its rate.
func LinkRateForGeneration(gen int) LinkRate {
	switch gen {
	case 1:
		return LinkRate1_5G
	case 2:
		return LinkRate3_0G
	case 3:
		return LinkRate6_0G
	default:
		return LinkRateUnknown
	}
}

// MinLinkRate returns the slower of two rates.
func MinLinkRate(a, b LinkRate) LinkRate {
	if a < b {
		return a
	}

	return b
}
