package stp

import "github.com/sarchlab/sashba/sas"

// ATAPI signature bytes found in LBA mid and LBA high of the signature FIS.
const (
	atapiLBAMid  = 0x14
	atapiLBAHigh = 0xeb
)

// SATIDevice is the per-device model of the SCSI to ATA translation layer.
// The lifecycle manager stores it and hands it back. It reads only the
// signature to tell ATAPI devices apart.
type SATIDevice struct {
	Model     string
	Serial    string
	Signature sas.ATARegisters
	NCQ       bool
	NCQDepth  int
}

// IsATAPI tells if the signature is the packet device signature.
func (d *SATIDevice) IsATAPI() bool {
	mid := byte(d.Signature.LBA >> 8)
	high := byte(d.Signature.LBA >> 16)

	return mid == atapiLBAMid && high == atapiLBAHigh
}
