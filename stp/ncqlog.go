package stp

import (
	"errors"

	"github.com/sarchlab/sashba/sas"
)

// NCQLogSize is the size of the NCQ command error log page.
const NCQLogSize = 512

// Errors reported when a log page cannot be used.
var (
	ErrShortLog    = errors.New("ncq error log shorter than one page")
	ErrBadChecksum = errors.New("ncq error log checksum mismatch")
)

const (
	ncqTagMask      = 0x1f
	ncqNotQueuedBit = 0x80
)

// NCQErrorLog is the decoded NCQ command error log page.
type NCQErrorLog struct {
	Tag       int
	NotQueued bool
	Registers sas.ATARegisters
}

// DecodeNCQErrorLog decodes a READ LOG EXT page 10h.
func DecodeNCQErrorLog(page []byte) (NCQErrorLog, error) {
	if len(page) < NCQLogSize {
		return NCQErrorLog{}, ErrShortLog
	}

	var sum byte
	for _, b := range page[:NCQLogSize] {
		sum += b
	}

	if sum != 0 {
		return NCQErrorLog{}, ErrBadChecksum
	}

	l := NCQErrorLog{
		Tag:       int(page[0] & ncqTagMask),
		NotQueued: page[0]&ncqNotQueuedBit != 0,
		Registers: sas.ATARegisters{
			Status: page[2],
			Error:  page[3],
			LBA: uint64(page[4]) |
				uint64(page[5])<<8 |
				uint64(page[6])<<16 |
				uint64(page[8])<<24 |
				uint64(page[9])<<32 |
				uint64(page[10])<<40,
			Device:      page[7],
			SectorCount: uint16(page[12]) | uint16(page[13])<<8,
		},
	}

	return l, nil
}

// Encode builds the log page that decodes to l, checksum included.
func (l NCQErrorLog) Encode() []byte {
	page := make([]byte, NCQLogSize)

	page[0] = byte(l.Tag) & ncqTagMask
	if l.NotQueued {
		page[0] |= ncqNotQueuedBit
	}

	page[2] = l.Registers.Status
	page[3] = l.Registers.Error
	page[4] = byte(l.Registers.LBA)
	page[5] = byte(l.Registers.LBA >> 8)
	page[6] = byte(l.Registers.LBA >> 16)
	page[7] = l.Registers.Device
	page[8] = byte(l.Registers.LBA >> 24)
	page[9] = byte(l.Registers.LBA >> 32)
	page[10] = byte(l.Registers.LBA >> 40)
	page[12] = byte(l.Registers.SectorCount)
	page[13] = byte(l.Registers.SectorCount >> 8)

	var sum byte
	for _, b := range page[:NCQLogSize-1] {
		sum += b
	}
	page[NCQLogSize-1] = -sum

	return page
}
