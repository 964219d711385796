// Package stp holds the SATA specific parts of the lifecycle manager: the
// NCQ tag pool, the NCQ error log decoder, and the NCQ error recovery
// sequence.
package stp

import (
	"math/bits"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/sashba/request"
	"github.com/sarchlab/sashba/sas"
)

// MaxNCQDepth is the number of tags NCQ can address.
const MaxNCQDepth = 32

// TagPool tracks the NCQ tags of one device. A tag's bit is set if and only
// if its owner entry holds a request handle.
type TagPool struct {
	depth  int
	bits   uint32
	owners [MaxNCQDepth]request.Handle
}

// NewTagPool creates a tag pool with depth tags.
func NewTagPool(depth int) *TagPool {
	if depth < 1 || depth > MaxNCQDepth {
		log.Panicf("invalid NCQ depth %d", depth)
	}

	return &TagPool{depth: depth}
}

// Depth returns the number of tags.
func (p *TagPool) Depth() int {
	return p.depth
}

// Allocate assigns the lowest free tag to the request.
func (p *TagPool) Allocate(owner request.Handle) (int, error) {
	if !owner.IsValid() {
		log.Panic("allocating an NCQ tag for an invalid request handle")
	}

	for tag := 0; tag < p.depth; tag++ {
		mask := uint32(1) << tag
		if p.bits&mask == 0 {
			p.bits |= mask
			p.owners[tag] = owner

			return tag, nil
		}
	}

	return request.NoTag, sas.FailureInsufficientResources
}

// Free releases a tag and returns the handle that owned it.
func (p *TagPool) Free(tag int) request.Handle {
	owner, ok := p.Lookup(tag)
	if !ok {
		log.Panicf("freeing NCQ tag %d that is not allocated", tag)
	}

	p.bits &^= uint32(1) << tag
	p.owners[tag] = request.NoHandle

	return owner
}

// Lookup returns the handle that owns the tag.
func (p *TagPool) Lookup(tag int) (request.Handle, bool) {
	if tag < 0 || tag >= p.depth {
		return request.NoHandle, false
	}

	if p.bits&(uint32(1)<<tag) == 0 {
		return request.NoHandle, false
	}

	return p.owners[tag], true
}

// InUse returns the number of allocated tags.
func (p *TagPool) InUse() int {
	return bits.OnesCount32(p.bits)
}

// Tags returns the allocated tags in increasing order.
func (p *TagPool) Tags() []int {
	tags := []int{}
	for tag := 0; tag < p.depth; tag++ {
		if p.bits&(uint32(1)<<tag) != 0 {
			tags = append(tags, tag)
		}
	}

	return tags
}

// Consistent tells if the bitmask agrees with the owner entries.
func (p *TagPool) Consistent() bool {
	for tag := 0; tag < MaxNCQDepth; tag++ {
		set := p.bits&(uint32(1)<<tag) != 0
		if set != p.owners[tag].IsValid() {
			return false
		}
	}

	return true
}
