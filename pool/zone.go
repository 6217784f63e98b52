package pool

import (
	"github.com/joshuapare/contigkit/device"
)

// descriptor tracks one device allocation and its process mapping.
type descriptor struct {
	id    uint64
	alloc device.Allocation
	mem   []byte
	idle  bool // on the zone's free stack
}

// zone holds every block of one size class.
//
// all owns the descriptors; free is a LIFO stack of ids into all. A
// descriptor id appears on free at most once, and only while idle is set.
type zone struct {
	blockSize int
	all       map[uint64]*descriptor
	free      []uint64
}

func newZone(blockSize int) *zone {
	return &zone{
		blockSize: blockSize,
		all:       make(map[uint64]*descriptor),
	}
}

func (z *zone) total() int     { return len(z.all) }
func (z *zone) freeCount() int { return len(z.free) }

// quiescent reports whether no block of the zone is checked out.
func (z *zone) quiescent() bool { return len(z.free) == len(z.all) }

// insert adds a freshly created, checked-out descriptor.
func (z *zone) insert(d *descriptor) {
	d.idle = false
	z.all[d.id] = d
}

// pop takes the most recently released descriptor off the free stack.
func (z *zone) pop() (*descriptor, bool) {
	n := len(z.free)
	if n == 0 {
		return nil, false
	}
	id := z.free[n-1]
	z.free = z.free[:n-1]
	d := z.all[id]
	d.idle = false
	return d, true
}

// push returns a checked-out descriptor to the free stack.
func (z *zone) push(d *descriptor) {
	d.idle = true
	z.free = append(z.free, d.id)
}

// lookup returns the checked-out descriptor for id, if any.
func (z *zone) lookup(id uint64) (*descriptor, bool) {
	d, ok := z.all[id]
	if !ok || d.idle {
		return nil, false
	}
	return d, true
}

// evictIdle removes up to limit idle descriptors (all of them when limit <= 0)
// from both collections and returns them for destruction.
func (z *zone) evictIdle(limit int) []*descriptor {
	var out []*descriptor
	for len(z.free) > 0 && (limit <= 0 || len(out) < limit) {
		d, _ := z.pop()
		delete(z.all, d.id)
		out = append(out, d)
	}
	return out
}

// drain removes every descriptor, checked out or not.
func (z *zone) drain() []*descriptor {
	out := make([]*descriptor, 0, len(z.all))
	for _, d := range z.all {
		out = append(out, d)
	}
	z.all = make(map[uint64]*descriptor)
	z.free = nil
	return out
}

func (z *zone) info() ZoneInfo {
	return ZoneInfo{BlockSize: z.blockSize, Total: z.total(), Free: z.freeCount()}
}
