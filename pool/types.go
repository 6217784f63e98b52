package pool

import (
	"fmt"
	"strings"
)

// Flags is accepted by Acquire and reserved for future placement hints
// (cached/uncached, secure heap). It is currently ignored.
type Flags uint32

// Handle identifies one acquired block. The zero Handle is invalid.
//
// Handles are plain values: copying one does not duplicate the block, and a
// handle that outlived its block (released twice, or released after its zone
// was reclaimed) is simply ignored by Release.
type Handle struct {
	class int    // rounded block size of the owning zone
	id    uint64 // allocator-unique descriptor id, never reused
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.id == 0 }

// BlockSize returns the size class the handle belongs to.
func (h Handle) BlockSize() int { return h.class }

func (h Handle) String() string {
	if h.IsZero() {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d#%d)", h.class, h.id)
}

// Block is the result of a successful Acquire.
type Block struct {
	Handle Handle
	Phys   uint64 // physical base address as reported by the device
	Mem    []byte // process mapping; len(Mem) == Size
	Size   int    // rounded block size
}

// RecyclePolicy selects how much a recycling sweep releases.
type RecyclePolicy int

const (
	// RecycleAll releases every idle block of every other zone.
	RecycleAll RecyclePolicy = iota
	// RecycleOne releases a single idle block, preferring the largest size class.
	RecycleOne
)

func (p RecyclePolicy) String() string {
	switch p {
	case RecycleAll:
		return "all"
	case RecycleOne:
		return "one"
	default:
		return fmt.Sprintf("RecyclePolicy(%d)", int(p))
	}
}

// ParseRecyclePolicy parses "all" or "one" (case-insensitive). The empty
// string selects RecycleAll.
func ParseRecyclePolicy(s string) (RecyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return RecycleAll, nil
	case "one":
		return RecycleOne, nil
	default:
		return RecycleAll, fmt.Errorf("pool: unknown recycle policy %q (want all or one)", s)
	}
}

// Stats is a snapshot of allocator state and lifetime counters.
type Stats struct {
	Zones       int   // live size classes
	Buffers     int   // blocks held across all zones
	FreeBuffers int   // idle blocks across all zones
	BytesMapped int64 // sum of block sizes held

	Acquires     int // successful Acquire calls
	Reuses       int // Acquires served from a free list
	Releases     int // Release calls that returned a block
	DeviceAllocs int // successful device allocations
	DeviceFrees  int // device frees that succeeded
	MapFailures  int
	Sweeps       int // recycling sweeps run
	Recycled     int // idle blocks sweeps gave back to the device
	ZonesReaped  int // zones torn down
}

// ZoneInfo describes one size class.
type ZoneInfo struct {
	BlockSize int
	Total     int
	Free      int
}

// InUse returns the number of blocks checked out of the zone.
func (z ZoneInfo) InUse() int { return z.Total - z.Free }
