// Package pool provides a size-classed pool allocator for physically
// contiguous, device-mapped memory blocks.
//
// # Overview
//
// Hardware-visible buffers (frames for a decoder, sample blocks for an
// encoder) must come from a device that can hand out physically contiguous
// memory. Those allocations are slow and the memory behind them is scarce, so
// the Allocator keeps released blocks around and hands them out again to the
// next request of the same size class.
//
// # Allocator Interface
//
//   - Acquire(size, flags): get a block of at least size bytes
//   - Release(handle): give it back
//   - Shutdown(): free everything, including blocks never released
//
// # Size Classes
//
// Requested sizes are rounded up to the allocation granularity (4096 bytes by
// default). Each rounded size owns one zone:
//
//	Acquire(4000) ─┐
//	Acquire(4096) ─┴─> zone(4096)
//	Acquire(4097) ───> zone(8192)
//
// A zone tracks every block it ever created and a LIFO stack of the ones that
// are currently idle. Popping from that stack is the fast path and performs no
// device I/O.
//
// # Reclamation
//
// Zones are reclaimed eagerly: when the last outstanding block of a size class
// is released, every block in the zone is unmapped and freed back to the
// device and the zone disappears.
//
// When the device reports it is out of memory, the allocator runs one
// recycling sweep over the other zones, releasing their idle blocks, and
// retries the allocation once. With RecycleAll every idle block of every other
// zone is released; RecycleOne stops after the first idle block, scanning from
// the largest size class down.
//
// # Usage Example
//
//	sim := simdev.New(simdev.Options{Capacity: 64 << 20})
//	a, err := pool.New(sim.Open, nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Shutdown()
//
//	blk, err := a.Acquire(1920*1080*3/2, 0)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("phys=%#x len=%d\n", blk.Phys, len(blk.Mem))
//	a.Release(blk.Handle)
//
// # Thread Safety
//
// An Allocator is safe for concurrent use. A single mutex guards all of its
// state and is held across device calls, so a slow device stalls every
// caller. Device allocation is infrequent compared to reuse, which never
// touches the device.
//
// # Related Packages
//
//   - github.com/joshuapare/contigkit/device: the backing-device boundary
//   - github.com/joshuapare/contigkit/device/cmem: Linux driver
//   - github.com/joshuapare/contigkit/device/simdev: simulated device
package pool
