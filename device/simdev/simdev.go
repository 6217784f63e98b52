// Package simdev simulates a contiguous-memory device in process.
//
// Physical addresses are synthetic and page aligned, mappings are anonymous
// memory, and an optional capacity budget makes allocation fail with
// device.ErrExhausted the way a real carve-out does when it fills up. Every
// primitive is counted so callers can assert exactly how much device traffic
// an operation caused.
package simdev

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joshuapare/contigkit/device"
	"github.com/joshuapare/contigkit/internal/buf"
	"github.com/joshuapare/contigkit/internal/mmfile"
)

// physBase is where synthetic physical addresses start.
const physBase = 0x8000_0000

// ErrInjected is returned by operations failed through the Fail* hooks.
var ErrInjected = errors.New("simdev: injected failure")

// Options configures a simulated device.
type Options struct {
	// Capacity is the number of bytes the device can hand out at once.
	// Zero means unlimited.
	Capacity int64

	// PageSize aligns synthetic physical addresses. Defaults to 4096.
	PageSize int
}

// Stats counts device primitives since creation.
type Stats struct {
	Opens   int
	Closes  int
	Allocs  int // successful allocations
	Frees   int
	Maps    int // successful mappings
	Unmaps  int
	Denied  int   // allocations refused for capacity
	Live    int   // allocations not yet freed
	Mapped  int   // mappings not yet unmapped
	InUse   int64 // bytes held by live allocations
	Refused int   // opens refused through FailOpen
}

// Device is a simulated backing device. It is safe for concurrent use.
type Device struct {
	mu       sync.Mutex
	opts     Options
	open     bool
	nextPhys uint64
	nextTok  uint64
	live     map[uint64]device.Allocation
	mapped   map[*byte]uint64
	stats    Stats

	failOpen  int
	failMap   int
	failAlloc int
}

// New creates a simulated device. It starts closed; Open it directly or hand
// its Open method to the pool as a device.Opener.
func New(opts Options) *Device {
	if opts.PageSize <= 0 {
		opts.PageSize = 4096
	}
	return &Device{
		opts:     opts,
		nextPhys: physBase,
		live:     make(map[uint64]device.Allocation),
		mapped:   make(map[*byte]uint64),
	}
}

// Open marks the device open and returns it. It satisfies device.Opener.
func (d *Device) Open() (device.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOpen > 0 {
		d.failOpen--
		d.stats.Refused++
		return nil, fmt.Errorf("simdev: open: %w", ErrInjected)
	}
	d.open = true
	d.stats.Opens++
	return d, nil
}

// Alloc implements device.Device.
func (d *Device) Alloc(size int) (device.Allocation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return device.Allocation{}, device.ErrClosed
	}
	if size <= 0 {
		return device.Allocation{}, fmt.Errorf("simdev: invalid allocation size %d", size)
	}
	if d.failAlloc > 0 {
		d.failAlloc--
		return device.Allocation{}, fmt.Errorf("simdev: alloc: %w", ErrInjected)
	}
	if d.opts.Capacity > 0 && d.stats.InUse+int64(size) > d.opts.Capacity {
		d.stats.Denied++
		return device.Allocation{}, fmt.Errorf("simdev: %d bytes requested, %d of %d in use: %w",
			size, d.stats.InUse, d.opts.Capacity, device.ErrExhausted)
	}
	span, ok := buf.AlignUp(size, d.opts.PageSize)
	if !ok {
		return device.Allocation{}, fmt.Errorf("simdev: allocation size %d overflows", size)
	}

	d.nextTok++
	a := device.Allocation{Token: d.nextTok, Phys: d.nextPhys, Size: size}
	d.nextPhys += uint64(span)
	d.live[a.Token] = a
	d.stats.Allocs++
	d.stats.Live++
	d.stats.InUse += int64(size)
	return a, nil
}

// Free implements device.Device.
func (d *Device) Free(a device.Allocation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return device.ErrClosed
	}
	if a.IsZero() {
		return fmt.Errorf("simdev: free of zero allocation: %w", device.ErrBadAllocation)
	}
	known, ok := d.live[a.Token]
	if !ok || known != a {
		return fmt.Errorf("simdev: free token=%d: %w", a.Token, device.ErrBadAllocation)
	}
	delete(d.live, a.Token)
	d.stats.Frees++
	d.stats.Live--
	d.stats.InUse -= int64(a.Size)
	return nil
}

// Map implements device.Device.
func (d *Device) Map(a device.Allocation) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil, device.ErrClosed
	}
	if _, ok := d.live[a.Token]; !ok {
		return nil, fmt.Errorf("simdev: map token=%d: %w", a.Token, device.ErrBadAllocation)
	}
	if d.failMap > 0 {
		d.failMap--
		return nil, fmt.Errorf("simdev: map: %w", ErrInjected)
	}
	mem, err := mmfile.Anonymous(a.Size)
	if err != nil {
		return nil, err
	}
	d.mapped[&mem[0]] = a.Token
	d.stats.Maps++
	d.stats.Mapped++
	return mem, nil
}

// Unmap implements device.Device.
func (d *Device) Unmap(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.mapped[&mem[0]]; !ok {
		return fmt.Errorf("simdev: unmap of unknown mapping: %w", device.ErrBadAllocation)
	}
	if err := mmfile.Unmap(mem); err != nil {
		return fmt.Errorf("simdev: unmap: %w", err)
	}
	delete(d.mapped, &mem[0])
	d.stats.Unmaps++
	d.stats.Mapped--
	return nil
}

// Close implements device.Device. Live allocations survive a close, the
// same way a real carve-out keeps them until the driver reclaims them.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return device.ErrClosed
	}
	d.open = false
	d.stats.Closes++
	return nil
}

// Stats returns a snapshot of the counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// SetCapacity changes the capacity budget. Zero removes the limit.
func (d *Device) SetCapacity(n int64) {
	d.mu.Lock()
	d.opts.Capacity = n
	d.mu.Unlock()
}

// FailOpen makes the next n opens fail.
func (d *Device) FailOpen(n int) {
	d.mu.Lock()
	d.failOpen = n
	d.mu.Unlock()
}

// FailMap makes the next n mappings fail after the allocation succeeded.
func (d *Device) FailMap(n int) {
	d.mu.Lock()
	d.failMap = n
	d.mu.Unlock()
}

// FailAlloc makes the next n allocations fail with an error that is not
// ErrExhausted.
func (d *Device) FailAlloc(n int) {
	d.mu.Lock()
	d.failAlloc = n
	d.mu.Unlock()
}

var _ device.Device = (*Device)(nil)
