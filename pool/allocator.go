package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/joshuapare/contigkit/device"
)

// Allocator hands out device-mapped blocks grouped into size classes.
// Construct one per process with New and share it; call Shutdown before exit.
type Allocator struct {
	mu sync.Mutex

	open   device.Opener
	dev    device.Device // nil until the first Acquire opens it
	closed bool

	granularity int
	recycle     RecyclePolicy
	log         *slog.Logger

	zones  map[int]*zone // keyed by rounded block size
	nextID uint64
	stats  Stats
}

// New creates an Allocator that opens its device through open on first use.
// A nil config selects DefaultConfig.
func New(open device.Opener, config *Config) (*Allocator, error) {
	if open == nil {
		return nil, errors.New("pool: nil device opener")
	}
	if config == nil {
		config = &DefaultConfig
	}
	cfg, err := config.normalize()
	if err != nil {
		return nil, err
	}
	return &Allocator{
		open:        open,
		granularity: cfg.Granularity,
		recycle:     cfg.Recycle,
		log:         cfg.Logger,
		zones:       make(map[int]*zone),
	}, nil
}

// Granularity returns the size-class unit.
func (a *Allocator) Granularity() int { return a.granularity }

// Acquire returns a block of at least size bytes. flags is reserved for
// device hints and currently ignored.
//
// An idle block of the same size class is reused without touching the
// device. Otherwise a new block is allocated and mapped; if the device is out
// of memory, idle blocks of other size classes are released once and the
// allocation is retried once.
func (a *Allocator) Acquire(size int, flags Flags) (Block, error) {
	class, err := RoundUp(size, a.granularity)
	if err != nil {
		return Block{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return Block{}, ErrClosed
	}
	if err := a.openLocked(); err != nil {
		return Block{}, err
	}

	z := a.zoneLocked(class)
	if d, ok := z.pop(); ok {
		a.stats.Acquires++
		a.stats.Reuses++
		return a.block(z, d), nil
	}

	d, err := a.createLocked(z)
	if errors.Is(err, ErrExhausted) {
		a.recycleLocked(z)
		d, err = a.createLocked(z)
	}
	if err != nil {
		if z.total() == 0 {
			a.removeZoneLocked(z)
		}
		return Block{}, err
	}

	z.insert(d)
	a.stats.Acquires++
	return a.block(z, d), nil
}

// Release returns a block to its size class. The zero Handle, handles that
// were already released and handles whose zone has been reclaimed are
// ignored.
//
// When the release leaves the zone with no blocks checked out, the whole
// zone is unmapped and freed back to the device.
func (a *Allocator) Release(h Handle) {
	if h.IsZero() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	z, ok := a.zones[h.class]
	if !ok {
		return
	}
	d, ok := z.lookup(h.id)
	if !ok {
		return
	}

	z.push(d)
	a.stats.Releases++
	if z.quiescent() {
		if err := a.teardownLocked(z); err != nil {
			a.log.Warn("zone teardown incomplete", "block_size", z.blockSize, "err", err)
		}
	}
}

// Shutdown frees every block, including ones still checked out, and closes
// the device. Handles held by callers become invalid. Teardown continues past
// device errors; they are returned joined. Calling Shutdown again is a no-op.
func (a *Allocator) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	for _, z := range a.sortedZonesLocked() {
		if n := z.total() - z.freeCount(); n > 0 {
			a.log.Debug("reclaiming blocks still checked out", "block_size", z.blockSize, "count", n)
		}
		errs = append(errs, a.teardownLocked(z))
	}
	if a.dev != nil {
		if err := a.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("pool: close device: %w", err))
		}
		a.dev = nil
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of allocator state and lifetime counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stats
	s.Zones = len(a.zones)
	for _, z := range a.zones {
		s.Buffers += z.total()
		s.FreeBuffers += z.freeCount()
		s.BytesMapped += int64(z.total()) * int64(z.blockSize)
	}
	return s
}

// Zones returns one entry per live size class, smallest first.
func (a *Allocator) Zones() []ZoneInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ZoneInfo, 0, len(a.zones))
	for _, z := range a.sortedZonesLocked() {
		out = append(out, z.info())
	}
	return out
}

func (a *Allocator) openLocked() error {
	if a.dev != nil {
		return nil
	}
	dev, err := a.open()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if dev == nil {
		return fmt.Errorf("%w: opener returned no device", ErrDeviceUnavailable)
	}
	a.dev = dev
	a.log.Debug("device opened")
	return nil
}

func (a *Allocator) zoneLocked(class int) *zone {
	if z, ok := a.zones[class]; ok {
		return z
	}
	z := newZone(class)
	a.zones[class] = z
	a.log.Debug("zone created", "block_size", class)
	return z
}

func (a *Allocator) removeZoneLocked(z *zone) {
	if a.zones[z.blockSize] == z {
		delete(a.zones, z.blockSize)
		a.stats.ZonesReaped++
		a.log.Debug("zone removed", "block_size", z.blockSize)
	}
}

// createLocked allocates and maps one block of the zone's size. Running out
// of device memory is reported as ErrExhausted; a mapping failure frees the
// allocation and is reported as ErrMapFailed.
func (a *Allocator) createLocked(z *zone) (*descriptor, error) {
	alloc, err := a.dev.Alloc(z.blockSize)
	if err != nil {
		if errors.Is(err, device.ErrExhausted) {
			return nil, fmt.Errorf("%w: %w", ErrExhausted, err)
		}
		return nil, fmt.Errorf("pool: device alloc %d bytes: %w", z.blockSize, err)
	}
	a.stats.DeviceAllocs++

	mem, err := a.dev.Map(alloc)
	if err != nil {
		a.stats.MapFailures++
		if ferr := a.dev.Free(alloc); ferr != nil {
			return nil, fmt.Errorf("%w: %w (free after failed map: %w)", ErrMapFailed, err, ferr)
		}
		a.stats.DeviceFrees++
		return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}

	a.nextID++
	return &descriptor{id: a.nextID, alloc: alloc, mem: mem}, nil
}

// destroyLocked unmaps and frees one block. Both steps are attempted;
// freed reports whether the device took the allocation back.
func (a *Allocator) destroyLocked(d *descriptor) (freed bool, err error) {
	var errs []error
	if err := a.dev.Unmap(d.mem); err != nil {
		errs = append(errs, fmt.Errorf("pool: unmap block %d: %w", d.id, err))
	}
	d.mem = nil
	if err := a.dev.Free(d.alloc); err != nil {
		errs = append(errs, fmt.Errorf("pool: free block %d: %w", d.id, err))
	} else {
		a.stats.DeviceFrees++
		freed = true
	}
	return freed, errors.Join(errs...)
}

// teardownLocked destroys every block of z and removes it.
func (a *Allocator) teardownLocked(z *zone) error {
	var errs []error
	for _, d := range z.drain() {
		_, err := a.destroyLocked(d)
		errs = append(errs, err)
	}
	a.removeZoneLocked(z)
	return errors.Join(errs...)
}

func (a *Allocator) sortedZonesLocked() []*zone {
	zs := make([]*zone, 0, len(a.zones))
	for _, z := range a.zones {
		zs = append(zs, z)
	}
	sort.Slice(zs, func(i, j int) bool { return zs[i].blockSize < zs[j].blockSize })
	return zs
}

func (a *Allocator) block(z *zone, d *descriptor) Block {
	return Block{
		Handle: Handle{class: z.blockSize, id: d.id},
		Phys:   d.alloc.Phys,
		Mem:    d.mem,
		Size:   z.blockSize,
	}
}
