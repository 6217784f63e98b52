package pool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/contigkit/device"
	"github.com/joshuapare/contigkit/device/simdev"
)

// fillWithIdle acquires two blocks of each size, then releases the second
// one, leaving every zone with one block checked out and one idle.
func fillWithIdle(t *testing.T, a *Allocator, sizes ...int) []Handle {
	t.Helper()
	var held []Handle
	for _, size := range sizes {
		keep, err := a.Acquire(size, 0)
		require.NoError(t, err)
		idle, err := a.Acquire(size, 0)
		require.NoError(t, err)
		a.Release(idle.Handle)
		held = append(held, keep.Handle)
	}
	return held
}

func TestRecycleFreesIdleBlocksOfOtherZones(t *testing.T) {
	a, sim := newTestAllocator(t, simdev.Options{Capacity: 3 * 4096}, nil)
	held := fillWithIdle(t, a, 4096)
	require.Equal(t, int64(2*4096), sim.Stats().InUse)

	blk, err := a.Acquire(8192, 0)
	require.NoError(t, err, "sweep must make room for the retry")

	st := a.Stats()
	require.Equal(t, 1, st.Sweeps)
	require.Equal(t, 1, st.Recycled)
	require.Equal(t, []ZoneInfo{
		{BlockSize: 4096, Total: 1, Free: 0},
		{BlockSize: 8192, Total: 1, Free: 0},
	}, a.Zones(), "serviced zone must survive the sweep")
	require.Equal(t, 1, sim.Stats().Denied)

	a.Release(blk.Handle)
	a.Release(held[0])
	require.Empty(t, a.Zones())
}

func TestRecycleIsBoundedPerAcquire(t *testing.T) {
	a, sim := newTestAllocator(t, simdev.Options{Capacity: 4096}, nil)

	hold, err := a.Acquire(4096, 0)
	require.NoError(t, err)

	const n = 5
	for i := 1; i <= n; i++ {
		_, err := a.Acquire(8192, 0)
		require.ErrorIs(t, err, ErrExhausted)
		require.ErrorIs(t, err, device.ErrExhausted)
		require.Equal(t, i, a.Stats().Sweeps, "exactly one sweep per failed acquire")
		require.Equal(t, 2*i, sim.Stats().Denied, "one attempt plus one retry per acquire")
	}

	_, ok := zoneOf(t, a, 8192)
	require.False(t, ok, "zone with no blocks must not outlive a failed acquire")
	require.Len(t, a.Zones(), 1)

	a.Release(hold.Handle)
}

func TestRecycleRetryFailureKeepsPopulatedZone(t *testing.T) {
	a, sim := newTestAllocator(t, simdev.Options{Capacity: 2 * 4096}, nil)

	x, err := a.Acquire(4096, 0)
	require.NoError(t, err)
	y, err := a.Acquire(4096, 0)
	require.NoError(t, err)

	_, err = a.Acquire(4096, 0)
	require.ErrorIs(t, err, ErrExhausted)

	z, ok := zoneOf(t, a, 4096)
	require.True(t, ok, "zone that already holds blocks stays registered")
	require.Equal(t, 2, z.Total)
	require.Equal(t, 2, sim.Stats().Denied)

	a.Release(x.Handle)
	a.Release(y.Handle)
}

func TestRecyclePolicies(t *testing.T) {
	const capacity = 2*4096 + 2*16384

	tests := []struct {
		name         string
		policy       RecyclePolicy
		wantRecycled int
		wantZones    []ZoneInfo
	}{
		{
			name:         "all",
			policy:       RecycleAll,
			wantRecycled: 2,
			wantZones: []ZoneInfo{
				{BlockSize: 4096, Total: 1, Free: 0},
				{BlockSize: 8192, Total: 1, Free: 0},
				{BlockSize: 16384, Total: 1, Free: 0},
			},
		},
		{
			name:         "one evicts largest idle block",
			policy:       RecycleOne,
			wantRecycled: 1,
			wantZones: []ZoneInfo{
				{BlockSize: 4096, Total: 2, Free: 1},
				{BlockSize: 8192, Total: 1, Free: 0},
				{BlockSize: 16384, Total: 1, Free: 0},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAllocator(t, simdev.Options{Capacity: capacity}, &Config{Recycle: tt.policy})
			held := fillWithIdle(t, a, 4096, 16384)

			blk, err := a.Acquire(8192, 0)
			require.NoError(t, err)
			require.Equal(t, tt.wantRecycled, a.Stats().Recycled)
			require.Equal(t, tt.wantZones, a.Zones())

			a.Release(blk.Handle)
			for _, h := range held {
				a.Release(h)
			}
			require.Empty(t, a.Zones())
		})
	}
}

func TestRecycleRemovesEmptiedZones(t *testing.T) {
	a, sim := newTestAllocator(t, simdev.Options{}, nil)

	x, err := a.Acquire(4096, 0)
	require.NoError(t, err)
	y, err := a.Acquire(4096, 0)
	require.NoError(t, err)
	keep, err := a.Acquire(8192, 0)
	require.NoError(t, err)

	// Park both 4096 blocks on the free list without triggering the eager
	// teardown in Release, so the sweep is what empties the zone.
	a.mu.Lock()
	z := a.zones[4096]
	for _, h := range []Handle{x.Handle, y.Handle} {
		d, ok := z.lookup(h.id)
		require.True(t, ok)
		z.push(d)
	}
	a.recycleLocked(a.zones[8192])
	_, stillThere := a.zones[4096]
	a.mu.Unlock()

	require.False(t, stillThere)
	require.Equal(t, 2, a.Stats().Recycled)
	require.Equal(t, 1, sim.Stats().Live)

	a.Release(keep.Handle)
	require.Empty(t, a.Zones())
}

func TestParseRecyclePolicy(t *testing.T) {
	for in, want := range map[string]RecyclePolicy{
		"":      RecycleAll,
		"all":   RecycleAll,
		" ALL ": RecycleAll,
		"one":   RecycleOne,
		"One":   RecycleOne,
	} {
		got, err := ParseRecyclePolicy(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseRecyclePolicy("some")
	require.Error(t, err)

	require.Equal(t, "all", RecycleAll.String())
	require.Equal(t, "one", RecycleOne.String())
	require.Equal(t, "RecyclePolicy(9)", RecyclePolicy(9).String())
}
