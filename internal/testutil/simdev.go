// Package testutil holds helpers shared by contigkit tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshuapare/contigkit/device/simdev"
)

// NewSimDevice returns a simulated device that fails the test if any
// allocation or mapping is still live when the test finishes.
//
// Cleanups run in reverse order, so an allocator whose Shutdown is registered
// after this call is torn down before the leak check runs.
//
// Example:
//
//	sim := testutil.NewSimDevice(t, simdev.Options{Capacity: 1 << 20})
//	a, _ := pool.New(sim.Open, nil)
//	t.Cleanup(func() { _ = a.Shutdown() })
func NewSimDevice(t testing.TB, opts simdev.Options) *simdev.Device {
	t.Helper()
	sim := simdev.New(opts)
	t.Cleanup(func() { AssertNoLeaks(t, sim) })
	return sim
}

// AssertNoLeaks reports through t when sim still holds allocations or
// mappings, and returns whether it was clean.
func AssertNoLeaks(t assert.TestingT, sim *simdev.Device) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	s := sim.Stats()
	ok := assert.Zero(t, s.Live, "device allocations still live")
	ok = assert.Zero(t, s.Mapped, "device mappings still live") && ok
	ok = assert.Zero(t, s.InUse, "device bytes still allocated") && ok
	return ok
}
