package pool

// recycleLocked releases idle blocks held by zones other than keep so that a
// failed device allocation for keep can be retried. Zones left empty are
// removed. Callers run it at most once per Acquire.
//
// Zones are visited from the largest block size down, so RecycleOne gives
// back the most memory it can with a single eviction.
func (a *Allocator) recycleLocked(keep *zone) {
	a.stats.Sweeps++

	limit := 0
	if a.recycle == RecycleOne {
		limit = 1
	}

	zs := a.sortedZonesLocked()
	evicted, released := 0, 0
	for i := len(zs) - 1; i >= 0; i-- {
		z := zs[i]
		if z == keep {
			continue
		}
		remaining := 0
		if limit > 0 {
			remaining = limit - evicted
		}
		for _, d := range z.evictIdle(remaining) {
			evicted++
			freed, err := a.destroyLocked(d)
			if err != nil {
				a.log.Warn("recycling sweep could not release block", "block_size", z.blockSize, "err", err)
			}
			if freed {
				released++
			}
		}
		if z.total() == 0 {
			a.removeZoneLocked(z)
		}
		if limit > 0 && evicted >= limit {
			break
		}
	}

	a.stats.Recycled += released
	a.log.Debug("recycling sweep", "for_block_size", keep.blockSize, "policy", a.recycle, "released", released)
}
