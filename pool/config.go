package pool

import (
	"io"
	"log/slog"
)

// DefaultGranularity is the size-class unit: one device page.
const DefaultGranularity = 4096

// Config tunes an Allocator.
type Config struct {
	// Granularity is the size-class unit. Requests are rounded up to a
	// multiple of it. Must be a power of two; zero selects DefaultGranularity.
	Granularity int

	// Recycle selects the sweep run when the device is out of memory.
	Recycle RecyclePolicy

	// Logger receives debug diagnostics (zone lifecycle, sweeps) and warnings
	// for device errors during teardown. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig is used when New is given a nil config.
var DefaultConfig = Config{
	Granularity: DefaultGranularity,
	Recycle:     RecycleAll,
}

func (c Config) normalize() (Config, error) {
	if c.Granularity == 0 {
		c.Granularity = DefaultGranularity
	}
	if err := checkGranularity(c.Granularity); err != nil {
		return c, err
	}
	if c.Recycle != RecycleAll && c.Recycle != RecycleOne {
		c.Recycle = RecycleAll
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}
