package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/contigkit/device"
	"github.com/joshuapare/contigkit/device/cmem"
	"github.com/joshuapare/contigkit/device/simdev"
	"github.com/joshuapare/contigkit/internal/config"
	"github.com/joshuapare/contigkit/internal/logger"
	"github.com/joshuapare/contigkit/pool"
)

// session bundles an allocator with the resources a command must release.
type session struct {
	alloc *pool.Allocator
	sim   *simdev.Device // nil unless device.driver is sim
	logs  io.Closer
}

func openerFor(cfg *config.Config) (device.Opener, *simdev.Device, error) {
	switch cfg.Device.Driver {
	case config.DriverCMEM:
		return cmem.Opener(cfg.Device.Path), nil, nil
	case config.DriverSim:
		sim := simdev.New(simdev.Options{Capacity: cfg.Device.SimCapacity})
		return sim.Open, sim, nil
	default:
		return nil, nil, fmt.Errorf("unknown device driver %q", cfg.Device.Driver)
	}
}

func openSession(cfg *config.Config) (*session, error) {
	open, sim, err := openerFor(cfg)
	if err != nil {
		return nil, err
	}

	log, logs := logger.Setup(cfg.Log, os.Stderr)
	pc, err := cfg.AllocatorConfig(log.With("component", "pool"))
	if err != nil {
		logs.Close()
		return nil, err
	}
	alloc, err := pool.New(open, pc)
	if err != nil {
		logs.Close()
		return nil, err
	}

	printVerbose("Device: %s (granularity %d, recycle %s)\n", describeDevice(cfg), alloc.Granularity(), pc.Recycle)
	return &session{alloc: alloc, sim: sim, logs: logs}, nil
}

// Close shuts the allocator down and closes the log file.
func (s *session) Close() error {
	return errors.Join(s.alloc.Shutdown(), s.logs.Close())
}

func describeDevice(cfg *config.Config) string {
	if cfg.Device.Driver == config.DriverSim {
		if cfg.Device.SimCapacity == 0 {
			return "sim (unlimited)"
		}
		return fmt.Sprintf("sim (%d bytes)", cfg.Device.SimCapacity)
	}
	return fmt.Sprintf("%s %s", cfg.Device.Driver, cfg.Device.Path)
}
