package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"

	"github.com/joshuapare/contigkit/pool"
)

const probeRetryDelay = 250 * time.Millisecond

var (
	probeSize  int
	probeCount int
	probeWait  time.Duration
)

func init() {
	cmd := newProbeCmd()
	cmd.Flags().IntVarP(&probeSize, "size", "s", 4096, "Bytes to request per block")
	cmd.Flags().IntVarP(&probeCount, "count", "n", 1, "Number of blocks to hold at once")
	cmd.Flags().DurationVar(&probeWait, "wait", 0, "Keep retrying while the device cannot be opened, up to this long")
	rootCmd.AddCommand(cmd)
}

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Acquire, verify and release blocks",
		Long: `The probe command acquires blocks from the configured device, writes
a test pattern through each mapping, reads it back, and releases them.

Example:
  contigctl probe
  contigctl probe --size 1048576 --count 4
  contigctl probe --driver sim --json
  contigctl probe --wait 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe()
		},
	}
	return cmd
}

// ProbeResult describes one probed block.
type ProbeResult struct {
	Handle    string `json:"handle"`
	Phys      string `json:"phys"`
	Requested int    `json:"requested"`
	BlockSize int    `json:"block_size"`
	Verified  bool   `json:"verified"`
}

func runProbe() error {
	if probeCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	s, err := openSession(cfg)
	if err != nil {
		return err
	}

	var held []pool.Block
	results := make([]ProbeResult, 0, probeCount)
	probeErr := func() error {
		for i := 0; i < probeCount; i++ {
			blk, err := acquireWithWait(s, probeSize)
			if err != nil {
				return fmt.Errorf("acquire %d of %d: %w", i+1, probeCount, err)
			}
			held = append(held, blk)

			results = append(results, ProbeResult{
				Handle:    blk.Handle.String(),
				Phys:      fmt.Sprintf("%#x", blk.Phys),
				Requested: probeSize,
				BlockSize: blk.Size,
				Verified:  verifyPattern(blk.Mem, byte(i+1)),
			})
		}
		return nil
	}()

	for _, blk := range held {
		s.alloc.Release(blk.Handle)
	}
	if err := errors.Join(probeErr, s.Close()); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		status := "ok"
		if !r.Verified {
			status = "MISMATCH"
		}
		printInfo("%s phys=%s size=%d %s\n", r.Handle, r.Phys, r.BlockSize, status)
	}
	for _, r := range results {
		if !r.Verified {
			return fmt.Errorf("pattern mismatch in %s", r.Handle)
		}
	}
	return nil
}

// acquireWithWait retries Acquire while the device cannot be opened, for at
// most probeWait. Other failures are returned immediately.
func acquireWithWait(s *session, size int) (pool.Block, error) {
	attempts := uint(1)
	if probeWait > 0 {
		attempts += uint(probeWait / probeRetryDelay)
	}

	var blk pool.Block
	err := retry.Do(
		func() error {
			var err error
			blk, err = s.alloc.Acquire(size, 0)
			return err
		},
		retry.Attempts(attempts),
		retry.Delay(probeRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, pool.ErrDeviceUnavailable)
		}),
		retry.OnRetry(func(n uint, err error) {
			printVerbose("Device unavailable (attempt %d): %v\n", n+1, err)
		}),
	)
	return blk, err
}

// verifyPattern fills mem with a position-dependent pattern and reads it back.
func verifyPattern(mem []byte, seed byte) bool {
	for i := range mem {
		mem[i] = seed ^ byte(i)
	}
	for i := range mem {
		if mem[i] != seed^byte(i) {
			return false
		}
	}
	return true
}
