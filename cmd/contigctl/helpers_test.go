package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/contigkit/internal/config"
)

// resetFlags restores every package-level flag to its default.
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	configPath = ""
	driverFlag = ""

	probeSize = 4096
	probeCount = 1
	probeWait = 0

	stressWorkers = 4
	stressIterations = 1000
	stressSizes = []int{4096, 8192, 65536}
	stressSeed = 1

	configInitForce = false
}

// writeTestConfig saves a sim-backed config to a temp file, applies mutate,
// and points --config at it.
func writeTestConfig(t *testing.T, mutate func(c *config.Config)) string {
	t.Helper()
	c := config.DefaultConfig()
	c.Device.Driver = config.DriverSim
	c.Log.Level = "error"
	if mutate != nil {
		mutate(c)
	}
	path := filepath.Join(t.TempDir(), "contigkit.yaml")
	require.NoError(t, config.SaveToFile(c, path))
	configPath = path
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain while fn runs so output larger than the pipe buffer cannot block it.
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		var buf bytes.Buffer
		_, err := buf.ReadFrom(r)
		done <- result{buf.String(), err}
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	res := <-done
	r.Close()
	if res.err != nil {
		t.Fatalf("failed to read output: %v", res.err)
	}
	return res.out, fnErr
}

func TestCaptureOutputLargerThanPipeBuffer(t *testing.T) {
	resetFlags()
	line := strings.Repeat("x", 1023) + "\n"
	const lines = 512 // 512 KiB, well past a 64 KiB pipe buffer

	output, err := captureOutput(t, func() error {
		for i := 0; i < lines; i++ {
			printInfo("%s", line)
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, output, lines*len(line))
}
