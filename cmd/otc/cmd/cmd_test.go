package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	demoBoard  = "../../../testdata/boards/demo.kicad_pcb"
	demoScript = "../../../testdata/scripts/demo.otc"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, configFile, workers = false, "", 0
	dragDX, dragDY = 0, 0

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(testContext(t))
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "otc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.MaxZoneAnchors)
	assert.True(t, cfg.ValidateOutlines)

	cfg, err = loadConfig(writeConfig(t, "workers: 3\nclearance: 0.1\nvalidate_outlines: false\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 0.1, cfg.Clearance)
	assert.False(t, cfg.ValidateOutlines)
	assert.Equal(t, 32, cfg.MaxZoneAnchors, "unset keys keep defaults")
	assert.Equal(t, 16, cfg.ArcSegments)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.yaml")},
		{"bad yaml", writeConfig(t, "workers: [1\n")},
		{"negative clearance", writeConfig(t, "clearance: -1\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestNetsCommand(t *testing.T) {
	out, err := execute(t, "nets", demoBoard)
	require.NoError(t, err)
	assert.Contains(t, out, "GND")
	assert.Contains(t, out, "VCC")
	assert.Contains(t, out, "Total unconnected: 1")
}

func TestRatsnestCommand(t *testing.T) {
	out, err := execute(t, "ratsnest", demoBoard, "GND")
	require.NoError(t, err)
	assert.Contains(t, out, "Net GND (1): 4 clusters, 1 unconnected")
	assert.Contains(t, out, ", orphaned")
	assert.Contains(t, out, "J1.2")
	assert.Contains(t, out, "R2.2")
	assert.NotContains(t, out, "Net VCC")

	out, err = execute(t, "ratsnest", demoBoard, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Net VCC (2): 1 clusters, 0 unconnected")

	_, err = execute(t, "ratsnest", demoBoard, "NOPE")
	assert.ErrorContains(t, err, `net "NOPE" not found`)
}

func TestDanglingCommand(t *testing.T) {
	out, err := execute(t, "dangling", demoBoard)
	require.NoError(t, err)
	assert.Contains(t, out, "(110.000, 45.000)")
}

func TestReplayCommand(t *testing.T) {
	out, err := execute(t, "replay", demoBoard, demoScript)
	require.NoError(t, err)
	assert.Contains(t, out, "drag: 2 lines")
	assert.Contains(t, out, "unconnected")
}

func TestDragCommand(t *testing.T) {
	_, err := execute(t, "drag", demoBoard, "U99")
	assert.ErrorContains(t, err, `footprint "U99" not found`)

	out, err := execute(t, "drag", demoBoard, "R1", "--dx", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "lines")
}

func TestWorkersFlagOverridesConfig(t *testing.T) {
	path := writeConfig(t, "workers: 1\n")
	_, err := execute(t, "nets", demoBoard, "--config", path, "--workers", "2")
	require.NoError(t, err)
}

// testContext stands in for testing.T.Context (Go 1.24+): it is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
