package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gridfactory.dev/internal/sim/factory"
	"gridfactory.dev/internal/sim/level"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("name: line\nworld_size: [4, 1]\ntick_rate_hz: 2\ninputs:\n  - {cell: [0, 0], every: 1, item: ore}\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("world_size: [0, 1]\ntick_rate_hz: 2\ninputs: []\n"), 0o644))

	out, _, err := execute(t, "validate", good)
	require.NoError(t, err)
	require.Contains(t, out, `name="line" grid=4x1 tick=500ms inputs=1`)

	_, errOut, err := execute(t, "validate", good, bad)
	require.Error(t, err)
	require.Contains(t, errOut, "FAIL "+bad)
}

func TestSim_PrintsGridPerTick(t *testing.T) {
	out, _, err := execute(t, "sim", "--ticks", "3", "--tile", "0,0,conveyor,E", "--tile", "1,0,smelter,E")
	require.NoError(t, err)

	require.Contains(t, out, "initial running=true\nEe......\n")
	require.Contains(t, out, "tick 1 items=1 spawned=1 moved=1")
	// After tick 2 the ore has passed the smelter and become a bar.
	require.Contains(t, out, "tick 2 items=1 spawned=0 moved=1 blocked=0 converted=1")
	require.Contains(t, out, "Eeb.....\n")
}

func TestRunSim_Stopped(t *testing.T) {
	sess, err := factory.NewSession(level.Default().ToConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runSim(&buf, sess, 2))
	require.Equal(t, 2, strings.Count(buf.String(), "items=0 spawned=0"))
	require.Equal(t, uint64(2), sess.CurrentTick())
}

func TestParseTileFlag(t *testing.T) {
	cell, kind, dir, err := parseTileFlag(" 3, 4 ,Smelter,w")
	require.NoError(t, err)
	require.Equal(t, factory.Cell{Col: 3, Row: 4}, cell)
	require.Equal(t, factory.TileSmelter, kind)
	require.Equal(t, factory.West, dir)

	for _, bad := range []string{"1,2,conveyor", "x,0,conveyor,N", "0,0,furnace,N", "0,0,conveyor,Q"} {
		_, _, _, err := parseTileFlag(bad)
		require.Error(t, err, bad)
	}
}
