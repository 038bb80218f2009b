package factory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memTickLogger struct {
	entries []TickLogEntry
}

func (m *memTickLogger) WriteTick(e TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestTickLog_OnlyActiveTicks(t *testing.T) {
	s := newTestSession(t, 4, 4, SpawnerConfig{Cell: Cell{0, 0}, Kind: ItemOre, Period: 2})
	lg := &memTickLogger{}
	s.SetTickLogger(lg)

	s.StepOnce()
	require.Empty(t, lg.entries, "idle tick without commands is not logged")

	s.Place(Cell{0, 0}, TileConveyor, East)
	s.Editor().Move(1, 0)
	s.StepOnce()
	require.Len(t, lg.entries, 1)
	require.Equal(t, uint64(1), lg.entries[0].Tick)
	require.False(t, lg.entries[0].Running)
	require.Equal(t, []Command{{Op: OpPlace, Cell: [2]int{0, 0}, Kind: "Conveyor", Dir: "E"}}, lg.entries[0].Commands)

	s.ToggleRunning()
	s.StepOnce()
	s.StepOnce()
	require.Len(t, lg.entries, 3)
	require.Equal(t, []Command{{Op: OpToggleRun}}, lg.entries[1].Commands)
	require.Empty(t, lg.entries[2].Commands)
	require.Equal(t, 1, lg.entries[2].Stats.Spawned)
	require.Equal(t, 1, lg.entries[2].Items)
	require.Equal(t, s.Digest(), lg.entries[2].Digest)
}

func TestTickLog_ReplayReproducesDigests(t *testing.T) {
	cfg := Config{
		Width:      5,
		Height:     3,
		TickPeriod: SecondsToDuration(thirdSecond),
		Spawners: []SpawnerConfig{
			{Cell: Cell{0, 1}, Kind: ItemOre, Period: 2},
			{Cell: Cell{4, 1}, Kind: ItemOre, Period: 3},
		},
	}
	src, err := NewSession(cfg)
	require.NoError(t, err)
	lg := &memTickLogger{}
	src.SetTickLogger(lg)

	src.AdvanceSeconds(1.0)
	src.Place(Cell{0, 1}, TileConveyor, East)
	src.Place(Cell{1, 1}, TileSmelter, East)
	src.Place(Cell{4, 1}, TileConveyor, West)
	src.Place(Cell{3, 1}, TileConveyor, West)
	src.Place(Cell{2, 1}, TileConveyor, South)
	src.AdvanceSeconds(0.4)
	src.ToggleRunning()
	src.AdvanceSeconds(3.0)
	src.Remove(Cell{2, 1})
	src.Place(Cell{2, 1}, TileConveyor, North)
	src.AdvanceSeconds(2.0)
	require.NotEmpty(t, lg.entries)

	dst, err := NewSession(cfg)
	require.NoError(t, err)
	for _, e := range lg.entries {
		for dst.CurrentTick() < e.Tick {
			dst.StepOnce()
		}
		for _, cmd := range e.Commands {
			ok, err := dst.Apply(cmd)
			require.NoError(t, err)
			require.True(t, ok)
		}
		tick, digest := dst.StepOnce()
		require.Equal(t, e.Tick, tick)
		require.Equal(t, e.Digest, digest, "tick %d", e.Tick)
	}
	require.Equal(t, src.Snapshot().Items, dst.Snapshot().Items)
}

func TestApply_RejectsUnknownOp(t *testing.T) {
	s := newTestSession(t, 2, 2)
	_, err := s.Apply(Command{Op: "EXPLODE"})
	require.ErrorIs(t, err, ErrBadCommand)
	_, err = s.Apply(Command{Op: OpPlace, Kind: "Conveyor", Dir: "sideways"})
	require.ErrorIs(t, err, ErrBadCommand)
}

func TestSnapshot_Fields(t *testing.T) {
	s := newTestSession(t, 3, 2, SpawnerConfig{Cell: Cell{0, 0}, Kind: ItemOre, Period: 1})
	s.Place(Cell{0, 0}, TileConveyor, East)
	s.Place(Cell{1, 0}, TileSmelter, South)
	s.ToggleRunning()
	s.AdvanceSeconds(0.5)

	snap := s.Snapshot()
	require.Equal(t, uint64(1), snap.Tick)
	require.True(t, snap.Running)
	require.Equal(t, 3, snap.Width)
	require.Equal(t, 2, snap.Height)
	require.InDelta(t, 0.5, snap.Alpha, 0.01)
	require.Len(t, snap.Tiles, 2)
	require.Equal(t, []Item{{ID: 1, Kind: ItemOre, Cell: Cell{1, 0}, Prev: Cell{0, 0}}}, snap.Items)
	require.Equal(t, []string{"Conveyor", "Smelter"}, snap.Menu)
	require.Equal(t, 1, snap.Stats.Moved)
}

func TestRender_Text(t *testing.T) {
	s := newTestSession(t, 3, 2, SpawnerConfig{Cell: Cell{0, 0}, Kind: ItemOre, Period: 1})
	s.Place(Cell{0, 0}, TileConveyor, East)
	s.Place(Cell{1, 0}, TileSmelter, South)
	s.Place(Cell{2, 1}, TileConveyor, West)
	require.Equal(t, "Es.\n..W\n", s.Render())

	s.ToggleRunning()
	s.StepOnce()
	require.Equal(t, strings.Join([]string{"Eo.", "..W", ""}, "\n"), s.Render())
}
