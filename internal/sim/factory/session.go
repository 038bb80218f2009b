package factory

import (
	"fmt"
	"time"
)

type SpawnerConfig struct {
	Cell   Cell
	Kind   ItemKind
	Period int
}

type Config struct {
	Width      int
	Height     int
	TickPeriod time.Duration
	Spawners   []SpawnerConfig
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry records one logical tick: the mutations applied since the
// previous tick, what the tick did, and the state digest after it.
type TickLogEntry struct {
	Tick     uint64    `json:"tick"`
	Running  bool      `json:"running"`
	Commands []Command `json:"commands,omitempty"`
	Stats    TickStats `json:"stats"`
	Items    int       `json:"items"`
	Digest   string    `json:"digest"`
}

// Session is one factory sandbox: grid, items, spawners, clock and editor.
// It is not safe for concurrent use; the host loop owns it.
type Session struct {
	cfg Config

	grid     *Grid
	items    *Registry
	spawners []*Spawner
	clock    *Clock
	editor   *Editor

	running bool
	tick    uint64

	// Mutations applied since the last tick, flushed into the tick log.
	pending []Command

	lastStats  TickStats
	totalStats TickStats

	tickLogger TickLogger
}

func NewSession(cfg Config) (*Session, error) {
	g, err := NewGrid(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d", err, cfg.Width, cfg.Height)
	}
	clk, err := NewClock(cfg.TickPeriod)
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:   cfg,
		grid:  g,
		items: NewRegistry(),
		clock: clk,
	}
	for i, sc := range cfg.Spawners {
		if !g.InBounds(sc.Cell) {
			return nil, fmt.Errorf("%w: spawner %d cell %s out of bounds", ErrBadSpawner, i, sc.Cell)
		}
		sp, err := NewSpawner(sc.Cell, sc.Kind, sc.Period)
		if err != nil {
			return nil, fmt.Errorf("spawner %d: %w", i, err)
		}
		s.spawners = append(s.spawners, sp)
	}
	s.editor = NewEditor(s, cfg.Width, cfg.Height)
	return s, nil
}

func (s *Session) SetTickLogger(l TickLogger) { s.tickLogger = l }

func (s *Session) Config() Config       { return s.cfg }
func (s *Session) Editor() *Editor      { return s.editor }
func (s *Session) Running() bool        { return s.running }
func (s *Session) CurrentTick() uint64  { return s.tick }
func (s *Session) Alpha() float64       { return s.clock.Alpha() }
func (s *Session) Width() int           { return s.grid.Width() }
func (s *Session) Height() int          { return s.grid.Height() }
func (s *Session) Spawners() []*Spawner { return s.spawners }

func (s *Session) TileAt(c Cell) (Tile, bool) { return s.grid.Get(c) }
func (s *Session) Tiles() []Tile              { return s.grid.Tiles() }
func (s *Session) Items() []Item              { return s.items.Items() }
func (s *Session) ItemAt(c Cell) (Item, bool) { return s.items.At(c) }

// Place puts a tile on an empty in-bounds cell. Applied immediately.
func (s *Session) Place(c Cell, kind TileKind, dir Direction) bool {
	if !s.grid.Place(c, kind, dir) {
		return false
	}
	s.pending = append(s.pending, Command{Op: OpPlace, Cell: c.ToArray(), Kind: kind.String(), Dir: dir.String()})
	return true
}

// Remove clears a cell; removing from an empty cell is a no-op.
func (s *Session) Remove(c Cell) bool {
	if !s.grid.Remove(c) {
		return false
	}
	s.pending = append(s.pending, Command{Op: OpRemove, Cell: c.ToArray()})
	return true
}

// ToggleRunning flips the running flag and clears every live item. Starting
// or stopping the factory resets the item population.
func (s *Session) ToggleRunning() bool {
	s.items.Clear()
	s.running = !s.running
	s.pending = append(s.pending, Command{Op: OpToggleRun})
	return s.running
}

// Rotate is the cyclic direction step used by the editor.
func Rotate(d Direction, by int) Direction { return d.Rotate(by) }

// Advance feeds real elapsed time into the clock and fires every tick that
// became due. It returns the number of ticks fired.
func (s *Session) Advance(dt time.Duration) int {
	n := s.clock.Advance(dt)
	for i := 0; i < n; i++ {
		s.step(false)
	}
	return n
}

func (s *Session) AdvanceSeconds(sec float64) int {
	return s.Advance(SecondsToDuration(sec))
}

// StepOnce fires exactly one tick without touching the clock. It is intended
// for replays and tests.
func (s *Session) StepOnce() (uint64, string) {
	return s.step(true)
}

func (s *Session) step(wantDigest bool) (uint64, string) {
	nowTick := s.tick

	var st TickStats
	if s.running {
		for _, sp := range s.spawners {
			switch _, res := sp.Tick(s.items); res {
			case SpawnCreated:
				st.Spawned++
			case SpawnStalled:
				st.Stalled++
			}
		}
		st.add(ResolveFlow(s.grid, s.items))
	}
	s.lastStats = st
	s.totalStats.add(st)

	cmds := s.pending
	s.pending = nil

	var digest string
	logIt := s.tickLogger != nil && (s.running || len(cmds) > 0)
	if wantDigest || logIt {
		digest = s.stateDigest(nowTick)
	}
	if logIt {
		_ = s.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Running:  s.running,
			Commands: cmds,
			Stats:    st,
			Items:    s.items.Len(),
			Digest:   digest,
		})
	}

	s.tick++
	return nowTick, digest
}

// Digest returns the state digest as of the last completed tick.
func (s *Session) Digest() string {
	if s.tick == 0 {
		return s.stateDigest(0)
	}
	return s.stateDigest(s.tick - 1)
}
