package factory

import "fmt"

type SpawnResult uint8

const (
	SpawnIdle SpawnResult = iota
	SpawnCreated
	SpawnStalled
)

// Spawner is a fixed-period source. Every Period ticks it tries to put one
// item of Kind on Cell; a blocked attempt is dropped and the countdown still
// restarts.
type Spawner struct {
	Cell   Cell
	Kind   ItemKind
	Period int

	counter int

	spawned uint64
	stalled uint64
}

func NewSpawner(cell Cell, kind ItemKind, period int) (*Spawner, error) {
	if period < 1 {
		return nil, fmt.Errorf("%w: period %d < 1", ErrBadSpawner, period)
	}
	if kind == "" {
		return nil, fmt.Errorf("%w: empty item kind", ErrBadSpawner)
	}
	return &Spawner{Cell: cell, Kind: kind, Period: period}, nil
}

func (s *Spawner) Tick(r *Registry) (ItemID, SpawnResult) {
	s.counter++
	if s.counter < s.Period {
		return 0, SpawnIdle
	}
	s.counter = 0
	id, ok := r.Spawn(s.Kind, s.Cell)
	if !ok {
		s.stalled++
		return 0, SpawnStalled
	}
	s.spawned++
	return id, SpawnCreated
}

func (s *Spawner) Counter() int    { return s.counter }
func (s *Spawner) Spawned() uint64 { return s.spawned }
func (s *Spawner) Stalled() uint64 { return s.stalled }
