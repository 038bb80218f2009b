package factory

import "fmt"

type CommandOp string

const (
	OpPlace     CommandOp = "PLACE"
	OpRemove    CommandOp = "REMOVE"
	OpToggleRun CommandOp = "TOGGLE_RUN"
)

// Command is a recorded state mutation. Editor gestures that only move the
// cursor or change the selection never produce one.
type Command struct {
	Op   CommandOp `json:"op"`
	Cell [2]int    `json:"cell"`
	Kind string    `json:"kind,omitempty"`
	Dir  string    `json:"dir,omitempty"`
}

// Apply re-executes a recorded command. The returned bool mirrors the
// recorded call's result.
func (s *Session) Apply(cmd Command) (bool, error) {
	switch cmd.Op {
	case OpPlace:
		kind, err := ParseTileKind(cmd.Kind)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadCommand, err)
		}
		dir, err := ParseDirection(cmd.Dir)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadCommand, err)
		}
		return s.Place(CellFromArray(cmd.Cell), kind, dir), nil
	case OpRemove:
		return s.Remove(CellFromArray(cmd.Cell)), nil
	case OpToggleRun:
		s.ToggleRunning()
		return true, nil
	default:
		return false, fmt.Errorf("%w: op %q", ErrBadCommand, cmd.Op)
	}
}
