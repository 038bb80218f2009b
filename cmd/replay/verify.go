package main

import (
	"fmt"

	"gridfactory.dev/internal/sim/factory"
)

// verify drives sess through the recorded entries and compares the state
// digest after every logged tick. Unlogged ticks in between were idle and are
// stepped without commands.
func verify(sess *factory.Session, entries []factory.TickLogEntry, fromTick, toTick uint64) (uint64, error) {
	var checked uint64
	for _, entry := range entries {
		if toTick != 0 && entry.Tick > toTick {
			break
		}
		if entry.Tick < sess.CurrentTick() {
			return checked, fmt.Errorf("tick %d: out of order (session at %d)", entry.Tick, sess.CurrentTick())
		}
		for sess.CurrentTick() < entry.Tick {
			sess.StepOnce()
		}
		for i, cmd := range entry.Commands {
			ok, err := sess.Apply(cmd)
			if err != nil {
				return checked, fmt.Errorf("tick %d: command %d: %w", entry.Tick, i, err)
			}
			if !ok {
				return checked, fmt.Errorf("tick %d: command %d (%s %v) was rejected on replay", entry.Tick, i, cmd.Op, cmd.Cell)
			}
		}
		tick, digest := sess.StepOnce()
		if entry.Tick < fromTick {
			continue
		}
		if sess.Running() != entry.Running {
			return checked, fmt.Errorf("tick %d: running mismatch: got=%v want=%v", tick, sess.Running(), entry.Running)
		}
		if digest != entry.Digest {
			return checked, fmt.Errorf("tick %d: digest mismatch: got=%s want=%s", tick, digest, entry.Digest)
		}
		checked++
	}
	return checked, nil
}
