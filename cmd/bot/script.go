package main

import (
	"fmt"

	"gridfactory.dev/internal/protocol"
)

// buildScript lays a line of east-facing tiles starting at the first input,
// ending in a smelter, then starts the factory. The line is cut at the grid
// edge.
func buildScript(w protocol.WelcomeMsg, length int) []protocol.CmdMsg {
	origin := [2]int{0, 0}
	if len(w.Inputs) > 0 {
		origin = w.Inputs[0].Cell
	}
	if room := w.Grid[0] - origin[0]; length > room {
		length = room
	}

	var out []protocol.CmdMsg
	for i := 0; i < length; i++ {
		kind := "Conveyor"
		if i == length-1 && length > 1 {
			kind = "Smelter"
		}
		cell := [2]int{origin[0] + i, origin[1]}
		out = append(out, protocol.CmdMsg{
			Type:            protocol.TypeCmd,
			ProtocolVersion: protocol.Version,
			ID:              fmt.Sprintf("place_%d", i),
			Op:              protocol.OpPlace,
			Cell:            &cell,
			Kind:            kind,
			Dir:             "E",
		})
	}
	out = append(out, protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		ID:              "run",
		Op:              protocol.OpToggleRun,
	})
	return out
}

func countKind(items []protocol.ItemRef, kind string) int {
	n := 0
	for _, it := range items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}
