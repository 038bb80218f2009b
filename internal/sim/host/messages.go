package host

import (
	"time"

	"gridfactory.dev/internal/protocol"
	"gridfactory.dev/internal/sim/factory"
)

func (h *Host) buildWelcome(sessionID string) protocol.WelcomeMsg {
	menu := make([]string, 0, len(factory.Menu))
	for _, k := range factory.Menu {
		menu = append(menu, k.String())
	}
	kinds := make([]string, 0, 2)
	for _, k := range factory.KnownItemKinds() {
		kinds = append(kinds, string(k))
	}
	inputs := make([]protocol.InputRef, 0, len(h.lv.Inputs))
	for _, in := range h.lv.Inputs {
		inputs = append(inputs, protocol.InputRef{Cell: in.Cell, Every: in.Every, Item: in.Item})
	}
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Level:           h.lv.Name,
		LevelDigest:     h.lv.Digest(),
		Grid:            h.lv.WorldSize,
		TickPeriodMs:    float64(h.lv.TickPeriod()) / float64(time.Millisecond),
		FrameRateHz:     h.lv.FrameRateHz,
		Menu:            menu,
		ItemKinds:       kinds,
		Inputs:          inputs,
	}
}

// FrameFromSnapshot converts a render snapshot into its wire form.
func FrameFromSnapshot(s factory.Snapshot) protocol.FrameMsg {
	tiles := make([]protocol.TileRef, 0, len(s.Tiles))
	for _, t := range s.Tiles {
		tiles = append(tiles, protocol.TileRef{Cell: t.Cell.ToArray(), Kind: t.Kind.String(), Dir: t.Dir.String()})
	}
	items := make([]protocol.ItemRef, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, protocol.ItemRef{
			ID:   uint64(it.ID),
			Kind: string(it.Kind),
			Cell: it.Cell.ToArray(),
			Prev: it.Prev.ToArray(),
		})
	}
	return protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            s.Tick,
		Running:         s.Running,
		Alpha:           s.Alpha,
		Grid:            [2]int{s.Width, s.Height},
		Tiles:           tiles,
		Items:           items,
		Editor: protocol.EditorRef{
			Mode:     s.Editor.Mode,
			Cursor:   s.Editor.Cursor.ToArray(),
			Held:     s.Editor.Held,
			Dir:      s.Editor.Dir,
			Selected: s.Editor.Selected,
			Menu:     s.Menu,
		},
		Stats: protocol.StatsRef{
			Spawned:   s.Stats.Spawned,
			Stalled:   s.Stats.Stalled,
			Moved:     s.Stats.Moved,
			Blocked:   s.Stats.Blocked,
			Converted: s.Stats.Converted,
		},
	}
}
