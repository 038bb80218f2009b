package factory

// TickStats counts what happened during one logical tick.
type TickStats struct {
	Spawned   int `json:"spawned"`
	Stalled   int `json:"stalled"`
	Moved     int `json:"moved"`
	Blocked   int `json:"blocked"`
	Converted int `json:"converted"`
}

func (s *TickStats) add(o TickStats) {
	s.Spawned += o.Spawned
	s.Stalled += o.Stalled
	s.Moved += o.Moved
	s.Blocked += o.Blocked
	s.Converted += o.Converted
}

// ResolveFlow runs one flow pass over all live items.
//
// Every item first records Prev. Items are then visited newest first (reverse
// insertion order). An item on a flow-capable tile targets its cell plus the
// tile's flow vector, clamped to the grid; the move is rejected if another item
// currently holds the target, where "currently" includes moves already
// committed earlier in this pass. Whether or not it moved, the item's kind is
// then converted by the tile it started the tick on.
func ResolveFlow(g *Grid, r *Registry) TickStats {
	var st TickStats
	for el := r.items.Front(); el != nil; el = el.Next() {
		el.Value.Prev = el.Value.Cell
	}

	for el := r.items.Back(); el != nil; el = el.Prev() {
		it := el.Value
		tile, ok := g.Get(it.Cell)
		if !ok || !tile.FlowCapable() {
			continue
		}

		to := g.Clamp(it.Cell.Add(tile.FlowVector()))
		switch {
		case to == it.Cell:
			// Stalled at the boundary.
		case r.occupiedByOther(to, it.ID):
			st.Blocked++
		default:
			r.move(it, to)
			st.Moved++
		}

		if k := tile.Convert(it.Kind); k != it.Kind {
			it.Kind = k
			st.Converted++
		}
	}
	return st
}
