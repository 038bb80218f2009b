package factory

// Snapshot is the render query result for one frame. Everything in it is a
// copy; holding it does not pin session state.
type Snapshot struct {
	Tick    uint64      `json:"tick"`
	Running bool        `json:"running"`
	Alpha   float64     `json:"alpha"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Tiles   []Tile      `json:"tiles"`
	Items   []Item      `json:"items"`
	Editor  EditorState `json:"editor"`
	Menu    []string    `json:"menu"`
	Stats   TickStats   `json:"stats"`
}

func (s *Session) Snapshot() Snapshot {
	menu := make([]string, 0, len(Menu))
	for _, k := range Menu {
		menu = append(menu, k.String())
	}
	return Snapshot{
		Tick:    s.tick,
		Running: s.running,
		Alpha:   s.clock.Alpha(),
		Width:   s.grid.Width(),
		Height:  s.grid.Height(),
		Tiles:   s.grid.Tiles(),
		Items:   s.items.Items(),
		Editor:  s.editor.State(),
		Menu:    menu,
		Stats:   s.lastStats,
	}
}

type SpawnerMetrics struct {
	Cell    Cell     `json:"cell"`
	Kind    ItemKind `json:"kind"`
	Period  int      `json:"period"`
	Counter int      `json:"counter"`
	Spawned uint64   `json:"spawned"`
	Stalled uint64   `json:"stalled"`
}

// Metrics is the cumulative session view served by the admin endpoints.
type Metrics struct {
	Tick     uint64           `json:"tick"`
	Running  bool             `json:"running"`
	Tiles    int              `json:"tiles"`
	Items    int              `json:"items"`
	Last     TickStats        `json:"last"`
	Totals   TickStats        `json:"totals"`
	Spawners []SpawnerMetrics `json:"spawners"`
}

func (s *Session) Metrics() Metrics {
	m := Metrics{
		Tick:    s.tick,
		Running: s.running,
		Tiles:   s.grid.Count(),
		Items:   s.items.Len(),
		Last:    s.lastStats,
		Totals:  s.totalStats,
	}
	for _, sp := range s.spawners {
		m.Spawners = append(m.Spawners, SpawnerMetrics{
			Cell:    sp.Cell,
			Kind:    sp.Kind,
			Period:  sp.Period,
			Counter: sp.counter,
			Spawned: sp.spawned,
			Stalled: sp.stalled,
		})
	}
	return m
}

// Render draws the grid as text, one line per row. Tiles print as their
// direction letter (lower case for smelters); an item overrides its tile with
// 'o' for ore, 'b' for bar and '?' otherwise.
func (s *Session) Render() string {
	w, h := s.grid.Width(), s.grid.Height()
	buf := make([]byte, 0, (w+1)*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c := Cell{Col: col, Row: row}
			if it, ok := s.items.At(c); ok {
				buf = append(buf, itemGlyph(it.Kind))
				continue
			}
			t, ok := s.grid.Get(c)
			if !ok {
				buf = append(buf, '.')
				continue
			}
			g := t.Dir.String()[0]
			if t.Kind == TileSmelter {
				g += 'a' - 'A'
			}
			buf = append(buf, g)
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

func itemGlyph(k ItemKind) byte {
	switch k {
	case ItemOre:
		return 'o'
	case ItemBar:
		return 'b'
	default:
		return '?'
	}
}
