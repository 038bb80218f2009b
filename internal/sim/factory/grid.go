package factory

// Grid is a fixed W x H array of optional tiles, stored row-major.
type Grid struct {
	w, h  int
	tiles []Tile
	set   []bool
}

func NewGrid(w, h int) (*Grid, error) {
	if w < 1 || h < 1 {
		return nil, ErrBadDimensions
	}
	return &Grid{
		w:     w,
		h:     h,
		tiles: make([]Tile, w*h),
		set:   make([]bool, w*h),
	}, nil
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

func (g *Grid) InBounds(c Cell) bool {
	return c.Col >= 0 && c.Col < g.w && c.Row >= 0 && c.Row < g.h
}

func (g *Grid) index(c Cell) int { return c.Row*g.w + c.Col }

func (g *Grid) Get(c Cell) (Tile, bool) {
	if !g.InBounds(c) {
		return Tile{}, false
	}
	i := g.index(c)
	if !g.set[i] {
		return Tile{}, false
	}
	return g.tiles[i], true
}

// Place puts a new tile at c. It fails when c is out of bounds, already
// occupied, or kind/dir are not known.
func (g *Grid) Place(c Cell, kind TileKind, dir Direction) bool {
	if !g.InBounds(c) || !kind.Valid() || !dir.Valid() {
		return false
	}
	i := g.index(c)
	if g.set[i] {
		return false
	}
	g.tiles[i] = Tile{Kind: kind, Cell: c, Dir: dir}
	g.set[i] = true
	return true
}

// Remove clears c and reports whether a tile was there.
func (g *Grid) Remove(c Cell) bool {
	if !g.InBounds(c) {
		return false
	}
	i := g.index(c)
	if !g.set[i] {
		return false
	}
	g.tiles[i] = Tile{}
	g.set[i] = false
	return true
}

// Clamp pins each axis of c into the grid. Used for movement targets only.
func (g *Grid) Clamp(c Cell) Cell {
	return Cell{Col: clampInt(c.Col, 0, g.w-1), Row: clampInt(c.Row, 0, g.h-1)}
}

// Tiles returns all placed tiles in row-major order.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, 0, 16)
	for i, ok := range g.set {
		if ok {
			out = append(out, g.tiles[i])
		}
	}
	return out
}

func (g *Grid) Count() int {
	n := 0
	for _, ok := range g.set {
		if ok {
			n++
		}
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
