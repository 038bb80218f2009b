package factory

type EditorMode uint8

const (
	ModeIdle EditorMode = iota
	ModePlacing
	ModeRemoving
)

func (m EditorMode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModePlacing:
		return "PLACING"
	case ModeRemoving:
		return "REMOVING"
	default:
		return "UNKNOWN"
	}
}

// EditTarget is what the editor mutates. *Session implements it.
type EditTarget interface {
	Place(c Cell, kind TileKind, dir Direction) bool
	Remove(c Cell) bool
	ToggleRunning() bool
}

// Editor is the modal cursor/menu state machine that turns discrete input
// gestures into grid mutations.
//
// In Placing and Removing the cursor moves; in Idle horizontal moves walk the
// tile menu instead and commit picks the selected kind. Rotation only applies
// while Placing.
type Editor struct {
	target EditTarget
	w, h   int

	mode     EditorMode
	cursor   Cell
	selected int
	held     TileKind
	dir      Direction
}

func NewEditor(target EditTarget, w, h int) *Editor {
	return &Editor{
		target: target,
		w:      w,
		h:      h,
		mode:   ModePlacing,
		held:   Menu[0],
		dir:    North,
	}
}

type EditorState struct {
	Mode     string `json:"mode"`
	Cursor   Cell   `json:"cursor"`
	Held     string `json:"held"`
	Dir      string `json:"dir"`
	Selected int    `json:"selected"`
}

func (e *Editor) State() EditorState {
	return EditorState{
		Mode:     e.mode.String(),
		Cursor:   e.cursor,
		Held:     e.held.String(),
		Dir:      e.dir.String(),
		Selected: e.selected,
	}
}

func (e *Editor) Mode() EditorMode     { return e.mode }
func (e *Editor) Cursor() Cell         { return e.cursor }
func (e *Editor) Held() TileKind       { return e.held }
func (e *Editor) Direction() Direction { return e.dir }
func (e *Editor) Selected() int        { return e.selected }

// Move handles a directional gesture. It reports whether any editor state
// changed.
func (e *Editor) Move(dx, dy int) bool {
	if e.mode == ModeIdle {
		if dx == 0 {
			return false
		}
		next := clampInt(e.selected+sign(dx), 0, len(Menu)-1)
		changed := next != e.selected
		e.selected = next
		return changed
	}
	next := Cell{
		Col: clampInt(e.cursor.Col+dx, 0, e.w-1),
		Row: clampInt(e.cursor.Row+dy, 0, e.h-1),
	}
	changed := next != e.cursor
	e.cursor = next
	return changed
}

// SetCursor jumps the cursor, clamped to the grid. Allowed in any mode.
func (e *Editor) SetCursor(c Cell) {
	e.cursor = Cell{Col: clampInt(c.Col, 0, e.w-1), Row: clampInt(c.Row, 0, e.h-1)}
}

// Select makes kind both the menu selection and the held tile.
func (e *Editor) Select(kind TileKind) bool {
	for i, k := range Menu {
		if k == kind {
			e.selected = i
			e.held = k
			return true
		}
	}
	return false
}

func (e *Editor) Rotate(by int) bool {
	if e.mode != ModePlacing || by == 0 {
		return false
	}
	e.dir = Rotate(e.dir, by)
	return true
}

// Commit is the primary action: place the held tile at the cursor, clear the
// cursor cell, or (in Idle) take the selected menu entry and start placing.
func (e *Editor) Commit() bool {
	switch e.mode {
	case ModePlacing:
		return e.target.Place(e.cursor, e.held, e.dir)
	case ModeRemoving:
		return e.target.Remove(e.cursor)
	default:
		e.held = Menu[e.selected]
		e.mode = ModePlacing
		return true
	}
}

func (e *Editor) Cancel() bool {
	if e.mode == ModeIdle {
		return false
	}
	e.mode = ModeIdle
	return true
}

func (e *Editor) EnterRemoving() { e.mode = ModeRemoving }
func (e *Editor) EnterPlacing()  { e.mode = ModePlacing }

func (e *Editor) ToggleRun() bool { return e.target.ToggleRunning() }

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
