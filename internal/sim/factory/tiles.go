package factory

import (
	"fmt"
	"strings"
)

type TileKind uint8

const (
	TileConveyor TileKind = iota + 1
	TileSmelter
)

// Behavior is the capability class a tile kind belongs to. New tile kinds
// extend tileDefs; flow and conversion dispatch on the behavior tag.
type Behavior uint8

const (
	BehaviorNone Behavior = iota
	BehaviorPassThrough
	BehaviorTransform
)

type tileDef struct {
	Name     string
	Behavior Behavior
	// Recipe is only read for BehaviorTransform.
	Recipe map[ItemKind]ItemKind
}

var tileDefs = map[TileKind]tileDef{
	TileConveyor: {Name: "Conveyor", Behavior: BehaviorPassThrough},
	TileSmelter:  {Name: "Smelter", Behavior: BehaviorTransform, Recipe: map[ItemKind]ItemKind{ItemOre: ItemBar}},
}

// Menu is the editor's tile palette, in display order.
var Menu = []TileKind{TileConveyor, TileSmelter}

func (k TileKind) Behavior() Behavior { return tileDefs[k].Behavior }

func (k TileKind) Valid() bool {
	_, ok := tileDefs[k]
	return ok
}

func (k TileKind) String() string {
	if d, ok := tileDefs[k]; ok {
		return d.Name
	}
	return fmt.Sprintf("TileKind(%d)", uint8(k))
}

func ParseTileKind(s string) (TileKind, error) {
	want := strings.TrimSpace(s)
	for _, k := range Menu {
		if strings.EqualFold(k.String(), want) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown tile kind %q", s)
}

// Tile is immutable once placed; identity is (Kind, Cell, Dir).
type Tile struct {
	Kind TileKind  `json:"kind"`
	Cell Cell      `json:"cell"`
	Dir  Direction `json:"dir"`
}

func (t Tile) FlowCapable() bool {
	switch t.Kind.Behavior() {
	case BehaviorPassThrough, BehaviorTransform:
		return true
	default:
		return false
	}
}

func (t Tile) FlowVector() Vec {
	switch t.Kind.Behavior() {
	case BehaviorPassThrough, BehaviorTransform:
		return t.Dir.Flow()
	default:
		return Vec{}
	}
}

// Convert maps the kind of an item departing this tile. Transform recipes are
// one-way: kinds without a recipe entry pass through unchanged.
func (t Tile) Convert(k ItemKind) ItemKind {
	switch t.Kind.Behavior() {
	case BehaviorTransform:
		if out, ok := tileDefs[t.Kind].Recipe[k]; ok {
			return out
		}
		return k
	default:
		return k
	}
}
