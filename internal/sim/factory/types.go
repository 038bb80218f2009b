package factory

import (
	"fmt"
	"strings"
)

// Cell is a grid coordinate: Col grows east, Row grows south.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (c Cell) Add(v Vec) Cell { return Cell{Col: c.Col + v.DX, Row: c.Row + v.DY} }

func (c Cell) ToArray() [2]int { return [2]int{c.Col, c.Row} }

func CellFromArray(a [2]int) Cell { return Cell{Col: a[0], Row: a[1]} }

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Col, c.Row) }

// Vec is a unit displacement.
type Vec struct {
	DX int
	DY int
}

type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

const numDirections = 4

var directionNames = [numDirections]string{"N", "E", "S", "W"}

var flowVectors = [numDirections]Vec{
	North: {DX: 0, DY: -1},
	East:  {DX: 1, DY: 0},
	South: {DX: 0, DY: 1},
	West:  {DX: -1, DY: 0},
}

// Rotate turns d by the given number of quarter turns; positive is clockwise.
func (d Direction) Rotate(by int) Direction {
	n := (int(d) + by) % numDirections
	if n < 0 {
		n += numDirections
	}
	return Direction(n)
}

func (d Direction) Flow() Vec {
	if d >= numDirections {
		return Vec{}
	}
	return flowVectors[d]
}

func (d Direction) Valid() bool { return d < numDirections }

func (d Direction) String() string {
	if d >= numDirections {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return North, fmt.Errorf("unknown direction %q", s)
}

// ItemKind names what an item is. The set is open; ore and bar are the built-in kinds.
type ItemKind string

const (
	ItemOre ItemKind = "ore"
	ItemBar ItemKind = "bar"
)

func KnownItemKinds() []ItemKind { return []ItemKind{ItemOre, ItemBar} }
