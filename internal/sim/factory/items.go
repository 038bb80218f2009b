package factory

import (
	"github.com/elliotchance/orderedmap/v2"
)

type ItemID uint64

// Item is a live item. Cell is authoritative; Prev is the cell held before the
// last tick and is only read by presentation.
type Item struct {
	ID   ItemID   `json:"id"`
	Kind ItemKind `json:"kind"`
	Cell Cell     `json:"cell"`
	Prev Cell     `json:"prev"`
}

// Registry holds live items in insertion order plus a cell occupancy index.
// At tick boundaries no two items share a cell, so the index is one-to-one.
type Registry struct {
	items  *orderedmap.OrderedMap[ItemID, *Item]
	at     map[Cell]ItemID
	nextID ItemID
}

func NewRegistry() *Registry {
	return &Registry{
		items: orderedmap.NewOrderedMap[ItemID, *Item](),
		at:    map[Cell]ItemID{},
	}
}

func (r *Registry) Len() int { return r.items.Len() }

func (r *Registry) Occupied(c Cell) bool {
	_, ok := r.at[c]
	return ok
}

// occupiedByOther reports whether an item other than self sits on c.
func (r *Registry) occupiedByOther(c Cell, self ItemID) bool {
	id, ok := r.at[c]
	return ok && id != self
}

// Spawn creates an item at c unless another item already occupies it.
func (r *Registry) Spawn(kind ItemKind, c Cell) (ItemID, bool) {
	if r.Occupied(c) {
		return 0, false
	}
	r.nextID++
	it := &Item{ID: r.nextID, Kind: kind, Cell: c, Prev: c}
	r.items.Set(it.ID, it)
	r.at[c] = it.ID
	return it.ID, true
}

// Despawn removes an item. Reserved for absorbing tiles; no built-in tile uses it yet.
func (r *Registry) Despawn(id ItemID) bool {
	it, ok := r.items.Get(id)
	if !ok {
		return false
	}
	if r.at[it.Cell] == id {
		delete(r.at, it.Cell)
	}
	return r.items.Delete(id)
}

// Clear drops every item. Id allocation continues from where it was.
func (r *Registry) Clear() {
	r.items = orderedmap.NewOrderedMap[ItemID, *Item]()
	r.at = map[Cell]ItemID{}
}

func (r *Registry) Get(id ItemID) (Item, bool) {
	it, ok := r.items.Get(id)
	if !ok {
		return Item{}, false
	}
	return *it, true
}

func (r *Registry) At(c Cell) (Item, bool) {
	id, ok := r.at[c]
	if !ok {
		return Item{}, false
	}
	return r.Get(id)
}

// Items returns copies of all live items in insertion order.
func (r *Registry) Items() []Item {
	out := make([]Item, 0, r.items.Len())
	for el := r.items.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value)
	}
	return out
}

func (r *Registry) move(it *Item, to Cell) {
	if r.at[it.Cell] == it.ID {
		delete(r.at, it.Cell)
	}
	it.Cell = to
	r.at[to] = it.ID
}
