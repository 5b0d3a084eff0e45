// Package systems provides ECS systems for the danger engine.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
)

// CellKey identifies one cell of the danger grid.
type CellKey struct {
	X, Y int32
}

// CellOf returns the cell containing (x, y). Negative coordinates floor
// toward negative infinity, so -1 lies in cell -1, not 0.
func CellOf(x, y, cellSize float32) CellKey {
	return CellKey{
		X: int32(math.Floor(float64(x) / float64(cellSize))),
		Y: int32(math.Floor(float64(y) / float64(cellSize))),
	}
}

// PendingRecord is a dormant danger parked in the grid.
type PendingRecord struct {
	Entity ecs.Entity
	X, Y   float32 // last known position
	Type   uint8   // archetype index
}

// DangerGrid is an unbounded uniform hash of pending dangers. Each entity
// has at most one record.
type DangerGrid struct {
	cellSize float32
	cells    map[CellKey][]PendingRecord
	index    map[ecs.Entity]CellKey
}

// NewDangerGrid creates an empty grid.
func NewDangerGrid(cellSize float32) *DangerGrid {
	return &DangerGrid{
		cellSize: cellSize,
		cells:    make(map[CellKey][]PendingRecord),
		index:    make(map[ecs.Entity]CellKey),
	}
}

// CellSize returns the grid's cell edge length.
func (g *DangerGrid) CellSize() float32 { return g.cellSize }

// Insert parks a danger at (x, y). Re-inserting an entity moves its record.
func (g *DangerGrid) Insert(e ecs.Entity, x, y float32, dangerType uint8) {
	if _, ok := g.index[e]; ok {
		g.Remove(e)
	}
	key := CellOf(x, y, g.cellSize)
	g.cells[key] = append(g.cells[key], PendingRecord{Entity: e, X: x, Y: y, Type: dangerType})
	g.index[e] = key
}

// Remove deletes an entity's record. Returns false if it had none.
func (g *DangerGrid) Remove(e ecs.Entity) bool {
	key, ok := g.index[e]
	if !ok {
		return false
	}
	delete(g.index, e)

	recs := g.cells[key]
	for i := range recs {
		if recs[i].Entity == e {
			last := len(recs) - 1
			recs[i] = recs[last]
			recs = recs[:last]
			break
		}
	}
	if len(recs) == 0 {
		delete(g.cells, key)
	} else {
		g.cells[key] = recs
	}
	return true
}

// QueryAdjacentInto appends every record in the 3x3 block of cells around
// (x, y) to dst and returns it. Reuse dst across calls to avoid allocations.
func (g *DangerGrid) QueryAdjacentInto(dst []PendingRecord, x, y float32) []PendingRecord {
	center := CellOf(x, y, g.cellSize)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			dst = append(dst, g.cells[CellKey{X: center.X + dx, Y: center.Y + dy}]...)
		}
	}
	return dst
}

// CellRecordsInto appends the records of a single cell to dst and returns it.
func (g *DangerGrid) CellRecordsInto(dst []PendingRecord, key CellKey) []PendingRecord {
	return append(dst, g.cells[key]...)
}

// QueryAdjacent returns every record in the 3x3 block of cells around (x, y).
func (g *DangerGrid) QueryAdjacent(x, y float32) []PendingRecord {
	return g.QueryAdjacentInto(nil, x, y)
}

// Contains reports whether the entity has a record.
func (g *DangerGrid) Contains(e ecs.Entity) bool {
	_, ok := g.index[e]
	return ok
}

// Record returns the entity's record, if any.
func (g *DangerGrid) Record(e ecs.Entity) (PendingRecord, bool) {
	key, ok := g.index[e]
	if !ok {
		return PendingRecord{}, false
	}
	for _, r := range g.cells[key] {
		if r.Entity == e {
			return r, true
		}
	}
	return PendingRecord{}, false
}

// Len returns the number of records.
func (g *DangerGrid) Len() int { return len(g.index) }

// Clear removes all records. Called when the level is torn down.
func (g *DangerGrid) Clear() {
	clear(g.cells)
	clear(g.index)
}

// Each calls fn for every record, in no particular order.
func (g *DangerGrid) Each(fn func(PendingRecord)) {
	for _, recs := range g.cells {
		for _, r := range recs {
			fn(r)
		}
	}
}
