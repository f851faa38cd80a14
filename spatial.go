package main

// SpatialCellSize is about twice the widest non-wall entity (a default brick)
const SpatialCellSize = 64.0

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind EntityKind
	Idx  int // index into the slice the grid was filled from
}

// SpatialGrid is a uniform grid for broad-phase contact queries. Entities
// outside the grid are clamped into the border cells, so nothing is lost.
type SpatialGrid struct {
	cols, rows int
	cells      [][]EntityRef
}

// NewSpatialGrid creates a grid covering a w x h area
func NewSpatialGrid(w, h float64) *SpatialGrid {
	cols := int(w/SpatialCellSize) + 1
	rows := int(h/SpatialCellSize) + 1
	return &SpatialGrid{
		cols:  cols,
		rows:  rows,
		cells: make([][]EntityRef, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) cellRange(r Rect) (minCX, minCY, maxCX, maxCY int) {
	min, max := r.Min(), r.Max()
	clamp := func(v, n int) int {
		if v < 0 {
			return 0
		}
		if v >= n {
			return n - 1
		}
		return v
	}
	minCX = clamp(int(min.X/SpatialCellSize), g.cols)
	maxCX = clamp(int(max.X/SpatialCellSize), g.cols)
	minCY = clamp(int(min.Y/SpatialCellSize), g.rows)
	maxCY = clamp(int(max.Y/SpatialCellSize), g.rows)
	return
}

// Insert adds ref to every cell the box overlaps
func (g *SpatialGrid) Insert(r Rect, ref EntityRef) {
	minCX, minCY, maxCX, maxCY := g.cellRange(r)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*g.cols + cx
			g.cells[idx] = append(g.cells[idx], ref)
		}
	}
}

// QueryBuf appends the refs of every cell the box overlaps to buf. A ref
// spanning several cells appears once per cell.
func (g *SpatialGrid) QueryBuf(r Rect, buf []EntityRef) []EntityRef {
	minCX, minCY, maxCX, maxCY := g.cellRange(r)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}
