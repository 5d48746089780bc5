package reinforcement

import (
	"gridlearn/atomic_float"
	. "gridlearn/grid_world"

	"gonum.org/v1/gonum/floats"
)

// ValueTable holds a running estimate for every (row, col, action). Entries are atomic
// so that views may read the table while the learner writes it; there is only ever one
// writer.
type ValueTable struct {
	height, width int
	// row-major cells, NumActions entries per cell
	vals []atomic_float.AtomicFloat64
}

// NewValueTable returns a table with every entry set to 1/NumActions, i.e. uniform.
func NewValueTable(height, width int) *ValueTable {
	vt := &ValueTable{
		height: height,
		width:  width,
		vals:   make([]atomic_float.AtomicFloat64, height*width*NumActions),
	}
	for i := range vt.vals {
		vt.vals[i].AtomicSet(1.0 / NumActions)
	}
	return vt
}

func (vt *ValueTable) offset(c Coord, a Action) int {
	return (c.Row*vt.width+c.Col)*NumActions + int(a)
}

// Dims returns the table's grid height and width.
func (vt *ValueTable) Dims() (height, width int) {
	return vt.height, vt.width
}

// Value returns the estimate of taking a in c.
func (vt *ValueTable) Value(c Coord, a Action) float64 {
	return vt.vals[vt.offset(c, a)].AtomicRead()
}

// Set overwrites the estimate of taking a in c.
func (vt *ValueTable) Set(c Coord, a Action, val float64) {
	vt.vals[vt.offset(c, a)].AtomicSet(val)
}

// Update replaces the estimate of taking a in c with fn of its current value, and
// returns the stored value.
func (vt *ValueTable) Update(c Coord, a Action, fn func(old float64) float64) float64 {
	return vt.vals[vt.offset(c, a)].AtomicUpdate(fn)
}

// Row returns a copy of the NumActions estimates of c, indexed by Action.
func (vt *ValueTable) Row(c Coord) []float64 {
	row := make([]float64, NumActions)
	for _, a := range Actions {
		row[a] = vt.Value(c, a)
	}
	return row
}

// Max returns the best estimate available from c.
func (vt *ValueTable) Max(c Coord) float64 {
	return floats.Max(vt.Row(c))
}

// Snapshot copies the table into a [row][col][action] slice.
func (vt *ValueTable) Snapshot() [][][]float64 {
	snap := make([][][]float64, vt.height)
	for r := range snap {
		snap[r] = make([][]float64, vt.width)
		for c := range snap[r] {
			snap[r][c] = vt.Row(Coord{Row: r, Col: c})
		}
	}
	return snap
}
