package grid_world

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
)

// ValuesFunc returns the per-action estimates of a cell, indexed by Action.
type ValuesFunc func(c Coord) []float64

// Console renders grids for a terminal, for visual reference during headless runs.
type Console struct {
	w  io.Writer
	au aurora.Aurora
}

// NewConsole returns a Console writing to w; colors may be disabled for plain logs.
func NewConsole(w io.Writer, colors bool) *Console {
	return &Console{w: w, au: aurora.NewAurora(colors)}
}

func (con *Console) paint(kind CellKind, s string) aurora.Value {
	switch kind {
	case Wall:
		return con.au.Green(s)
	case Win:
		return con.au.Blue(s)
	case Lose:
		return con.au.Red(s)
	}
	return con.au.White(s)
}

var kindRunes = map[CellKind]rune{
	Path: 'o',
	Wall: 'W',
	Win:  '+',
	Lose: 'x',
}

// ShowGrid prints the cell kinds, marking the agent with '@'.
func (con *Console) ShowGrid(gw *GridWorld) {
	height, width := gw.Dims()
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			loc := Coord{r, c}
			if loc == gw.Position() {
				fmt.Fprint(con.w, con.au.Bold(con.au.Yellow("@ ")))
				continue
			}
			kind := gw.Kind(loc)
			fmt.Fprint(con.w, con.paint(kind, fmt.Sprintf("%c ", kindRunes[kind])))
		}
		fmt.Fprintln(con.w)
	}
}

var policyRunes = [NumActions]rune{'^', '<', '>', 'v', '='}

// ShowPolicy prints the highest-valued action of every path cell as one of ^ < > v =.
// Non-path cells print as their kind.
func (con *Console) ShowPolicy(gw *GridWorld, values ValuesFunc) {
	gw.Visit(func(loc Coord, kind CellKind) {
		if kind == Path {
			best := argMax(values(loc))
			fmt.Fprint(con.w, con.au.Cyan(fmt.Sprintf("%c ", policyRunes[best])))
		} else {
			fmt.Fprint(con.w, con.paint(kind, fmt.Sprintf("%c ", kindRunes[kind])))
		}
		if _, width := gw.Dims(); loc.Col == width-1 {
			fmt.Fprintln(con.w)
		}
	})
}

// ShowMaxValues prints the max action value of every cell and their total.
func (con *Console) ShowMaxValues(gw *GridWorld, values ValuesFunc) {
	fmt.Fprintln(con.w, "Max vals:")
	total := 0.0
	gw.Visit(func(loc Coord, kind CellKind) {
		vals := values(loc)
		val := vals[argMax(vals)]
		total += val
		fmt.Fprint(con.w, con.paint(kind, formatValue(val)), " ")
		if _, width := gw.Dims(); loc.Col == width-1 {
			fmt.Fprintln(con.w)
		}
	})
	fmt.Fprintf(con.w, "Total: %.2f\n", total)
}

// formatValue pads values to a fixed width so that columns line up.
func formatValue(x float64) string {
	if x < 0 {
		return fmt.Sprintf("-%05.2f", -x)
	}
	return fmt.Sprintf(" %05.2f", x)
}

func argMax(vals []float64) (best int) {
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return
}
