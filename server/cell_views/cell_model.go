// cell_views contains views derived from the Board view-model.
package cell_views

import (
	. "gridlearn/grid_world"
	"gridlearn/reinforcement"

	"gonum.org/v1/gonum/floats"
)

// Cell is a grid cell reduced to the fields the views display. As a rule of thumb, Cell
// fields should be immediately usable as view parameters.
type Cell struct {
	Row, Col int
	Kind     CellKind
	// Max is the best action value of the cell.
	Max  float64
	Fill string
	// ArrowDX and ArrowDY are the policy arrow's components in [-1, 1], svg oriented
	// (positive DY points down). ArrowOpacity is the probability of moving at all.
	ArrowDX, ArrowDY float64
	ArrowOpacity     float64
	ShowArrow        bool
}

// Stats are the run counters displayed next to the grid.
type Stats struct {
	Steps        int64
	Wins         int64
	Losses       int64
	WallBumps    int64
	ForcedResets int64
	MeanReward   float64
}

// Board is the view-model of a snapshot: cells indexed [row][col], the agent and stats.
type Board struct {
	Cells [][]Cell
	Agent Coord
	Stats Stats
}

// Cell colors per kind.
const (
	PathFill = "rgb(128,128,128)"
	WallFill = "rgb(0,255,0)"
	WinFill  = "rgb(0,0,255)"
	LoseFill = "rgb(255,0,0)"
)

func getFill(kind CellKind) (fill string) {
	switch kind {
	case Path:
		fill = PathFill
	case Wall:
		fill = WallFill
	case Win:
		fill = WinFill
	case Lose:
		fill = LoseFill
	}
	return
}

// Convert transforms a snapshot into a Board. Only path cells get a policy arrow: its
// horizontal component is p(RIGHT)-p(LEFT), its vertical component p(DOWN)-p(UP), and
// its opacity 1-p(NOOP).
func Convert(snap *reinforcement.Snapshot) Board {
	board := Board{
		Cells: make([][]Cell, len(snap.Kinds)),
		Agent: snap.Position,
		Stats: Stats{
			Steps:        snap.Progress.Steps,
			Wins:         snap.Progress.Wins,
			Losses:       snap.Progress.Losses,
			WallBumps:    snap.Progress.WallBumps,
			ForcedResets: snap.Progress.ForcedResets,
		},
	}
	if snap.Progress.Steps > 0 {
		board.Stats.MeanReward = snap.Progress.TotalReward / float64(snap.Progress.Steps)
	}

	for r, row := range snap.Kinds {
		board.Cells[r] = make([]Cell, len(row))
		for c, kind := range row {
			loc := Coord{Row: r, Col: c}
			cell := Cell{
				Row:  r,
				Col:  c,
				Kind: kind,
				Max:  floats.Max(snap.Values[r][c]),
				Fill: getFill(kind),
			}
			if kind == Path {
				probs := snap.Distribution(loc)
				cell.ShowArrow = true
				cell.ArrowDX = probs[Right] - probs[Left]
				cell.ArrowDY = probs[Down] - probs[Up]
				cell.ArrowOpacity = 1 - probs[NoOp]
			}
			board.Cells[r][c] = cell
		}
	}
	return board
}
