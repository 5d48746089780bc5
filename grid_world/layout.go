package grid_world

import (
	"fmt"
	"math/rand"
)

// Layout is a set of wall, win and lose coordinates for a grid.
type Layout struct {
	Walls, Wins, Loses []Coord
}

// GenerateLayout scatters int(wallFrac*h*w) walls, numWins win cells and numLose lose cells
// over an h x w grid. Cells are drawn without replacement and reserved cells (the start,
// and any explicitly placed cells) are never drawn, so the result can be combined with them.
func GenerateLayout(
	rng *rand.Rand,
	height, width int,
	wallFrac float64,
	numWins, numLose int,
	reserved ...Coord,
) (layout Layout, err error) {
	n := height * width
	numWalls := int(wallFrac * float64(n))
	if numWalls < 0 || numWins < 0 || numLose < 0 {
		err = fmt.Errorf("%w: negative cell counts (walls=%d wins=%d loses=%d)", ErrConfig, numWalls, numWins, numLose)
		return
	}

	taken := make(map[Coord]bool, len(reserved))
	for _, loc := range reserved {
		taken[loc] = true
	}
	candidates := make([]Coord, 0, n)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if loc := (Coord{r, c}); !taken[loc] {
				candidates = append(candidates, loc)
			}
		}
	}
	if numWalls+numWins+numLose > len(candidates) {
		err = fmt.Errorf("%w: %d walls, %d wins and %d loses do not fit the %d free cells of a %dx%d grid",
			ErrConfig, numWalls, numWins, numLose, len(candidates), height, width)
		return
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	w, l := numWalls, numWalls+numWins
	layout.Walls = candidates[:w:w]
	layout.Wins = candidates[w:l:l]
	layout.Loses = candidates[l : l+numLose : l+numLose]
	return
}
