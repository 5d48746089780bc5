package grid_world

import (
	"errors"
	"fmt"
	"math/rand"
)

// Coord addresses a cell by row and column; (0,0) is the top left cell.
type Coord struct {
	Row, Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Add returns c offset by the passed row/col deltas.
func (c Coord) Add(dr, dc int) Coord {
	return Coord{Row: c.Row + dr, Col: c.Col + dc}
}

// Action is one of the five primitives available to the agent in every cell.
// The order matters: it is the last index of the value table.
type Action int

const (
	Up Action = iota
	Left
	Right
	Down
	NoOp

	NumActions = 5
)

// Actions lists every action in index order, e.g. for ranging over.
var Actions = [NumActions]Action{Up, Left, Right, Down, NoOp}

var actionLabels = [NumActions]string{"UP", "LEFT", "RIGHT", "DOWN", "NOOP"}

func (a Action) String() string {
	if a < 0 || a >= NumActions {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionLabels[a]
}

// Offset returns the row and column deltas of the action.
func (a Action) Offset() (dr, dc int) {
	switch a {
	case Up:
		dr = -1
	case Left:
		dc = -1
	case Right:
		dc = 1
	case Down:
		dr = 1
	}
	return
}

// Opposite returns the action undoing a, NoOp for NoOp.
func (a Action) Opposite() Action {
	switch a {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return NoOp
}

// CellKind is the categorical reward of a cell.
type CellKind int

const (
	// Path cells hold the default reward and are the only spawn locations.
	Path CellKind = iota
	Wall
	Win
	Lose
)

func (k CellKind) String() string {
	switch k {
	case Path:
		return "path"
	case Wall:
		return "wall"
	case Win:
		return "win"
	case Lose:
		return "lose"
	}
	return fmt.Sprintf("CellKind(%d)", int(k))
}

// MarshalText encodes the kind by name, e.g. for json snapshots.
func (k CellKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Rewards are the four scalar rewards of the grid. They must be pairwise distinct,
// since cells are told apart by reward.
type Rewards struct {
	Default float64 `yaml:"default"`
	Wall    float64 `yaml:"wall"`
	Win     float64 `yaml:"win"`
	Lose    float64 `yaml:"lose"`
}

// Of returns the reward of a cell kind.
func (r Rewards) Of(kind CellKind) float64 {
	switch kind {
	case Wall:
		return r.Wall
	case Win:
		return r.Win
	case Lose:
		return r.Lose
	}
	return r.Default
}

// Config holds every construction parameter of a GridWorld.
type Config struct {
	Height, Width int
	Rewards       Rewards
	Walls         []Coord
	Wins          []Coord
	Loses         []Coord
	Start         Coord
	// RandomRespawn resets to a uniformly sampled spawn cell instead of Start.
	RandomRespawn bool
	// AutoReset resets immediately whenever a terminal cell is reached.
	AutoReset bool
}

// Outcome is the observation of a single primitive. It is captured before any
// auto-reset, so Cell is the cell the agent occupied when the primitive completed
// (the terminal cell itself when Terminal is true).
type Outcome struct {
	Reward   float64
	Cell     Coord
	Terminal bool
}

// ErrConfig is wrapped by every construction failure.
var ErrConfig = errors.New("invalid grid configuration")

// GridWorld is the MDP: an immutable reward grid, the agent's position, and the
// terminal/respawn logic. It is not safe for concurrent use.
type GridWorld struct {
	height, width int
	rewards       Rewards
	// row-major cell kinds, fixed after construction
	kinds         []CellKind
	spawns        []Coord
	start         Coord
	randomRespawn bool
	autoReset     bool
	rng           *rand.Rand

	pos      Coord
	terminal bool
}

// New validates cfg, builds the grid and places the agent per Reset. The passed rng is
// consulted only for random respawns; it may be nil when RandomRespawn is false.
func New(cfg Config, rng *rand.Rand) (*GridWorld, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RandomRespawn && rng == nil {
		return nil, fmt.Errorf("%w: random respawn requires a random source", ErrConfig)
	}

	gw := &GridWorld{
		height:        cfg.Height,
		width:         cfg.Width,
		rewards:       cfg.Rewards,
		kinds:         make([]CellKind, cfg.Height*cfg.Width),
		start:         cfg.Start,
		randomRespawn: cfg.RandomRespawn,
		autoReset:     cfg.AutoReset,
		rng:           rng,
	}
	for kind, locs := range map[CellKind][]Coord{Wall: cfg.Walls, Win: cfg.Wins, Lose: cfg.Loses} {
		for _, loc := range locs {
			gw.kinds[gw.index(loc)] = kind
		}
	}
	for r := 0; r < gw.height; r++ {
		for c := 0; c < gw.width; c++ {
			if loc := (Coord{r, c}); gw.Kind(loc) == Path {
				gw.spawns = append(gw.spawns, loc)
			}
		}
	}

	gw.Reset()
	return gw, nil
}

// Validate checks the configuration without building anything: dimensions, bounds,
// overlapping coordinates, the start cell, distinct rewards and a non-empty spawn set.
// Empty coordinate lists are allowed.
func (cfg *Config) Validate() error {
	if cfg.Height <= 0 || cfg.Width <= 0 {
		return fmt.Errorf("%w: grid dimensions %dx%d must be positive", ErrConfig, cfg.Height, cfg.Width)
	}

	rw := cfg.Rewards
	vals := []float64{rw.Default, rw.Wall, rw.Win, rw.Lose}
	for i := range vals {
		for j := i + 1; j < len(vals); j++ {
			if vals[i] == vals[j] {
				return fmt.Errorf("%w: rewards must be pairwise distinct, got %+v", ErrConfig, rw)
			}
		}
	}

	inBounds := func(c Coord) bool {
		return c.Row >= 0 && c.Row < cfg.Height && c.Col >= 0 && c.Col < cfg.Width
	}

	seen := map[Coord]string{}
	lists := []struct {
		name string
		locs []Coord
	}{
		{"walls", cfg.Walls},
		{"wins", cfg.Wins},
		{"loses", cfg.Loses},
	}
	for _, list := range lists {
		for _, loc := range list.locs {
			if !inBounds(loc) {
				return fmt.Errorf("%w: %s coordinate %v out of bounds for %dx%d grid",
					ErrConfig, list.name, loc, cfg.Height, cfg.Width)
			}
			if prev, dup := seen[loc]; dup {
				return fmt.Errorf("%w: %s coordinate %v already listed in %s", ErrConfig, list.name, loc, prev)
			}
			seen[loc] = list.name
		}
	}

	if !inBounds(cfg.Start) {
		return fmt.Errorf("%w: start %v out of bounds for %dx%d grid", ErrConfig, cfg.Start, cfg.Height, cfg.Width)
	}
	if owner, taken := seen[cfg.Start]; taken {
		return fmt.Errorf("%w: start %v is one of the %s", ErrConfig, cfg.Start, owner)
	}
	// The start is a path cell, so the spawn set cannot be empty once we get here.
	return nil
}

func (gw *GridWorld) index(c Coord) int {
	return c.Row*gw.width + c.Col
}

// Reset places the agent on a random spawn cell (random respawn) or the start cell,
// and clears the terminal flag.
func (gw *GridWorld) Reset() {
	if gw.randomRespawn {
		gw.pos = gw.spawns[gw.rng.Intn(len(gw.spawns))]
	} else {
		gw.pos = gw.start
	}
	gw.terminal = false
}

// Do dispatches an action to its primitive.
func (gw *GridWorld) Do(a Action) Outcome {
	if a == NoOp {
		return gw.NoOp()
	}
	return gw.Move(a)
}

// Move attempts a one-cell move. Moves off the grid or into a wall are rejected: the
// position is unchanged and the wall penalty is observed. Otherwise the agent moves and
// observes the reward of the new cell. The terminal check runs in both cases.
// Move with NoOp behaves as NoOp.
func (gw *GridWorld) Move(a Action) Outcome {
	dr, dc := a.Offset()
	candidate := gw.pos.Add(dr, dc)
	if !gw.InBounds(candidate) || gw.Kind(candidate) == Wall {
		return gw.observe(gw.rewards.Wall)
	}
	gw.pos = candidate
	return gw.observe(gw.Reward(candidate))
}

// NoOp observes the reward of the current cell without moving. On a terminal cell this
// re-triggers termination.
func (gw *GridWorld) NoOp() Outcome {
	return gw.observe(gw.Reward(gw.pos))
}

// observe records the outcome, then runs the terminal check, which may respawn the agent.
func (gw *GridWorld) observe(reward float64) Outcome {
	out := Outcome{Reward: reward, Cell: gw.pos}
	if kind := gw.Kind(gw.pos); kind == Win || kind == Lose {
		gw.terminal = true
		out.Terminal = true
		if gw.autoReset {
			gw.Reset()
		}
	}
	return out
}

// Position returns the agent's current cell.
func (gw *GridWorld) Position() Coord {
	return gw.pos
}

// Terminal reports whether the agent currently occupies a win or lose cell.
// With auto-reset this is only observable through Outcome.Terminal.
func (gw *GridWorld) Terminal() bool {
	return gw.terminal
}

// Dims returns the grid height and width.
func (gw *GridWorld) Dims() (height, width int) {
	return gw.height, gw.width
}

// InBounds reports whether c is a cell of the grid.
func (gw *GridWorld) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < gw.height && c.Col >= 0 && c.Col < gw.width
}

// Kind returns the categorical reward of c, which must be in bounds.
func (gw *GridWorld) Kind(c Coord) CellKind {
	return gw.kinds[gw.index(c)]
}

// Reward returns the reward of c, which must be in bounds.
func (gw *GridWorld) Reward(c Coord) float64 {
	return gw.rewards.Of(gw.Kind(c))
}

// Rewards returns the reward scalars of the grid.
func (gw *GridWorld) Rewards() Rewards {
	return gw.rewards
}

// SpawnCells returns a copy of the spawn set in row-major order.
func (gw *GridWorld) SpawnCells() []Coord {
	return append([]Coord(nil), gw.spawns...)
}

// Kinds returns a [row][col] copy of the cell kinds, for views.
func (gw *GridWorld) Kinds() [][]CellKind {
	kinds := make([][]CellKind, gw.height)
	for r := range kinds {
		kinds[r] = append([]CellKind(nil), gw.kinds[r*gw.width:(r+1)*gw.width]...)
	}
	return kinds
}

// Visit calls fn for every cell in row-major order.
func (gw *GridWorld) Visit(fn func(c Coord, kind CellKind)) {
	for r := 0; r < gw.height; r++ {
		for c := 0; c < gw.width; c++ {
			loc := Coord{r, c}
			fn(loc, gw.Kind(loc))
		}
	}
}
