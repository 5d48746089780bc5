package reinforcement

import (
	. "gridlearn/grid_world"
)

// Progress accumulates run statistics from transitions.
type Progress struct {
	Steps        int64
	Wins         int64
	Losses       int64
	WallBumps    int64
	ForcedResets int64
	TotalReward  float64
	// Window is the number of steps averaged per Curve point.
	Window int64
	// Curve holds the mean reward of every completed window.
	Curve []float64

	windowSum   float64
	windowCount int64
}

// NewProgress returns an empty Progress averaging window steps per curve point.
func NewProgress(window int64) *Progress {
	if window <= 0 {
		window = 1
	}
	return &Progress{Window: window}
}

// Observe folds one transition into the statistics. Bumps are recognized by position:
// a non-NoOp action that left the agent on the cell it started from.
func (pr *Progress) Observe(tr Transition, rewards Rewards) {
	pr.Steps++
	pr.TotalReward += tr.Reward
	if tr.Terminal {
		switch tr.Reward {
		case rewards.Win:
			pr.Wins++
		case rewards.Lose:
			pr.Losses++
		}
	}
	if tr.Action != NoOp && tr.Landed == tr.From && tr.Reward == rewards.Wall {
		pr.WallBumps++
	}
	if tr.ForcedReset {
		pr.ForcedResets++
	}

	pr.windowSum += tr.Reward
	pr.windowCount++
	if pr.windowCount == pr.Window {
		pr.Curve = append(pr.Curve, pr.windowSum/float64(pr.windowCount))
		pr.windowSum, pr.windowCount = 0, 0
	}
}

// Episodes is the number of terminal cells reached.
func (pr *Progress) Episodes() int64 {
	return pr.Wins + pr.Losses
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (pr *Progress) Clone() Progress {
	cp := *pr
	cp.Curve = append([]float64(nil), pr.Curve...)
	return cp
}

// Snapshot is an immutable copy of everything a view may display: the grid, the agent,
// the value table and the run statistics.
type Snapshot struct {
	Step     int64
	Position Coord
	Terminal bool
	Kinds    [][]CellKind
	Rewards  Rewards
	// Values is indexed [row][col][action].
	Values   [][][]float64
	Epsilon  float64
	Progress Progress
}

// TakeSnapshot copies the estimator's current state. It must be called from the
// goroutine driving the estimator.
func TakeSnapshot(est *Estimator, progress *Progress) *Snapshot {
	world := est.World()
	return &Snapshot{
		Step:     est.Steps(),
		Position: world.Position(),
		Terminal: world.Terminal(),
		Kinds:    world.Kinds(),
		Rewards:  world.Rewards(),
		Values:   est.Table().Snapshot(),
		Epsilon:  est.Params().Epsilon,
		Progress: progress.Clone(),
	}
}

// Distribution returns the action distribution of cell c.
func (snap *Snapshot) Distribution(c Coord) []float64 {
	return DistributionFromValues(snap.Values[c.Row][c.Col], snap.Epsilon)
}
