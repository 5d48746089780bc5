package reinforcement

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	. "gridlearn/grid_world"
)

// DefaultDecay is the step constant K of the blend coefficient alpha = exp(-step/K).
// It is so large that alpha stays indistinguishable from 1 for any practical run.
const DefaultDecay = 10e9

// ErrTerminalState is returned by Step when the world is in a terminal state; the
// caller must reset before stepping again.
var ErrTerminalState = errors.New("step called in terminal state, reset first")

// HyperParams are the learning parameters of an Estimator.
type HyperParams struct {
	// Gamma discounts the successor cell's best estimate.
	Gamma float64
	// Epsilon is the probability floor of DistributionFromValues.
	Epsilon float64
	// ResetProb is the probability of a forced reset after every step.
	ResetProb float64
	// Decay is the constant K of alpha = exp(-step/K).
	Decay float64
}

// DefaultHyperParams returns the defaults: gamma 0.5, epsilon 1e-4, reset probability 0.2.
func DefaultHyperParams() HyperParams {
	return HyperParams{
		Gamma:     0.5,
		Epsilon:   DefaultEpsilon,
		ResetProb: 0.2,
		Decay:     DefaultDecay,
	}
}

// Transition is a single step of the agent: from cell From it took Action, observed
// Reward on cell Landed, and ended the step on To (which differs from Landed after an
// auto-reset or a forced reset).
type Transition struct {
	Step     int64
	From     Coord
	Action   Action
	Reward   float64
	Landed   Coord
	Terminal bool
	// Successor is the cell whose best estimate was bootstrapped, i.e. the agent's
	// position right after the primitive (post auto-reset, pre forced reset).
	Successor   Coord
	To          Coord
	Alpha       float64
	Updated     float64
	ForcedReset bool
}

func (t Transition) String() string {
	return fmt.Sprintf("step %d: %v %v -> %v r=%.2f q=%.4f", t.Step, t.From, t.Action, t.Landed, t.Reward, t.Updated)
}

// Estimator owns the value table and the step counter, and learns online by acting in
// the GridWorld it references. It is single-threaded: only one goroutine may call Step.
type Estimator struct {
	world  *GridWorld
	table  *ValueTable
	params HyperParams
	rng    *rand.Rand
	steps  int64
}

// NewEstimator returns an estimator over world with a uniform value table. The rng drives
// action sampling and forced resets; share it with the world for a single seeded stream.
func NewEstimator(world *GridWorld, params HyperParams, rng *rand.Rand) *Estimator {
	height, width := world.Dims()
	return &Estimator{
		world:  world,
		table:  NewValueTable(height, width),
		params: params,
		rng:    rng,
	}
}

// World returns the simulated grid.
func (est *Estimator) World() *GridWorld {
	return est.world
}

// Table returns the value table, which views may read concurrently.
func (est *Estimator) Table() *ValueTable {
	return est.table
}

// Steps returns the number of steps taken so far.
func (est *Estimator) Steps() int64 {
	return est.steps
}

// Params returns the hyper-parameters.
func (est *Estimator) Params() HyperParams {
	return est.params
}

// Reset resets the world.
func (est *Estimator) Reset() {
	est.world.Reset()
}

// Alpha returns the blend coefficient for the given step count.
func (est *Estimator) Alpha(step int64) float64 {
	return math.Exp(-float64(step) / est.params.Decay)
}

// Step samples an action from the current cell's distribution, executes it, folds the
// observation into the value table, and possibly forces a reset.
func (est *Estimator) Step() (tr Transition, err error) {
	if est.world.Terminal() {
		err = fmt.Errorf("step %d at %v: %w", est.steps, est.world.Position(), ErrTerminalState)
		return
	}

	tr.From = est.world.Position()
	probs := DistributionFromValues(est.table.Row(tr.From), est.params.Epsilon)
	tr.Action = SampleAction(est.rng, probs)

	out := est.world.Do(tr.Action)
	tr.Reward = out.Reward
	tr.Landed = out.Cell
	tr.Terminal = out.Terminal
	tr.Successor = est.world.Position()

	tr.Step = est.steps
	tr.Alpha = est.Alpha(est.steps)
	est.steps++
	tr.Updated = est.update(tr.From, tr.Action, tr.Reward, tr.Successor, tr.Alpha)

	if est.rng.Float64() < est.params.ResetProb {
		est.world.Reset()
		tr.ForcedReset = true
	}
	tr.To = est.world.Position()
	return
}

// Apply folds a recorded transition into the table with the rule used by Step, without
// acting. Replaying the same transitions on the same table yields the same table.
func (est *Estimator) Apply(tr Transition) float64 {
	return est.update(tr.From, tr.Action, tr.Reward, tr.Successor, tr.Alpha)
}

// update blends the entry of (from, a) toward reward plus the discounted best estimate
// of successor, and returns the stored value.
func (est *Estimator) update(from Coord, a Action, reward float64, successor Coord, alpha float64) float64 {
	target := reward + est.params.Gamma*est.table.Max(successor)
	return est.table.Update(from, a, func(old float64) float64 {
		return (1-alpha)*old + alpha*target
	})
}
