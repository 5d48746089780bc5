/*
Gridlearn is a small grid-world reinforcement learning application: an agent wanders a
rectangular grid of path cells, walls and terminal win/lose cells, and learns online which
of its five actions is worth the most in every cell. Training runs for a step budget or a
deadline, and its progress is either printed to the terminal (-headless) or streamed to a
single page over a websocket, where the value function and policy update in realtime.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"

	"gridlearn/grid_world"
	"gridlearn/reinforcement"
	"gridlearn/server"
)

var (
	configPath *string
	dbg        *bool
	headless   *bool
	noColor    *bool
	maxSteps   *int64
	host       *string
	port       *string
)

func init() {
	configPath = flag.String("config", "./config.yaml", "path to the training config")
	dbg = flag.Bool("debug", false, "debug mode: print the grid at every export")
	headless = flag.Bool("headless", false, "train without serving views, printing results to the terminal")
	noColor = flag.Bool("nocolor", false, "disable terminal colors")
	maxSteps = flag.Int64("steps", 0, "overrides the config's step cap when positive")
	host = flag.String("host", "", "The host ip")
	port = flag.String("port", "8080", "The host port")
}

// loadConfig reads the config file, falling back to the defaults when there is none.
func loadConfig() (cfg *reinforcement.TrainingConfig, err error) {
	if cfg, err = reinforcement.FromYaml(*configPath); errors.Is(err, fs.ErrNotExist) {
		log.Printf("no config at %s, using defaults", *configPath)
		cfg, err = reinforcement.DefaultTrainingConfig(), nil
	}
	if err != nil {
		return
	}
	if *maxSteps > 0 {
		cfg.MaxSteps = *maxSteps
	}
	return
}

// newEstimator builds the world and its estimator from a single random source.
func newEstimator(cfg *reinforcement.TrainingConfig) (*reinforcement.Estimator, error) {
	rng := cfg.NewRand()
	worldCfg, err := cfg.Grid.WorldConfig(rng)
	if err != nil {
		return nil, err
	}
	world, err := grid_world.New(worldCfg, rng)
	if err != nil {
		return nil, err
	}
	return reinforcement.NewEstimator(world, cfg.LearningParams(), rng), nil
}

func runApp() (err error) {
	var cfg *reinforcement.TrainingConfig
	if cfg, err = loadConfig(); err != nil {
		return
	}

	var est *reinforcement.Estimator
	if est, err = newEstimator(cfg); err != nil {
		return
	}

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer appCancel()

	trainingCtx, trainingCancel, err := cfg.WithTrainingDeadline(appCtx)
	if err != nil {
		return
	}
	defer trainingCancel()

	console := grid_world.NewConsole(os.Stdout, !*noColor)
	values := func(c grid_world.Coord) []float64 {
		return est.Table().Row(c)
	}

	if *headless {
		progressFn := func(_ context.Context, snap *reinforcement.Snapshot) {
			if *dbg {
				console.ShowGrid(est.World())
			}
			log.Printf("step %d: %d wins, %d losses", snap.Step, snap.Progress.Wins, snap.Progress.Losses)
		}
		var progress *reinforcement.Progress
		if progress, err = reinforcement.Train(trainingCtx, est, cfg.Options(), progressFn); err != nil {
			err = trainingError(err)
			return
		}
		console.ShowGrid(est.World())
		console.ShowMaxValues(est.World(), values)
		console.ShowPolicy(est.World(), values)
		summarize(progress)
		return
	}

	snapshots := make(chan *reinforcement.Snapshot)
	addr := *host + ":" + *port
	var srv *server.Server
	if srv, err = server.NewServer(
		appCtx,
		addr,
		reinforcement.TakeSnapshot(est, reinforcement.NewProgress(cfg.Window)),
	); err != nil {
		return
	}
	go srv.Run(appCtx, snapshots)

	go func() {
		defer close(snapshots)
		progress, trainErr := reinforcement.Train(trainingCtx, est, cfg.Options(), exportStates(appCtx, snapshots))
		if trainErr != nil {
			log.Fatal(trainingError(trainErr))
		}
		summarize(progress)
		console.ShowPolicy(est.World(), values)
	}()

	err = srv.Serve(appCtx)
	return
}

// exportStates returns a ProgressFunc which blocks until the server accepts each snapshot,
// or the app is done.
func exportStates(
	appCtx context.Context,
	snapshots chan<- *reinforcement.Snapshot,
) reinforcement.ProgressFunc {
	return func(_ context.Context, snap *reinforcement.Snapshot) {
		select {
		case snapshots <- snap:
		case <-appCtx.Done():
		}
	}
}

// trainingError tells a terminal-state contract violation, which is a driver bug, apart
// from other training failures.
func trainingError(err error) error {
	if reinforcement.IsContractViolation(err) {
		return fmt.Errorf("driver stepped from a terminal state without a reset: %w", err)
	}
	return fmt.Errorf("training: %w", err)
}

func summarize(progress *reinforcement.Progress) {
	mean := 0.0
	if progress.Steps > 0 {
		mean = progress.TotalReward / float64(progress.Steps)
	}
	log.Printf("training done: %d steps, %d episodes (%d wins, %d losses), %d wall bumps, %d forced resets, mean reward %.4f",
		progress.Steps, progress.Episodes(), progress.Wins, progress.Losses,
		progress.WallBumps, progress.ForcedResets, mean)
}

func main() {
	flag.Parse()
	if err := runApp(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
