package reinforcement

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	. "gridlearn/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the envelope of a config file: a kind and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// TrainingConfig holds the grid, learning parameters and stopping conditions of a run.
// Viper lowercases every key it reads, hence the lowercase yaml tags.
type TrainingConfig struct {
	// HyperParams is a key-val pair of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// Algorithm is an alg selector.
	Algorithm map[string]string `yaml:"algorithm"`
	// TrainingDeadline is a duration describing when to terminate training.
	TrainingDeadline map[string]string `yaml:"trainingdeadline"`
	// MaxSteps caps the number of steps; zero means no cap.
	MaxSteps int64 `yaml:"maxsteps"`
	// Seed seeds the single random source of the run; zero means seed from the clock.
	Seed int64 `yaml:"seed"`
	// ExportEvery is the number of steps between progress exports.
	ExportEvery int64 `yaml:"exportevery"`
	// Window is the number of steps averaged per point of the reward curve.
	Window int64    `yaml:"window"`
	Grid   GridSpec `yaml:"grid"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// GridSpec describes the grid either explicitly, by coordinate lists, or by a
// Generate block which scatters walls and terminals at random.
type GridSpec struct {
	Height        int       `yaml:"height"`
	Width         int       `yaml:"width"`
	Rewards       Rewards   `yaml:"rewards"`
	Walls         [][]int   `yaml:"walls"`
	Wins          [][]int   `yaml:"wins"`
	Loses         [][]int   `yaml:"loses"`
	Start         []int     `yaml:"start"`
	RandomRespawn bool      `yaml:"randomrespawn"`
	AutoReset     bool      `yaml:"autoreset"`
	Generate      *Generate `yaml:"generate"`
}

// Generate parameterizes GenerateLayout.
type Generate struct {
	WallFrac float64 `yaml:"wallfrac"`
	NumWins  int     `yaml:"numwins"`
	NumLose  int     `yaml:"numlose"`
}

// DefaultTrainingConfig is a 16x9 randomly generated grid with random respawn and
// auto-reset, trained for one minute.
func DefaultTrainingConfig() *TrainingConfig {
	return &TrainingConfig{
		Algorithm:        map[string]string{"name": "online-q"},
		TrainingDeadline: map[string]string{"duration": "1m"},
		ExportEvery:      1000,
		Window:           500,
		Grid: GridSpec{
			Height:        16,
			Width:         9,
			Rewards:       Rewards{Default: -0.5, Wall: -0.6, Win: 5, Lose: -10},
			Start:         []int{0, 0},
			RandomRespawn: true,
			AutoReset:     true,
			Generate: &Generate{
				WallFrac: 0.2,
				NumWins:  5,
				NumLose:  10,
			},
		},
	}
}

// withDefaults fills zero-valued sections from DefaultTrainingConfig. The grid is
// replaced as a whole, since a partial grid cannot be merged meaningfully.
func (cfg *TrainingConfig) withDefaults() {
	defaults := DefaultTrainingConfig()
	if cfg.Algorithm == nil {
		cfg.Algorithm = defaults.Algorithm
	}
	if cfg.ExportEvery <= 0 {
		cfg.ExportEvery = defaults.ExportEvery
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.Grid.Height == 0 && cfg.Grid.Width == 0 {
		cfg.Grid = defaults.Grid
	}
	if cfg.Grid.Start == nil {
		cfg.Grid.Start = []int{0, 0}
	}
}

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// LearningParams resolves the estimator's hyper-parameters from the config.
func (cfg *TrainingConfig) LearningParams() HyperParams {
	defaults := DefaultHyperParams()
	return HyperParams{
		// Gamma: how much to value the successor cell's best estimate.
		Gamma:     cfg.GetHyperParamOrDefault("gamma", defaults.Gamma),
		Epsilon:   cfg.GetHyperParamOrDefault("epsilon", defaults.Epsilon),
		ResetProb: cfg.GetHyperParamOrDefault("resetProb", defaults.ResetProb),
		Decay:     cfg.GetHyperParamOrDefault("decay", defaults.Decay),
	}
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *TrainingConfig) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		if duration, err := time.ParseDuration(val); err != nil {
			return nil, nil, fmt.Errorf("training deadline: %w", err)
		} else {
			innerCtx, cancel := context.WithTimeout(ctx, duration)
			return innerCtx, cancel, nil
		}
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// NewRand returns the run's random source, seeded by Seed or the clock.
func (cfg *TrainingConfig) NewRand() *rand.Rand {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// WorldConfig resolves the grid spec into a GridWorld configuration, generating the
// layout with rng when a Generate block is present. Explicit coordinate lists are
// appended to generated ones, which never draw the start or an explicit cell.
func (spec *GridSpec) WorldConfig(rng *rand.Rand) (cfg Config, err error) {
	cfg = Config{
		Height:        spec.Height,
		Width:         spec.Width,
		Rewards:       spec.Rewards,
		RandomRespawn: spec.RandomRespawn,
		AutoReset:     spec.AutoReset,
	}

	if cfg.Start, err = toCoord("start", spec.Start); err != nil {
		return
	}
	if cfg.Walls, err = toCoords("walls", spec.Walls); err != nil {
		return
	}
	if cfg.Wins, err = toCoords("wins", spec.Wins); err != nil {
		return
	}
	if cfg.Loses, err = toCoords("loses", spec.Loses); err != nil {
		return
	}

	if spec.Generate != nil {
		gen := spec.Generate
		var layout Layout
		reserved := append([]Coord{cfg.Start}, cfg.Walls...)
		reserved = append(append(reserved, cfg.Wins...), cfg.Loses...)
		if layout, err = GenerateLayout(rng, spec.Height, spec.Width, gen.WallFrac, gen.NumWins, gen.NumLose, reserved...); err != nil {
			return
		}
		cfg.Walls = append(layout.Walls, cfg.Walls...)
		cfg.Wins = append(layout.Wins, cfg.Wins...)
		cfg.Loses = append(layout.Loses, cfg.Loses...)
	}
	return
}

func toCoord(name string, pair []int) (Coord, error) {
	if len(pair) != 2 {
		return Coord{}, fmt.Errorf("%w: %s coordinate %v must be a [row, col] pair", ErrConfig, name, pair)
	}
	return Coord{Row: pair[0], Col: pair[1]}, nil
}

func toCoords(name string, pairs [][]int) (coords []Coord, err error) {
	for _, pair := range pairs {
		var c Coord
		if c, err = toCoord(name, pair); err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return
}

// FromYaml reads a training config. The outer envelope is read by viper, then the
// definition is round-tripped through yaml. A config without a grid section trains on
// the default grid.
func FromYaml(path string) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if outerConfig.Kind != "training" {
		return nil, fmt.Errorf("config %s: unsupported kind %q", path, outerConfig.Kind)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := &TrainingConfig{}
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	innerConfig.withDefaults()
	return innerConfig, nil
}
