package grid_world

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

var testRewards = Rewards{Default: -0.5, Wall: -0.6, Win: 5, Lose: -10}

// An open 5x5 grid with a single wall in the middle and terminals in two corners.
func openConfig() Config {
	return Config{
		Height:  5,
		Width:   5,
		Rewards: testRewards,
		Walls:   []Coord{{2, 2}},
		Wins:    []Coord{{0, 4}},
		Loses:   []Coord{{4, 0}},
		Start:   Coord{0, 0},
	}
}

func TestNew(t *testing.T) {
	Convey("When a grid is constructed", t, func() {
		gw, err := New(openConfig(), nil)
		So(err, ShouldBeNil)

		Convey("The cells hold their configured kinds and rewards", func() {
			So(gw.Kind(Coord{2, 2}), ShouldEqual, Wall)
			So(gw.Kind(Coord{0, 4}), ShouldEqual, Win)
			So(gw.Kind(Coord{4, 0}), ShouldEqual, Lose)
			So(gw.Reward(Coord{1, 1}), ShouldEqual, testRewards.Default)
			So(gw.Reward(Coord{2, 2}), ShouldEqual, testRewards.Wall)
			So(gw.Reward(Coord{0, 4}), ShouldEqual, testRewards.Win)
			So(gw.Reward(Coord{4, 0}), ShouldEqual, testRewards.Lose)
		})

		Convey("The spawn set is exactly the default-reward cells", func() {
			spawns := gw.SpawnCells()
			So(len(spawns), ShouldEqual, 25-3)
			for _, loc := range spawns {
				So(gw.Reward(loc), ShouldEqual, testRewards.Default)
			}
		})

		Convey("The agent starts at the start cell", func() {
			So(gw.Position(), ShouldResemble, Coord{0, 0})
			So(gw.Terminal(), ShouldBeFalse)
		})

		Convey("Kinds returns a copy", func() {
			kinds := gw.Kinds()
			kinds[2][2] = Path
			So(gw.Kind(Coord{2, 2}), ShouldEqual, Wall)
		})
	})

	Convey("When random respawn is enabled", t, func() {
		cfg := openConfig()
		cfg.RandomRespawn = true
		gw, err := New(cfg, rand.New(rand.NewSource(7)))
		So(err, ShouldBeNil)

		Convey("Every respawn lands on a spawn cell", func() {
			for i := 0; i < 500; i++ {
				gw.Reset()
				So(gw.Kind(gw.Position()), ShouldEqual, Path)
			}
		})
	})

	Convey("When random respawn is enabled without a random source", t, func() {
		cfg := openConfig()
		cfg.RandomRespawn = true
		_, err := New(cfg, nil)
		So(errors.Is(err, ErrConfig), ShouldBeTrue)
	})
}

func TestConfigValidation(t *testing.T) {
	Convey("When the configuration is malformed", t, func() {
		cases := map[string]func(cfg *Config){
			"zero height":            func(cfg *Config) { cfg.Height = 0 },
			"negative width":         func(cfg *Config) { cfg.Width = -1 },
			"wall out of bounds":     func(cfg *Config) { cfg.Walls = append(cfg.Walls, Coord{5, 0}) },
			"win out of bounds":      func(cfg *Config) { cfg.Wins = []Coord{{0, -1}} },
			"lose out of bounds":     func(cfg *Config) { cfg.Loses = []Coord{{9, 9}} },
			"duplicate wall":         func(cfg *Config) { cfg.Walls = []Coord{{1, 1}, {1, 1}} },
			"wall overlapping a win": func(cfg *Config) { cfg.Walls = []Coord{{0, 4}} },
			"start out of bounds":    func(cfg *Config) { cfg.Start = Coord{-1, 0} },
			"start on a wall":        func(cfg *Config) { cfg.Start = Coord{2, 2} },
			"start on a lose cell":   func(cfg *Config) { cfg.Start = Coord{4, 0} },
			"equal rewards":          func(cfg *Config) { cfg.Rewards.Wall = cfg.Rewards.Default },
		}

		for name, mutate := range cases {
			cfg := openConfig()
			mutate(&cfg)
			_, err := New(cfg, nil)
			Convey("Construction fails for "+name, func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrConfig), ShouldBeTrue)
			})
		}
	})

	Convey("When coordinate lists are empty", t, func() {
		cfg := openConfig()
		cfg.Walls, cfg.Wins, cfg.Loses = nil, nil, nil
		gw, err := New(cfg, nil)
		So(err, ShouldBeNil)
		So(len(gw.SpawnCells()), ShouldEqual, 25)
	})
}

func TestMove(t *testing.T) {
	Convey("When moving on an open grid", t, func() {
		gw, err := New(openConfig(), nil)
		So(err, ShouldBeNil)

		// Interior cells whose neighbours are neither walls nor terminals.
		interior := []Coord{{1, 1}, {1, 2}, {2, 1}, {3, 3}, {3, 2}}

		Convey("A move followed by its opposite is a round trip", func() {
			for _, loc := range interior {
				for _, a := range []Action{Up, Left, Right, Down} {
					dr, dc := a.Offset()
					next := loc.Add(dr, dc)
					if gw.Kind(next) != Path {
						continue
					}
					gw.pos = loc
					out := gw.Move(a)
					So(out.Reward, ShouldEqual, testRewards.Default)
					So(gw.Position(), ShouldResemble, next)
					gw.Move(a.Opposite())
					So(gw.Position(), ShouldResemble, loc)
				}
			}
		})

		Convey("Moving into a wall is rejected with the wall penalty", func() {
			gw.pos = Coord{1, 2}
			out := gw.Move(Down)
			So(out.Reward, ShouldEqual, testRewards.Wall)
			So(out.Terminal, ShouldBeFalse)
			So(gw.Position(), ShouldResemble, Coord{1, 2})
		})

		Convey("Moving off every boundary is rejected with the wall penalty", func() {
			edges := map[Action]Coord{
				Up:    {0, 1},
				Left:  {1, 0},
				Right: {1, 4},
				Down:  {4, 2},
			}
			for a, loc := range edges {
				gw.pos = loc
				out := gw.Do(a)
				So(out.Reward, ShouldEqual, testRewards.Wall)
				So(gw.Position(), ShouldResemble, loc)
			}
		})

		Convey("NoOp observes the current cell without moving", func() {
			gw.pos = Coord{3, 3}
			out := gw.Do(NoOp)
			So(out.Reward, ShouldEqual, testRewards.Default)
			So(out.Cell, ShouldResemble, Coord{3, 3})
			So(gw.Position(), ShouldResemble, Coord{3, 3})
		})
	})
}

func TestTerminal(t *testing.T) {
	Convey("When a terminal cell is reached with auto-reset", t, func() {
		cfg := openConfig()
		cfg.AutoReset = true
		cfg.RandomRespawn = true
		gw, err := New(cfg, rand.New(rand.NewSource(1)))
		So(err, ShouldBeNil)

		gw.pos = Coord{0, 3}
		out := gw.Move(Right)

		Convey("The outcome reports the terminal cell and its reward", func() {
			So(out.Terminal, ShouldBeTrue)
			So(out.Reward, ShouldEqual, testRewards.Win)
			So(out.Cell, ShouldResemble, Coord{0, 4})
		})

		Convey("The agent has already respawned on a spawn cell", func() {
			So(gw.Terminal(), ShouldBeFalse)
			So(gw.Kind(gw.Position()), ShouldEqual, Path)
		})
	})

	Convey("When a lose cell is reached without auto-reset", t, func() {
		gw, err := New(openConfig(), nil)
		So(err, ShouldBeNil)

		gw.pos = Coord{3, 0}
		out := gw.Move(Down)
		So(out.Reward, ShouldEqual, testRewards.Lose)
		So(gw.Terminal(), ShouldBeTrue)
		So(gw.Position(), ShouldResemble, Coord{4, 0})

		Convey("NoOp re-triggers termination", func() {
			out = gw.NoOp()
			So(out.Terminal, ShouldBeTrue)
			So(out.Reward, ShouldEqual, testRewards.Lose)
		})

		Convey("Reset returns to the start and clears the flag", func() {
			gw.Reset()
			So(gw.Terminal(), ShouldBeFalse)
			So(gw.Position(), ShouldResemble, Coord{0, 0})
		})
	})
}

func TestTwoByTwo(t *testing.T) {
	Convey("Given a 2x2 grid with a wall at (0,1) and a win at (1,1)", t, func() {
		cfg := Config{
			Height:  2,
			Width:   2,
			Rewards: Rewards{Default: 0, Wall: -1, Win: 10, Lose: -10},
			Walls:   []Coord{{0, 1}},
			Wins:    []Coord{{1, 1}},
			Start:   Coord{0, 0},
		}
		gw, err := New(cfg, nil)
		So(err, ShouldBeNil)

		Convey("Moving RIGHT from (0,0) bumps the wall", func() {
			out := gw.Do(Right)
			So(out.Reward, ShouldEqual, -1)
			So(gw.Position(), ShouldResemble, Coord{0, 0})
		})

		Convey("Moving DOWN then RIGHT reaches the win cell and stays there", func() {
			out := gw.Do(Down)
			So(out.Reward, ShouldEqual, 0)
			So(gw.Position(), ShouldResemble, Coord{1, 0})

			out = gw.Do(Right)
			So(out.Reward, ShouldEqual, 10)
			So(out.Terminal, ShouldBeTrue)
			So(gw.Terminal(), ShouldBeTrue)
			So(gw.Position(), ShouldResemble, Coord{1, 1})
		})
	})
}

func TestGenerateLayout(t *testing.T) {
	Convey("When a layout is generated", t, func() {
		rng := rand.New(rand.NewSource(3))
		start := Coord{0, 0}
		layout, err := GenerateLayout(rng, 16, 9, 0.2, 5, 10, start)
		So(err, ShouldBeNil)

		Convey("It has the requested counts", func() {
			So(len(layout.Walls), ShouldEqual, 28)
			So(len(layout.Wins), ShouldEqual, 5)
			So(len(layout.Loses), ShouldEqual, 10)
		})

		Convey("It validates as a grid configuration", func() {
			_, err := New(Config{
				Height:  16,
				Width:   9,
				Rewards: testRewards,
				Walls:   layout.Walls,
				Wins:    layout.Wins,
				Loses:   layout.Loses,
				Start:   start,
			}, nil)
			So(err, ShouldBeNil)
		})
	})

	Convey("When too many cells are requested", t, func() {
		_, err := GenerateLayout(rand.New(rand.NewSource(3)), 2, 2, 0.5, 1, 1, Coord{0, 0})
		So(errors.Is(err, ErrConfig), ShouldBeTrue)
	})

	Convey("When cells are reserved", t, func() {
		reserved := []Coord{{0, 0}, {2, 2}, {3, 1}}
		for seed := int64(0); seed < 100; seed++ {
			layout, err := GenerateLayout(rand.New(rand.NewSource(seed)), 4, 4, 0.25, 2, 2, reserved...)
			So(err, ShouldBeNil)

			drawn := append(append(append([]Coord{}, layout.Walls...), layout.Wins...), layout.Loses...)
			So(len(drawn), ShouldEqual, 8)
			for _, loc := range drawn {
				So(loc != reserved[0] && loc != reserved[1] && loc != reserved[2], ShouldBeTrue)
			}
		}

		Convey("Only the free cells count toward the fit", func() {
			_, err := GenerateLayout(rand.New(rand.NewSource(1)), 4, 4, 0.5, 3, 3, reserved...)
			So(errors.Is(err, ErrConfig), ShouldBeTrue)
		})
	})
}

func TestConsole(t *testing.T) {
	Convey("When the grid is printed without colors", t, func() {
		gw, err := New(openConfig(), nil)
		So(err, ShouldBeNil)
		buf := &bytes.Buffer{}
		con := NewConsole(buf, false)

		Convey("ShowGrid marks the agent and the cell kinds", func() {
			con.ShowGrid(gw)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(len(lines), ShouldEqual, 5)
			So(lines[0], ShouldStartWith, "@ ")
			So(lines[0], ShouldContainSubstring, "+")
			So(lines[2], ShouldContainSubstring, "W")
		})

		Convey("ShowPolicy prints the best action of each path cell", func() {
			values := func(c Coord) []float64 { return []float64{0, 0, 1, 0, 0} }
			con.ShowPolicy(gw, values)
			So(buf.String(), ShouldStartWith, "> ")
			So(strings.Count(buf.String(), ">"), ShouldEqual, 22)
		})
	})
}
