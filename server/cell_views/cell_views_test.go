package cell_views

import (
	"testing"

	. "gridlearn/grid_world"
	"gridlearn/reinforcement"

	. "github.com/smartystreets/goconvey/convey"
)

// testSnapshot is a 3x3 grid with a wall in the center, a win top right and a lose
// bottom right, whose start cell strongly prefers moving right.
func testSnapshot() *reinforcement.Snapshot {
	world, err := New(Config{
		Height:  3,
		Width:   3,
		Rewards: Rewards{Default: -0.5, Wall: -0.6, Win: 5, Lose: -10},
		Walls:   []Coord{{Row: 1, Col: 1}},
		Wins:    []Coord{{Row: 0, Col: 2}},
		Loses:   []Coord{{Row: 2, Col: 2}},
		Start:   Coord{Row: 0, Col: 0},
	}, nil)
	So(err, ShouldBeNil)
	est := reinforcement.NewEstimator(world, reinforcement.DefaultHyperParams(), nil)
	est.Table().Set(Coord{Row: 0, Col: 0}, Right, 100)
	est.Table().Set(Coord{Row: 0, Col: 1}, Up, 50)
	progress := reinforcement.NewProgress(10)
	progress.Steps = 4
	progress.TotalReward = -2
	progress.Wins = 1
	return reinforcement.TakeSnapshot(est, progress)
}

func TestConvert(t *testing.T) {
	Convey("When a snapshot is converted to a board", t, func() {
		board := Convert(testSnapshot())

		Convey("Every cell is present and filled by kind", func() {
			So(len(board.Cells), ShouldEqual, 3)
			So(len(board.Cells[0]), ShouldEqual, 3)
			So(board.Cells[1][1].Fill, ShouldEqual, WallFill)
			So(board.Cells[0][2].Fill, ShouldEqual, WinFill)
			So(board.Cells[2][2].Fill, ShouldEqual, LoseFill)
			So(board.Cells[0][0].Fill, ShouldEqual, PathFill)
		})

		Convey("Policy arrows point toward the preferred action", func() {
			start := board.Cells[0][0]
			So(start.ShowArrow, ShouldBeTrue)
			So(start.ArrowDX, ShouldBeGreaterThan, 0.99)
			So(start.ArrowDY, ShouldAlmostEqual, 0, 0.01)
			So(start.Max, ShouldEqual, 100)

			up := board.Cells[0][1]
			So(up.ArrowDY, ShouldBeLessThan, -0.99)
			So(up.ArrowOpacity, ShouldBeGreaterThan, 0.99)
		})

		Convey("Only path cells get an arrow", func() {
			So(board.Cells[1][1].ShowArrow, ShouldBeFalse)
			So(board.Cells[1][1].Max, ShouldEqual, 0.2)
			So(board.Cells[0][2].ShowArrow, ShouldBeFalse)
		})

		Convey("Stats and the agent are carried over", func() {
			So(board.Agent, ShouldResemble, Coord{Row: 0, Col: 0})
			So(board.Stats.Wins, ShouldEqual, 1)
			So(board.Stats.MeanReward, ShouldEqual, -0.5)
		})
	})
}

func TestValuesGrid(t *testing.T) {
	Convey("When a board is sent to the values grid", t, func() {
		done := make(chan struct{})
		defer close(done)
		boards := make(chan Board, 1)
		vg := NewValuesGrid(done, boards)

		boards <- Convert(testSnapshot())
		updates := <-vg.Updates()

		ids := map[string]bool{}
		for _, update := range updates {
			ids[update.EleId] = true
		}

		Convey("Every value text, every path arrow and the agent are updated", func() {
			So(len(updates), ShouldEqual, 9+6+1)
			So(ids["0-0-value-text"], ShouldBeTrue)
			So(ids["0-0-policy-arrow"], ShouldBeTrue)
			So(ids["1-1-policy-arrow"], ShouldBeFalse)
			So(ids["valuesgrid-agent"], ShouldBeTrue)
		})
	})
}

func TestStatsView(t *testing.T) {
	Convey("When a board is sent to the stats view", t, func() {
		done := make(chan struct{})
		defer close(done)
		boards := make(chan Board, 1)
		sv := NewStatsView(done, boards)

		boards <- Convert(testSnapshot())
		updates := <-sv.Updates()

		values := map[string]string{}
		for _, update := range updates {
			values[update.EleId] = update.Ops[0].Value
		}
		So(values["stats-steps"], ShouldEqual, "4")
		So(values["stats-wins"], ShouldEqual, "1")
		So(values["stats-reward"], ShouldEqual, "-0.5000")
	})
}
