// reward_chart renders the learning curve: the mean reward of every completed window of steps.
package reward_chart

import (
	"fmt"
	"io"

	"gridlearn/reinforcement"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Render writes a standalone html page with a line chart of the curve to w.
// The x-axis is the step at which each window completed.
func Render(w io.Writer, progress reinforcement.Progress) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "mean reward per window",
			Subtitle: fmt.Sprintf("%d steps, %d wins, %d losses", progress.Steps, progress.Wins, progress.Losses),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	steps := make([]string, 0, len(progress.Curve))
	items := make([]opts.LineData, 0, len(progress.Curve))
	for i, mean := range progress.Curve {
		steps = append(steps, fmt.Sprintf("%d", int64(i+1)*progress.Window))
		items = append(items, opts.LineData{Value: mean})
	}

	line.SetXAxis(steps).AddSeries("reward", items)

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}
