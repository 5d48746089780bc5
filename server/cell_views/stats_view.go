package cell_views

import (
	"fmt"
	"html/template"

	"gridlearn/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatsView is a table of run counters.
type StatsView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewStatsView(
	done <-chan struct{},
	boards <-chan Board,
) (sv *StatsView) {
	sv = &StatsView{id: "stats"}
	sv.updates = channerics.Convert(done, boards, sv.onUpdate)
	return
}

func (sv *StatsView) Updates() <-chan []fastview.EleUpdate {
	return sv.updates
}

func (sv *StatsView) fields(stats Stats) [][2]string {
	return [][2]string{
		{"steps", fmt.Sprintf("%d", stats.Steps)},
		{"wins", fmt.Sprintf("%d", stats.Wins)},
		{"losses", fmt.Sprintf("%d", stats.Losses)},
		{"bumps", fmt.Sprintf("%d", stats.WallBumps)},
		{"resets", fmt.Sprintf("%d", stats.ForcedResets)},
		{"reward", fmt.Sprintf("%.4f", stats.MeanReward)},
	}
}

func (sv *StatsView) onUpdate(board Board) (ops []fastview.EleUpdate) {
	for _, field := range sv.fields(board.Stats) {
		ops = append(ops, fastview.EleUpdate{
			EleId: sv.id + "-" + field[0],
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: field[1]}},
		})
	}
	return
}

// Parse defines the stats table template, rendered from the initial Board's stats.
func (sv *StatsView) Parse(
	t *template.Template,
) (name string, err error) {
	name = sv.id
	_, err = t.Funcs(template.FuncMap{"statsFields": sv.fields}).Parse(
		`{{ define "` + name + `" }}
		<table id="` + sv.id + `" style="padding:20px; font-family:monospace;">
			{{ range statsFields .Stats }}
			<tr><td>{{ index . 0 }}</td><td id="` + sv.id + `-{{ index . 0 }}">{{ index . 1 }}</td></tr>
			{{ end }}
		</table>
		<a href="/curve">reward curve</a>
		{{ end }}`)
	return
}
