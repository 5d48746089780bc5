package root_view

import (
	"context"
	"html/template"
	"strings"
	"time"

	"gridlearn/reinforcement"
	"gridlearn/server/cell_views"
	"gridlearn/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// batchRate is the period over which ele-updates are coalesced before publication.
const batchRate = time.Millisecond * 20

// pageFuncs are the arithmetic helpers available to every view template.
var pageFuncs = template.FuncMap{
	"add":  func(i, j int) int { return i + j },
	"sub":  func(i, j int) int { return i - j },
	"mult": func(i, j int) int { return i * j },
	"div":  func(i, j int) int { return i / j },
}

// wsBootstrap opens the websocket back to the serving host and applies each batch of
// ele-updates: the textContent key replaces text, any other key sets that attribute.
const wsBootstrap = `
<script>
	const ws = new WebSocket("ws://" + location.host + "/ws");
	ws.onerror = (event) => console.log("websocket error:", event);
	ws.onmessage = (event) => {
		for (const update of JSON.parse(event.data)) {
			const ele = document.getElementById(update.EleId);
			if (ele === null) {
				continue;
			}
			for (const op of update.Ops) {
				if (op.Key === "textContent") {
					ele.textContent = op.Value;
				} else {
					ele.setAttribute(op.Key, op.Value);
				}
			}
		}
	};
</script>`

// RootView is the single page: it lays out the grid and stats views side by side and
// merges their updates into one stream for the websocket.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the views over snapshots. Everything stops when ctx is done.
func NewRootView(
	ctx context.Context,
	snapshots <-chan *reinforcement.Snapshot,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[*reinforcement.Snapshot, cell_views.Board]().
		WithContext(ctx).
		WithModel(snapshots, cell_views.Convert).
		WithView(func(done <-chan struct{}, boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewValuesGrid(done, boards)
		}).
		WithView(func(done <-chan struct{}, boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewStatsView(done, boards)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	updates := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		updates[i] = view.Updates()
	}
	done := ctx.Done()
	return &RootView{
		views:   views,
		updates: batchify(done, channerics.Merge(done, updates...), batchRate),
	}, nil
}

// Updates returns the merged, batched ele-updates of every view.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse defines every view's template in parent, then the page embedding them, and
// returns the page's name. The page is executed with a cell_views.Board.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	page := parent.Funcs(pageFuncs)

	body := strings.Builder{}
	for _, vc := range rv.views {
		var viewName string
		if viewName, err = vc.Parse(page); err != nil {
			return
		}
		body.WriteString(`{{ template "` + viewName + `" . }}`)
	}

	name = "mainpage"
	_, err = page.Parse(`{{ define "` + name + `" }}<!DOCTYPE html>
<html>
	<head>
		<link rel="icon" href="data:,">` + wsBootstrap + `
	</head>
	<body style="display:flex;">` + body.String() + `</body>
</html>
{{ end }}`)
	return
}

// batchify coalesces updates per ele-id and publishes at most once per rate, so that
// only the latest ops of an element are sent. Pending updates are flushed when the
// source closes.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		pending := map[string]fastview.EleUpdate{}
		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			batch := make([]fastview.EleUpdate, 0, len(pending))
			for _, update := range pending {
				batch = append(batch, update)
			}
			select {
			case output <- batch:
				pending = map[string]fastview.EleUpdate{}
				return true
			case <-done:
				return false
			}
		}

		ticker := channerics.NewTicker(done, rate)
		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					flush()
					return
				}
				for _, update := range updates {
					pending[update.EleId] = update
				}
			case <-ticker:
				if !flush() {
					return
				}
			}
		}
	}()

	return output
}
