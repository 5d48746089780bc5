package cell_views

import (
	"fmt"
	"html/template"

	"gridlearn/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// cellDim is the height/width of a cell in pixels.
const cellDim = 60

// ValuesGrid draws the grid: each cell filled per its kind, labelled with its best value,
// path cells with a policy arrow, and a highlight around the agent.
type ValuesGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValuesGrid(
	done <-chan struct{},
	boards <-chan Board,
) (vg *ValuesGrid) {
	vg = &ValuesGrid{id: "valuesgrid"}
	vg.updates = channerics.Convert(done, boards, vg.onUpdate)
	return
}

func (vg *ValuesGrid) Updates() <-chan []fastview.EleUpdate {
	return vg.updates
}

func valueTextId(cell Cell) string {
	return fmt.Sprintf("%d-%d-value-text", cell.Row, cell.Col)
}

func arrowId(cell Cell) string {
	return fmt.Sprintf("%d-%d-policy-arrow", cell.Row, cell.Col)
}

// arrowEnd returns the svg end point of a cell's policy arrow, which starts at the cell center.
func arrowEnd(cell Cell) (x2, y2 int) {
	half := float64(cellDim) / 2
	cx := float64(cell.Col*cellDim) + half
	cy := float64(cell.Row*cellDim) + half
	return int(cx + cell.ArrowDX*half*0.9), int(cy + cell.ArrowDY*half*0.9)
}

func arrowX2(cell Cell) int {
	x2, _ := arrowEnd(cell)
	return x2
}

func arrowY2(cell Cell) int {
	_, y2 := arrowEnd(cell)
	return y2
}

// Returns the set of view updates needed for the view to reflect the current board.
// Fills never change, so only values, arrows and the agent marker are updated.
func (vg *ValuesGrid) onUpdate(board Board) (ops []fastview.EleUpdate) {
	for _, row := range board.Cells {
		for _, cell := range row {
			ops = append(ops, fastview.EleUpdate{
				EleId: valueTextId(cell),
				Ops: []fastview.Op{
					{Key: fastview.TextContent, Value: fmt.Sprintf("%.2f", cell.Max)},
				},
			})
			if !cell.ShowArrow {
				continue
			}
			x2, y2 := arrowEnd(cell)
			ops = append(ops, fastview.EleUpdate{
				EleId: arrowId(cell),
				Ops: []fastview.Op{
					{Key: "x2", Value: fmt.Sprintf("%d", x2)},
					{Key: "y2", Value: fmt.Sprintf("%d", y2)},
					{Key: "stroke-opacity", Value: fmt.Sprintf("%.3f", cell.ArrowOpacity)},
				},
			})
		}
	}

	ops = append(ops, fastview.EleUpdate{
		EleId: vg.id + "-agent",
		Ops: []fastview.Op{
			{Key: "x", Value: fmt.Sprintf("%d", board.Agent.Col*cellDim)},
			{Key: "y", Value: fmt.Sprintf("%d", board.Agent.Row*cellDim)},
		},
	})
	return
}

// Parse defines the grid's svg template, rendered from the initial Board.
func (vg *ValuesGrid) Parse(
	t *template.Template,
) (name string, err error) {
	name = vg.id
	addedMap := template.FuncMap{
		"valueTextId": valueTextId,
		"arrowId":     arrowId,
		"arrowX2":     arrowX2,
		"arrowY2":     arrowY2,
	}
	_, err = t.Funcs(addedMap).Parse(
		`{{ define "` + name + `" }}
		<div id="state_values" style="padding:20px;">
			{{ $cell_dim := ` + fmt.Sprintf("%d", cellDim) + ` }}
			{{ $half := div $cell_dim 2 }}
			{{ $rows := len .Cells }}
			{{ $cols := len (index .Cells 0) }}
			<svg id="` + vg.id + `" xmlns='http://www.w3.org/2000/svg'
				width="{{ add (mult $cols $cell_dim) 1 }}px"
				height="{{ add (mult $rows $cell_dim) 1 }}px"
				style="shape-rendering: crispEdges;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
					<g>
						<rect
							x="{{ mult $cell.Col $cell_dim }}"
							y="{{ mult $cell.Row $cell_dim }}"
							width="{{ $cell_dim }}"
							height="{{ $cell_dim }}"
							fill="{{ $cell.Fill }}"
							stroke="black"
							stroke-width="1"/>
						{{ if $cell.ShowArrow }}
						<line id="{{ arrowId $cell }}"
							x1="{{ add (mult $cell.Col $cell_dim) $half }}"
							y1="{{ add (mult $cell.Row $cell_dim) $half }}"
							x2="{{ arrowX2 $cell }}"
							y2="{{ arrowY2 $cell }}"
							stroke="white" stroke-width="3"
							stroke-opacity="{{ printf "%.3f" $cell.ArrowOpacity }}"/>
						{{ end }}
						<text id="{{ valueTextId $cell }}"
							x="{{ add (mult $cell.Col $cell_dim) $half }}"
							y="{{ add (mult $cell.Row $cell_dim) 14 }}"
							fill="black" font-size="11"
							text-anchor="middle"
							>{{ printf "%.2f" $cell.Max }}</text>
					</g>
					{{ end }}
				{{ end }}
				<rect id="` + vg.id + `-agent"
					x="{{ mult .Agent.Col $cell_dim }}"
					y="{{ mult .Agent.Row $cell_dim }}"
					width="{{ $cell_dim }}"
					height="{{ $cell_dim }}"
					fill="none" stroke="white" stroke-width="4"/>
			</svg>
		</div>
		{{ end }}`)
	return
}
