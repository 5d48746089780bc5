package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

// ViewFactory builds a view over a stream of view-models. The view must stop when done closes.
type ViewFactory[VM any] func(done <-chan struct{}, models <-chan VM) ViewComponent

// ViewBuilder wires one data source to several views: each item is converted once to a
// view-model, and every view receives every view-model.
type ViewBuilder[DM any, VM any] struct {
	source    <-chan DM
	toView    func(DM) VM
	factories []ViewFactory[VM]
	done      <-chan struct{}
}

func NewViewBuilder[DM any, VM any]() *ViewBuilder[DM, VM] {
	return &ViewBuilder[DM, VM]{}
}

// WithModel sets the data source and its view-model conversion.
func (vb *ViewBuilder[DM, VM]) WithModel(
	source <-chan DM,
	toView func(DM) VM,
) *ViewBuilder[DM, VM] {
	vb.source, vb.toView = source, toView
	return vb
}

// WithView queues a view; Build returns views in queue order.
func (vb *ViewBuilder[DM, VM]) WithView(factory ViewFactory[VM]) *ViewBuilder[DM, VM] {
	vb.factories = append(vb.factories, factory)
	return vb
}

// WithContext stops every built view when ctx is done. Without it views run until the
// source closes.
func (vb *ViewBuilder[DM, VM]) WithContext(ctx context.Context) *ViewBuilder[DM, VM] {
	vb.done = ctx.Done()
	return vb
}

var (
	ErrNoViews = errors.New("view builder: no views, call WithView")
	ErrNoModel = errors.New("view builder: no model, call WithModel")
)

// Build starts the conversion and the fan-out and returns the views.
func (vb *ViewBuilder[DM, VM]) Build() ([]ViewComponent, error) {
	switch {
	case len(vb.factories) == 0:
		return nil, ErrNoViews
	case vb.source == nil || vb.toView == nil:
		return nil, ErrNoModel
	}

	outputs := channerics.Broadcast(
		vb.done,
		channerics.Convert(vb.done, vb.source, vb.toView),
		len(vb.factories))

	views := make([]ViewComponent, len(vb.factories))
	for i, factory := range vb.factories {
		views[i] = factory(vb.done, outputs[i])
	}
	return views, nil
}
