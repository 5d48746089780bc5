// fastview implements a builder pattern for simple server-side views:
// given an input data model, convert it to a view-model, and then
// multiplex that view-model to one or more views which emit element updates.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attrib keys or 'textContent', values are the strings to which these are set.
	// Example: ('x','123') means 'set attribute 'x' to 123. 'textContent' is a reserved key:
	// ('textContent','abc') means 'set ele.textContent to abc'.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// TextContent is the reserved Op key for replacing an element's text.
const TextContent = "textContent"

// ViewComponent is a server side view: Parse adds its initial markup to a page template,
// and Updates notifies the element updates keeping that markup current.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse parses the view-component into the passed parent template, inheriting its
	// func-map, and returns the name of the template it defined.
	Parse(*template.Template) (string, error)
}
