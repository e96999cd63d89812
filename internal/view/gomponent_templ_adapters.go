package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"maragu.dev/gomponents"
)

// GomponentToTemplAdapter lets a gomponents node travel through code that
// speaks templ.Component, such as the page renderer.
type GomponentToTemplAdapter struct {
	Node gomponents.Node
}

// Render writes the node. The context is unused; gomponents does not take one.
func (a *GomponentToTemplAdapter) Render(_ context.Context, w io.Writer) error {
	return a.Node.Render(w)
}

// Page wraps node as a templ.Component.
func Page(node gomponents.Node) templ.Component {
	return &GomponentToTemplAdapter{Node: node}
}
