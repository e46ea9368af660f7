package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/cloo-solutions/pillarpress/internal/structure"
)

// ErrUnknownComponent is returned at render time when a template references a
// component the registry does not provide.
var ErrUnknownComponent = errors.New("unknown component")

// Attrs are the attributes of one component invocation. Quoted values are
// strings, {json} values are decoded JSON and bare flags are true.
type Attrs map[string]any

// String returns the attribute as a string, formatting numbers and booleans.
func (a Attrs) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool reports whether the attribute is set to something truthy.
func (a Attrs) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}

// Strings returns a list attribute, accepting a JSON array or a single string.
func (a Attrs) Strings(key string) []string {
	switch v := a[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// Func builds the component for one invocation. Children, when present, are
// available through templ.GetChildren.
type Func func(attrs Attrs) templ.Component

// Registry resolves component names at render time.
type Registry interface {
	Lookup(name string) (Func, bool)
}

// Components is a map backed Registry.
type Components map[string]Func

// Lookup implements Registry.
func (c Components) Lookup(name string) (Func, bool) {
	fn, ok := c[name]
	return fn, ok
}

// node is either a run of static HTML or a component invocation.
type node struct {
	html     string
	name     string
	attrs    Attrs
	children []node
}

func (n node) isComponent() bool {
	return n.name != ""
}

// Template is a compiled document body. It is immutable and may be rendered
// concurrently with different registries.
type Template struct {
	nodes    []node
	names    []string
	headings []structure.Heading
}

// Names returns the distinct component names the template invokes, in order
// of first use.
func (t *Template) Names() []string {
	return append([]string(nil), t.names...)
}

// Headings returns the level 2 and 3 headings with the ids they render with.
func (t *Template) Headings() []structure.Heading {
	return append([]structure.Heading(nil), t.headings...)
}

// Component binds the template to a registry and document props. Rendering
// fails with ErrUnknownComponent if a referenced component is missing.
func (t *Template) Component(reg Registry, props map[string]any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ctx = templ.InitializeContext(context.WithValue(ctx, propsKey{}, props))
		return renderNodes(ctx, w, reg, t.nodes)
	})
}

func renderNodes(ctx context.Context, w io.Writer, reg Registry, nodes []node) error {
	for _, n := range nodes {
		if !n.isComponent() {
			if _, err := io.WriteString(w, n.html); err != nil {
				return err
			}
			continue
		}

		var fn Func
		var ok bool
		if reg != nil {
			fn, ok = reg.Lookup(n.name)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownComponent, n.name)
		}

		childCtx := templ.ClearChildren(ctx)
		if len(n.children) > 0 {
			children := n.children
			childCtx = templ.WithChildren(childCtx, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				return renderNodes(ctx, w, reg, children)
			}))
		}
		if err := fn(n.attrs).Render(childCtx, w); err != nil {
			return fmt.Errorf("render %s: %w", n.name, err)
		}
	}
	return nil
}

type propsKey struct{}

// Props returns the document props passed to Template.Component.
func Props(ctx context.Context) map[string]any {
	props, _ := ctx.Value(propsKey{}).(map[string]any)
	return props
}
