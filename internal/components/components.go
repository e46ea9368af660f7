// Package components provides the named components documents may embed.
package components

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/a-h/templ"

	"github.com/cloo-solutions/pillarpress/internal/compiler"
)

// Default returns the registry handed to compiled templates at render time.
func Default() compiler.Components {
	return compiler.Components{
		"Callout":     Callout,
		"Figure":      Figure,
		"Interactive": Interactive,
		"Steps":       Steps,
		"Step":        Step,
	}
}

// Names lists the default component names in sorted order.
func Names() []string {
	reg := Default()
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var calloutTypes = map[string]bool{"note": true, "tip": true, "warning": true}

// Callout renders a highlighted aside. type is note, tip or warning.
func Callout(attrs compiler.Attrs) templ.Component {
	kind := attrs.String("type")
	if !calloutTypes[kind] {
		kind = "note"
	}
	title := attrs.String("title")
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)

		if _, err := fmt.Fprintf(w, `<aside class="callout callout-%s" role="note">`, templ.EscapeString(kind)); err != nil {
			return err
		}
		if title != "" {
			if _, err := fmt.Fprintf(w, `<p class="callout-title">%s</p>`, templ.EscapeString(title)); err != nil {
				return err
			}
		}
		if err := children.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</aside>`)
		return err
	})
}

// Figure renders an image with an optional caption.
func Figure(attrs compiler.Attrs) templ.Component {
	src := attrs.String("src")
	alt := attrs.String("alt")
	caption := attrs.String("caption")
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)

		if src == "" {
			return fmt.Errorf("figure requires src")
		}
		if _, err := fmt.Fprintf(w, `<figure><img src="%s" alt="%s" loading="lazy">`,
			templ.EscapeString(string(templ.URL(src))), templ.EscapeString(alt)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<figcaption>`); err != nil {
			return err
		}
		if caption != "" {
			if _, err := io.WriteString(w, templ.EscapeString(caption)); err != nil {
				return err
			}
		}
		if err := children.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</figcaption></figure>`)
		return err
	})
}

// Interactive embeds an interactive asset. An explicit slug attribute points
// at a hosted asset; without one the document's own interactive reference is
// used, inline HTML first.
func Interactive(attrs compiler.Attrs) templ.Component {
	slug := attrs.String("slug")
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ctx = templ.ClearChildren(ctx)

		target := slug
		if target == "" {
			props := compiler.Props(ctx)
			if html, _ := props["interactiveHtml"].(string); html != "" {
				return templ.Raw(`<div class="interactive">`+html+`</div>`).Render(ctx, w)
			}
			target, _ = props["interactiveSlug"].(string)
		}
		if target == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, `<div class="interactive" data-interactive="%s"></div>`, templ.EscapeString(target))
		return err
	})
}

// Steps wraps a sequence of Step components in an ordered list.
func Steps(_ compiler.Attrs) templ.Component {
	return wrap(`<ol class="steps">`, `</ol>`)
}

// Step is one item of Steps.
func Step(attrs compiler.Attrs) templ.Component {
	title := attrs.String("title")
	open := `<li class="step">`
	if title != "" {
		open += `<p class="step-title">` + templ.EscapeString(title) + `</p>`
	}
	return wrap(open, `</li>`)
}

func wrap(open, close string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)

		if _, err := io.WriteString(w, open); err != nil {
			return err
		}
		if err := children.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, close)
		return err
	})
}
