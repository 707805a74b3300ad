package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"cloudcanvas/app/viewmodels"
)

//go:embed *.html static
var files embed.FS

// Pages that can be rendered. Each one is parsed together with layout.html.
var Pages = []string{"list", "detail", "form", "confirm", "message"}

// Renderer holds one template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates. now feeds the relative timestamps.
func New(now func() time.Time) (*Renderer, error) {
	if now == nil {
		now = time.Now
	}
	funcs := template.FuncMap{
		"ago":  func(t time.Time) string { return viewmodels.RelativeTime(t, now()) },
		"date": viewmodels.FormatDate,
	}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(Pages))}
	for _, page := range Pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", page, err)
		}
		if r.pages[page], err = clone.ParseFS(files, page+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
	}
	return r, nil
}

// Render executes page into w. The page is rendered into a buffer first so a
// template error never leaves half a document behind.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the stylesheet and other assets.
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
