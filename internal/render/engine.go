// Package render turns custom pages and status messages into HTML documents.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"aetheria-site/internal/model"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageTemplate    = "page.html"
	notFoundTmpl    = "not_found.html"
	previewTemplate = "preview_status.html"
)

// Engine renders the public HTML views. Page bodies are admin-authored HTML and are
// sanitised before they reach the template.
type Engine struct {
	templates map[string]*template.Template
	policy    *bluemonday.Policy
}

// NewEngine parses the embedded templates, each page template on top of the shared layout.
func NewEngine() (*Engine, error) {
	cache := map[string]*template.Template{}
	for _, name := range []string{pageTemplate, notFoundTmpl, previewTemplate} {
		ts, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("error parsing template %s: %w", name, err)
		}
		cache[name] = ts
	}
	return &Engine{templates: cache, policy: newPageHTMLPolicy()}, nil
}

func newPageHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "div")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Sanitize strips scripts, event handlers and other unsafe markup from admin-authored HTML.
func (e *Engine) Sanitize(html string) template.HTML {
	return template.HTML(e.policy.Sanitize(html))
}

type pageData struct {
	Nav  []model.CustomPage
	Page model.CustomPage
	Body template.HTML
}

type notFoundData struct {
	Nav  []model.CustomPage
	Slug string
}

type statusData struct {
	Nav     []model.CustomPage
	Message string
}

// Page renders a custom page with the navigation bar listing nav.
func (e *Engine) Page(w io.Writer, page model.CustomPage, nav []model.CustomPage) error {
	return e.execute(w, pageTemplate, pageData{Nav: nav, Page: page, Body: e.Sanitize(page.ContentHTML)})
}

// NotFound renders the page shown for an unknown slug, with a link back home.
func (e *Engine) NotFound(w io.Writer, slug string, nav []model.CustomPage) error {
	return e.execute(w, notFoundTmpl, notFoundData{Nav: nav, Slug: slug})
}

// PreviewStatus renders a preview message page, used when there is no preview to show.
func (e *Engine) PreviewStatus(w io.Writer, message string) error {
	return e.execute(w, previewTemplate, statusData{Message: message})
}

// execute buffers the output. w is untouched when the template fails.
func (e *Engine) execute(w io.Writer, name string, data any) error {
	ts, ok := e.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := ts.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
