// Package export builds the standalone, downloadable version of a project.
//
// Unlike the live preview, an export carries no instrumentation: the script
// runs exactly as authored. The markup fragment may be a bare fragment or a
// full document; for a full document only the body content is kept and its
// <title> element, if any, moves into the generated head.
package export

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

const (
	// DefaultFilename is the download name of an exported project
	DefaultFilename = "project.html"

	// DefaultTitle is used when the markup carries no <title>
	DefaultTitle = "My HTML Page"
)

var page = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    {{.Title}}
    <style>
        {{.Style}}
    </style>
</head>
<body>
    {{.Body}}
    <script>
        {{.Script}}
    </script>
</body>
</html>`))

// Artifact is one generated export. It has no identity beyond the request
// that produced it.
type Artifact struct {
	Name        string
	Content     []byte
	ContentType string
}

// Generator renders exports
type Generator struct {
	filename     string
	defaultTitle string
}

// Option configures a Generator
type Option func(*Generator)

// WithFilename overrides the download file name
func WithFilename(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.filename = name
		}
	}
}

// WithDefaultTitle overrides the title used when the markup has none
func WithDefaultTitle(title string) Option {
	return func(g *Generator) {
		if title != "" {
			g.defaultTitle = title
		}
	}
}

// NewGenerator creates a generator with the default file name and title
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		filename:     DefaultFilename,
		defaultTitle: DefaultTitle,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders state into a standalone document. It never fails: markup
// that cannot be parsed is embedded as-is under the default title.
func (g *Generator) Generate(state source.State) Artifact {
	parts := g.extract(state.Markup)

	var buf bytes.Buffer
	// template fields are plain strings; Execute can only fail on writer errors
	_ = page.Execute(&buf, struct {
		Title, Style, Body, Script string
	}{
		Title:  parts.title,
		Style:  state.Style,
		Body:   parts.body,
		Script: state.Script,
	})

	content := bytes.TrimSpace(buf.Bytes())
	return Artifact{
		Name:        g.filename,
		Content:     content,
		ContentType: mimetype.Detect(content).String(),
	}
}

// Generate renders state with the default generator settings
func Generate(state source.State) Artifact {
	return NewGenerator().Generate(state)
}

type markupParts struct {
	title string
	body  string
}

func (g *Generator) extract(markup string) markupParts {
	parts := markupParts{
		title: "<title>" + template.HTMLEscapeString(g.defaultTitle) + "</title>",
		body:  markup,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return parts
	}

	if title := doc.Find("title").First(); title.Length() > 0 {
		if outer, err := goquery.OuterHtml(title); err == nil {
			parts.title = outer
		}
	}

	if inner, err := doc.Find("body").First().Html(); err == nil && inner != "" {
		parts.body = inner
	}

	return parts
}
