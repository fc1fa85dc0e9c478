package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/source"
)

func section(t *testing.T, doc, open, close string) string {
	t.Helper()
	start := strings.Index(doc, open)
	require.GreaterOrEqual(t, start, 0, "missing %s", open)
	rest := doc[start+len(open):]
	end := strings.Index(rest, close)
	require.GreaterOrEqual(t, end, 0, "missing %s", close)
	return rest[:end]
}

func TestGenerateScenario(t *testing.T) {
	state := source.State{
		Markup: "<p>hi</p>",
		Style:  "p{color:red}",
		Script: "console.log('x')",
	}

	artifact := Generate(state)
	doc := string(artifact.Content)

	assert.Equal(t, DefaultFilename, artifact.Name)
	assert.True(t, strings.HasPrefix(artifact.ContentType, "text/html"), artifact.ContentType)
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))

	head := section(t, doc, "<head>", "</head>")
	assert.Contains(t, head, "<title>My HTML Page</title>")
	assert.Contains(t, head, `<meta charset="UTF-8" />`)
	assert.Contains(t, head, `<meta name="viewport" content="width=device-width, initial-scale=1.0" />`)

	assert.Contains(t, section(t, doc, "<body>", "</body>"), "<p>hi</p>")
	assert.Contains(t, section(t, doc, "<style>", "</style>"), "p{color:red}")

	script := section(t, doc, "<script>", "</script>")
	assert.Equal(t, "console.log('x')", strings.TrimSpace(script))
	assert.NotContains(t, doc, "postMessage", "export must not carry instrumentation")
	assert.NotContains(t, doc, "window.onerror")
}

func TestGenerateFullDocumentMarkup(t *testing.T) {
	markup := `<!DOCTYPE html>
<html>
<head><title>Portfolio &amp; CV</title><meta name="author" content="me"></head>
<body><h1 class="big">Hello</h1><ul><li>one</li></ul></body>
</html>`

	doc := string(Generate(source.State{Markup: markup}).Content)

	head := section(t, doc, "<head>", "</head>")
	assert.Contains(t, head, "<title>Portfolio &amp; CV</title>")
	assert.NotContains(t, head, "My HTML Page")

	body := section(t, doc, "<body>", "</body>")
	assert.Contains(t, body, `<h1 class="big">Hello</h1><ul><li>one</li></ul>`)
	assert.NotContains(t, body, "<html>")
	assert.NotContains(t, body, "author")
}

func TestGenerateBareFragmentKeptAsIs(t *testing.T) {
	markup := `<section id="a">text</section>`
	doc := string(Generate(source.State{Markup: markup}).Content)

	assert.Contains(t, section(t, doc, "<body>", "</body>"), markup)
}

func TestGenerateDegradesGracefully(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		wantBody string
	}{
		{"empty", "", ""},
		{"title only falls back to raw markup", "<title>Only a title</title>", "<title>Only a title</title>"},
		{"plain text", "just some words", "just some words"},
		{"unclosed tags", "<div><span>open", "<div><span>open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := string(Generate(source.State{Markup: tt.markup}).Content)
			require.NotEmpty(t, doc)
			assert.Contains(t, section(t, doc, "<body>", "</body>"), tt.wantBody)
		})
	}
}

func TestGenerateTitleOnlyMarkupReusesTitle(t *testing.T) {
	doc := string(Generate(source.State{Markup: "<title>Only a title</title>"}).Content)
	head := section(t, doc, "<head>", "</head>")
	assert.Contains(t, head, "<title>Only a title</title>")
}

func TestGenerateOptions(t *testing.T) {
	g := NewGenerator(WithFilename("site.html"), WithDefaultTitle("Demo <1>"))
	artifact := g.Generate(source.State{Markup: "<p>x</p>"})

	assert.Equal(t, "site.html", artifact.Name)
	assert.Contains(t, string(artifact.Content), "<title>Demo &lt;1&gt;</title>")
}

func TestExportDiffersFromLivePreview(t *testing.T) {
	state := source.State{Markup: "<p>a</p>", Style: "p{}", Script: "console.log(1)"}

	run := preview.ComposeWithScript(state, state.Script)
	exported := string(Generate(state).Content)

	assert.Contains(t, run, "postMessage")
	assert.NotContains(t, exported, "postMessage")
}
