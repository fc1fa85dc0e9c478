package preview

import (
	"strings"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// Variant names the kind of composed document
type Variant string

const (
	VariantLive       Variant = "live"
	VariantRun        Variant = "run"
	VariantStandalone Variant = "standalone"
)

// ComposeLive embeds the stylesheet and the markup, without any script
func ComposeLive(state source.State) string {
	return compose(state.Style, state.Markup, "", false)
}

// ComposeWithScript embeds the instrumented script at the end of the body
func ComposeWithScript(state source.State, script string) string {
	return compose(state.Style, state.Markup, Wrap(script), true)
}

// Standalone embeds the script unmodified. Diagnostics from this document
// are not captured.
func Standalone(state source.State) string {
	return compose(state.Style, state.Markup, state.Script, true)
}

func compose(style, markup, script string, withScript bool) string {
	var b strings.Builder
	b.Grow(len(style) + len(markup) + len(script) + 96)

	b.WriteString("<html><head><style>")
	b.WriteString(style)
	b.WriteString("</style></head><body>")
	b.WriteString(markup)
	if withScript {
		b.WriteString("<script>")
		b.WriteString(script)
		b.WriteString("</script>")
	}
	b.WriteString("</body></html>")

	return b.String()
}
