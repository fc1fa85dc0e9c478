package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

func TestComposeLive(t *testing.T) {
	tests := []struct {
		name  string
		state source.State
		want  string
	}{
		{
			name:  "all fragments",
			state: source.State{Markup: "<h1>Hi</h1>", Style: "h1{color:red}", Script: "console.log(1)"},
			want:  "<html><head><style>h1{color:red}</style></head><body><h1>Hi</h1></body></html>",
		},
		{
			name:  "empty state",
			state: source.State{},
			want:  "<html><head><style></style></head><body></body></html>",
		},
		{
			name:  "markup is not escaped",
			state: source.State{Markup: "<p>a & b</p><div>"},
			want:  "<html><head><style></style></head><body><p>a & b</p><div></body></html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeLive(tt.state))
		})
	}
}

func TestComposeLiveNeverContainsScript(t *testing.T) {
	state := source.State{Markup: "<p>x</p>", Style: "p{}", Script: "alert('no')"}
	doc := ComposeLive(state)
	assert.NotContains(t, doc, "<script>")
	assert.NotContains(t, doc, "alert")
}

func TestComposeWithScript(t *testing.T) {
	state := source.State{Markup: "<p>x</p>", Style: "p{}", Script: "ignored"}
	doc := ComposeWithScript(state, "console.log('x')")

	assert.True(t, strings.HasPrefix(doc, "<html><head><style>p{}</style></head><body><p>x</p><script>"))
	assert.True(t, strings.HasSuffix(doc, "</script></body></html>"))
	assert.Contains(t, doc, Wrap("console.log('x')"))
	assert.NotContains(t, doc, "ignored")
}

func TestComposeWithEmptyScript(t *testing.T) {
	doc := ComposeWithScript(source.State{}, "")
	assert.Contains(t, doc, "<script>"+Wrap("")+"</script>")
}

func TestStandalone(t *testing.T) {
	state := source.State{Markup: "<p>x</p>", Style: "p{}", Script: "console.log('raw')"}
	assert.Equal(t,
		"<html><head><style>p{}</style></head><body><p>x</p><script>console.log('raw')</script></body></html>",
		Standalone(state))
}

func TestComposeIsPure(t *testing.T) {
	state := source.State{Markup: "<b>1</b>", Style: "b{}", Script: "x()"}
	assert.Equal(t, ComposeLive(state), ComposeLive(state))
	assert.Equal(t, ComposeWithScript(state, state.Script), ComposeWithScript(state, state.Script))
}
