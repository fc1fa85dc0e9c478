package console

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendPreservesOrder(t *testing.T) {
	b := NewBuffer(0)
	b.Append(Event{Message: "before"})
	b.Append(Event{Message: "e1"})
	b.Append(Event{Message: "e2"})

	assert.True(t, strings.HasSuffix(b.Render(), "e1\ne2"))
	assert.Equal(t, "before\ne1\ne2", b.Render())
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	b := NewBuffer(0)
	b.Append(Event{Message: "same"})
	b.Append(Event{Message: "same"})

	assert.Equal(t, []string{"same", "same"}, b.Lines())
}

func TestClearEmptiesRender(t *testing.T) {
	tests := []struct {
		name    string
		history []string
	}{
		{"empty", nil},
		{"one line", []string{"x"}},
		{"many lines", []string{"a", "b", "Error: boom"}},
		{"blank lines", []string{"", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(0)
			for _, line := range tt.history {
				b.Append(Event{Message: line})
			}
			b.Clear()
			assert.Equal(t, "", b.Render())
			assert.Zero(t, b.Len())
		})
	}
}

func TestMultilineMessagesRenderVerbatim(t *testing.T) {
	b := NewBuffer(0)
	b.Append(Event{Message: "line1\nline2"})
	b.Append(Event{Message: "next"})

	assert.Equal(t, "line1\nline2\nnext", b.Render())
	assert.Equal(t, 2, b.Len())
}

func TestLineLimitEvictsOldest(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Append(Event{Message: fmt.Sprintf("%d", i)})
	}

	assert.Equal(t, "2\n3\n4", b.Render())
	assert.Equal(t, 2, b.Evicted())

	b.Clear()
	assert.Zero(t, b.Evicted())
}

func TestVersionAdvances(t *testing.T) {
	b := NewBuffer(0)
	v0 := b.Version()
	b.Append(Event{Message: "x"})
	v1 := b.Version()
	b.Clear()

	assert.Greater(t, v1, v0)
	assert.Greater(t, b.Version(), v1)
}

func TestLineLimitWrapsAround(t *testing.T) {
	b := NewBuffer(4)
	for i := 0; i < 11; i++ {
		b.Append(Event{Message: fmt.Sprintf("%d", i)})
	}

	assert.Equal(t, []string{"7", "8", "9", "10"}, b.Lines())
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 7, b.Evicted())

	b.Clear()
	b.Append(Event{Message: "fresh"})
	b.Append(Event{Message: "again"})
	assert.Equal(t, "fresh\nagain", b.Render())
}

func TestLinesIsACopy(t *testing.T) {
	b := NewBuffer(2)
	b.Append(Event{Message: "a"})
	b.Append(Event{Message: "b"})

	lines := b.Lines()
	lines[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, b.Lines())
}

func BenchmarkAppendAtLimit(b *testing.B) {
	buf := NewBuffer(DefaultMaxLines)
	for i := 0; i < DefaultMaxLines; i++ {
		buf.Append(Event{Message: "warmup"})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Append(Event{Message: "line"})
	}
}
