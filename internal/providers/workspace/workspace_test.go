package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/GriffinCanCode/playground/internal/domain/playground"
	"github.com/GriffinCanCode/playground/internal/domain/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeEditor struct {
	mu    sync.Mutex
	state source.State
	edits []source.Kind
	runs  int
}

func (f *fakeEditor) State() source.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeEditor) Edit(kind source.Kind, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = f.state.With(kind, text)
	f.edits = append(f.edits, kind)
	return nil
}

func (f *fakeEditor) Run() *playground.Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return nil
}

func (f *fakeEditor) snapshot() ([]source.Kind, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]source.Kind(nil), f.edits...), f.runs
}

func TestWriteAndLoad(t *testing.T) {
	ws := New(filepath.Join(t.TempDir(), "project"))
	state := source.State{Markup: "<p>x</p>", Style: "p{}", Script: "console.log(1)"}

	require.NoError(t, ws.Write(state))
	for _, name := range []string{"index.html", "style.css", "script.js"} {
		assert.FileExists(t, filepath.Join(ws.Dir(), name))
	}

	loaded, err := ws.Load(source.State{})
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestLoadOverlaysPresentFiles(t *testing.T) {
	ws := New(t.TempDir())
	require.NoError(t, os.WriteFile(ws.Path(source.Style), []byte("b{}"), 0o644))

	base := source.State{Markup: "<b>base</b>", Style: "base{}", Script: "base()"}
	loaded, err := ws.Load(base)
	require.NoError(t, err)
	assert.Equal(t, source.State{Markup: "<b>base</b>", Style: "b{}", Script: "base()"}, loaded)
}

func TestWriteMissingKeepsExistingFiles(t *testing.T) {
	ws := New(t.TempDir())
	require.NoError(t, os.WriteFile(ws.Path(source.Markup), []byte("<i>mine</i>"), 0o644))

	require.NoError(t, ws.WriteMissing(source.State{Markup: "<i>seed</i>", Style: "i{}", Script: ""}))

	loaded, err := ws.Load(source.State{})
	require.NoError(t, err)
	assert.Equal(t, "<i>mine</i>", loaded.Markup)
	assert.Equal(t, "i{}", loaded.Style)
}

func TestKindOf(t *testing.T) {
	dir := t.TempDir()
	ws := New(dir)

	tests := []struct {
		path string
		want source.Kind
		ok   bool
	}{
		{filepath.Join(dir, "index.html"), source.Markup, true},
		{filepath.Join(dir, "style.css"), source.Style, true},
		{filepath.Join(dir, "script.js"), source.Script, true},
		{filepath.Join(dir, "notes.txt"), "", false},
		{filepath.Join(dir, "nested", "script.js"), "", false},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			kind, ok := ws.KindOf(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestWatcherSyncsFiles(t *testing.T) {
	ws := New(t.TempDir())
	editor := &fakeEditor{}
	require.NoError(t, ws.Write(editor.State()))

	w, err := NewWatcher(ws, editor, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(ws.Path(source.Markup), []byte("<h1>disk</h1>"), 0o644))
	require.Eventually(t, func() bool {
		return editor.State().Markup == "<h1>disk</h1>"
	}, 2*time.Second, 5*time.Millisecond)

	_, runs := editor.snapshot()
	assert.Equal(t, 0, runs, "markup saves do not run the script")

	require.NoError(t, os.WriteFile(ws.Path(source.Script), []byte("console.log('disk')"), 0o644))
	require.Eventually(t, func() bool {
		_, runs := editor.snapshot()
		return runs == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "console.log('disk')", editor.State().Script)

	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "notes.txt"), []byte("ignored"), 0o644))

	stats := w.Stats()
	assert.Equal(t, 2, stats.Synced)
	assert.Equal(t, 1, stats.Runs)
	assert.Equal(t, source.Script, stats.LastKind)
}

func TestWatcherRerunsUnchangedScript(t *testing.T) {
	ws := New(t.TempDir())
	editor := &fakeEditor{state: source.State{Script: "same()"}}
	require.NoError(t, ws.Write(editor.State()))

	w, err := NewWatcher(ws, editor, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(ws.Path(source.Script), []byte("same()"), 0o644))
	require.Eventually(t, func() bool {
		_, runs := editor.snapshot()
		return runs == 1
	}, 2*time.Second, 5*time.Millisecond)

	edits, _ := editor.snapshot()
	assert.Empty(t, edits)
}

func TestWatcherMissingDirectory(t *testing.T) {
	ws := New(filepath.Join(t.TempDir(), "absent"))
	w, err := NewWatcher(ws, &fakeEditor{})
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.Start(context.Background()))
}
