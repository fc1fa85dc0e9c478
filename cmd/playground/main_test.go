package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func writeWorkspace(t *testing.T, markup, style, script string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(markup), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte(style), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.js"), []byte(script), 0o644))
	return dir
}

func TestRunPrintsConsole(t *testing.T) {
	dir := writeWorkspace(t, "<p>x</p>", "", "console.log('from disk'); console.log(1 + 1)")

	out, err := execute(t, "run", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "from disk\n2\n", out)
}

func TestRunFailOnError(t *testing.T) {
	dir := writeWorkspace(t, "", "", "throw new Error('boom')")

	out, err := execute(t, "run", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Error: boom\n", out)

	_, err = execute(t, "run", "--dir", dir, "--fail-on-error")
	assert.ErrorContains(t, err, "reported 1 error")
}

func TestPreviewVariants(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("html: <p>seed</p>\ncss: p{}\njavascript: console.log('s')\n"), 0o644))

	live, err := execute(t, "preview", "--storage", "memory", "--seed", seed)
	require.NoError(t, err)
	assert.Equal(t, "<html><head><style>p{}</style></head><body><p>seed</p></body></html>\n", live)

	standalone, err := execute(t, "preview", "--storage", "memory", "--seed", seed, "--variant", "standalone")
	require.NoError(t, err)
	assert.Contains(t, standalone, "<script>console.log('s')</script>")

	run, err := execute(t, "preview", "--storage", "memory", "--seed", seed, "--variant", "run")
	require.NoError(t, err)
	assert.Contains(t, run, "postMessage")

	_, err = execute(t, "preview", "--storage", "memory", "--variant", "sideways")
	assert.ErrorContains(t, err, "unknown variant")
}

func TestExport(t *testing.T) {
	dir := writeWorkspace(t, "<title>Demo</title><h1>Hi</h1>", "h1{}", "console.log('x')")

	out, err := execute(t, "export", "--storage", "memory", "--dir", dir, "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Demo</title>")
	assert.Contains(t, out, "console.log('x')")

	target := filepath.Join(t.TempDir(), "out.html")
	out, err = execute(t, "export", "--storage", "memory", "--dir", dir, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Hi</h1>")
}

func TestResetRestoresSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("html: <p>seed</p>\ncss: \"\"\njavascript: \"\"\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`{"html":"<p>edited</p>","css":"","javascript":""}`), 0o644))

	flags := []string{"--storage", "file", "--storage-path", path, "--seed", seed}

	out, err := execute(t, append([]string{"preview"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>edited</p>")

	out, err = execute(t, append([]string{"reset"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "restored in file storage")

	out, err = execute(t, append([]string{"preview"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>seed</p>")
}

func TestUnknownStorageBackend(t *testing.T) {
	_, err := execute(t, "preview", "--storage", "s3")
	assert.Error(t, err)
}
