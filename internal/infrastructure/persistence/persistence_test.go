package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

var sample = source.State{
	Markup: "<h1 id=\"t\">Héllo</h1>\n<p>multi\nline</p>",
	Style:  "h1 {\n  color: red;\n}",
	Script: "console.log(\"quotes\", 'single', `tick`)\n// done",
}

// runContract checks the behaviour every backend shares
func runContract(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded, "absent record loads as nil")

	require.NoError(t, backend.Save(ctx, sample))
	loaded, err = backend.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	if diff := cmp.Diff(sample, *loaded); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	updated := sample.With(source.Script, "")
	require.NoError(t, backend.Save(ctx, updated))
	loaded, err = backend.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	if diff := cmp.Diff(updated, *loaded); diff != "" {
		t.Errorf("updated record mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, loaded.Script)
}

func TestBackends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		open func(t *testing.T) Backend
	}{
		{
			name: "json file",
			open: func(t *testing.T) Backend {
				f, err := NewFile(filepath.Join(dir, "state.json"))
				require.NoError(t, err)
				return f
			},
		},
		{
			name: "yaml file",
			open: func(t *testing.T) Backend {
				f, err := NewFile(filepath.Join(dir, "nested", "state.yaml"))
				require.NoError(t, err)
				return f
			},
		},
		{
			name: "toml file",
			open: func(t *testing.T) Backend {
				f, err := NewFile(filepath.Join(dir, "state.toml"))
				require.NoError(t, err)
				return f
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Backend {
				db, err := OpenSQLite(context.Background(), ":memory:", source.StorageKey)
				require.NoError(t, err)
				return db
			},
		},
		{
			name: "redis",
			open: func(t *testing.T) Backend {
				mr := miniredis.RunT(t)
				return NewRedis(mr.Addr(), "", 0, source.StorageKey)
			},
		},
		{
			name: "memory",
			open: func(t *testing.T) Backend { return NewMemory() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := tt.open(t)
			defer backend.Close()
			runContract(t, backend)
		})
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yml")
	first, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), sample))

	second, err := NewFile(path)
	require.NoError(t, err)
	loaded, err := second.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, *loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f, err := NewFile(path)
	require.NoError(t, err)
	_, err = f.Load(context.Background())
	assert.Error(t, err)
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "a.json", want: "json"},
		{path: "a", want: "json"},
		{path: "a.YAML", want: "yaml"},
		{path: "a.yml", want: "yaml"},
		{path: "a.toml", want: "toml"},
		{path: "a.xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			codec, err := CodecFor(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, codec.Name())
		})
	}
}

func TestYAMLUsesCanonicalKeys(t *testing.T) {
	data, err := YAML{}.Marshal(source.State{Markup: "<p>x</p>", Style: "p{}", Script: "a()\nb()"})
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "html:")
	assert.Contains(t, text, "css:")
	assert.Contains(t, text, "javascript: |")
}

func TestSQLiteKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "playground.db")

	a, err := OpenSQLite(ctx, path, "a")
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Save(ctx, sample))

	b, err := OpenSQLite(ctx, path, "b")
	require.NoError(t, err)
	defer b.Close()
	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0, source.StorageKey, WithPrefix("playground:"))
	defer r.Close()

	require.NoError(t, r.Save(context.Background(), sample))
	assert.Equal(t, "playground:code-storage", r.Key())
	assert.True(t, mr.Exists("playground:code-storage"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = Open(ctx, Options{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "s.toml")})
	require.NoError(t, err)
	assert.IsType(t, &File{}, b)

	mr := miniredis.RunT(t)
	b, err = Open(ctx, Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.Equal(t, source.StorageKey, b.(*Redis).Key())
	b.Close()

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}

// flaky fails while down is set
type flaky struct {
	*Memory
	down  bool
	calls int
}

func (f *flaky) Save(ctx context.Context, state source.State) error {
	f.calls++
	if f.down {
		return errors.New("backend unavailable")
	}
	return f.Memory.Save(ctx, state)
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	backend := &flaky{Memory: NewMemory(), down: true}

	var transitions []string
	guard := NewGuard(backend, GuardSettings{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
		OnStateChange: func(from, to BreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	now := time.Now()
	guard.now = func() time.Time { return now }

	assert.Error(t, guard.Save(ctx, sample))
	assert.Equal(t, StateClosed, guard.State())
	assert.Error(t, guard.Save(ctx, sample))
	assert.Equal(t, StateOpen, guard.State())

	// open: calls fail fast without reaching the backend
	assert.ErrorIs(t, guard.Save(ctx, sample), ErrCircuitOpen)
	assert.Equal(t, 2, backend.calls)

	// cooldown elapsed, trial call fails and reopens
	now = now.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, guard.State())
	assert.Error(t, guard.Save(ctx, sample))
	assert.Equal(t, StateOpen, guard.State())
	assert.Equal(t, 3, backend.calls)

	// backend recovers, next trial closes the circuit
	backend.down = false
	now = now.Add(time.Minute)
	require.NoError(t, guard.Save(ctx, sample))
	assert.Equal(t, StateClosed, guard.State())

	loaded, err := guard.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, *loaded)

	assert.Equal(t, []string{
		"closed->open",
		"open->half-open",
		"half-open->open",
		"open->half-open",
		"half-open->closed",
	}, transitions)
}
