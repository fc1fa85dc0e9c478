package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedIDs(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		prefix string
	}{
		{"sandbox", NewSandboxID().String(), SandboxPrefix},
		{"connection", NewConnectionID().String(), ConnectionPrefix},
		{"request", NewRequestID().String(), RequestPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.value, tt.prefix+"_"), "got %s", tt.value)
			assert.True(t, Valid(tt.prefix, tt.value))
		})
	}
}

func TestValidRejectsMalformed(t *testing.T) {
	assert.False(t, Valid(SandboxPrefix, ""))
	assert.False(t, Valid(SandboxPrefix, "sbx_"))
	assert.False(t, Valid(SandboxPrefix, "sbx_not-a-ulid"))
	assert.False(t, Valid(SandboxPrefix, NewConnectionID().String()))
}

func TestMonotonicWithinGenerator(t *testing.T) {
	gen := NewGenerator()
	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		require.Equal(t, -1, prev.Compare(next), "ULIDs must increase")
		prev = next
	}
}

func TestConcurrentGenerationUnique(t *testing.T) {
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[SandboxID]bool, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				sid := NewSandboxID()
				mu.Lock()
				seen[sid] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	sid := NewSandboxID()

	ts, err := Timestamp(sid.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("sbx_garbage")
	assert.Error(t, err)
}
