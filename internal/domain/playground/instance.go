package playground

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/providers/browser/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// Instance is one composed document and the sandbox that renders it. An
// instance is torn down as soon as a newer document replaces it.
type Instance struct {
	ID       id.SandboxID
	Variant  preview.Variant
	Document string
	Created  time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result *sandbox.Result
}

// Done is closed once the headless sandbox finished with the document and
// its diagnostics reached the console. Without a headless sandbox it is
// closed immediately.
func (i *Instance) Done() <-chan struct{} {
	return i.done
}

// Result returns the headless execution summary, nil until Done
func (i *Instance) Result() *sandbox.Result {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.result
}

func (i *Instance) setResult(r *sandbox.Result) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.result = r
}
