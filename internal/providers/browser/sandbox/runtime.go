package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"

	"github.com/GriffinCanCode/playground/internal/domain/bridge"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// Runtime is a single-use page environment. Each composed document gets a
// fresh Runtime so no globals leak from one run into the next.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	spent  bool
	closed bool

	// per-execution state, only touched from the executing goroutine
	timers    *timerQueue
	console   []LogEntry
	listeners map[string][]goja.Callable
	proxies   map[*Element]*goja.Object
	dom       *DOM
	post      PostFunc
	instance  id.SandboxID
	result    *Result

	// listeners registered through element proxies
	elementListeners map[*Element]map[string][]goja.Callable
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	vm := goja.New()
	if config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}

	r := &Runtime{
		vm:        vm,
		config:    config,
		timers:    newTimerQueue(),
		listeners: make(map[string][]goja.Callable),
		proxies:   make(map[*Element]*goja.Object),
	}

	if err := r.setupGlobals(); err != nil {
		return nil, fmt.Errorf("failed to set up globals: %w", err)
	}

	return r, nil
}

// Execute loads document into the runtime: inline scripts run in document
// order, then DOMContentLoaded and load listeners, then pending timers.
// Messages posted to window.parent are delivered to post tagged with
// instance. A runtime executes at most one document.
func (r *Runtime) Execute(ctx context.Context, instance id.SandboxID, document string, post PostFunc) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRuntimeClosed
	}
	if r.spent {
		return nil, ErrRuntimeSpent
	}
	r.spent = true

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	start := time.Now()
	r.post = post
	r.instance = instance
	r.result = &Result{Instance: instance}

	if r.config.EnableDOM {
		if err := r.injectDOM(NewDOMFromDocument(doc)); err != nil {
			return nil, fmt.Errorf("failed to inject DOM: %w", err)
		}
	}

	// Setup interrupt handler
	done := make(chan struct{})
	defer close(done)
	vm := r.vm
	go func() {
		var timeout <-chan time.Time
		if r.config.Timeout > 0 {
			t := time.NewTimer(r.config.Timeout)
			defer t.Stop()
			timeout = t.C
		}
		select {
		case <-timeout:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	r.run(scripts(doc))

	r.result.Duration = time.Since(start)
	r.result.Console = append([]LogEntry{}, r.console...)
	if r.dom != nil {
		r.result.DOMChanges = r.dom.GetChanges()
	}

	return r.result, nil
}

func (r *Runtime) run(sources []string) {
	for _, src := range sources {
		r.result.Scripts++
		if !r.runScript(src) {
			return
		}
	}

	if !r.dispatch("DOMContentLoaded") || !r.dispatch("load") {
		return
	}

	for r.result.Timers < r.config.MaxTimerTasks || r.config.MaxTimerTasks <= 0 {
		t, ok := r.timers.next()
		if !ok {
			return
		}
		r.result.Timers++
		_, err := t.fn(goja.Undefined(), t.args...)
		if !r.handle(err) {
			return
		}
	}
}

// runScript compiles and runs one script element. A script that fails to
// compile does not run at all, matching how a page treats a broken script.
func (r *Runtime) runScript(src string) bool {
	prg, err := goja.Compile(r.config.Origin, src, false)
	if err != nil {
		r.result.Uncaught++
		r.callOnError("Uncaught SyntaxError: "+err.Error(), 0, 0, goja.Undefined())
		return true
	}
	_, err = r.vm.RunProgram(prg)
	return r.handle(err)
}

// handle reports err and returns false when execution must stop
func (r *Runtime) handle(err error) bool {
	if err == nil {
		return true
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		r.result.Interrupted = true
		return false
	}

	// goja unwinds a stack overflow past every catch block; the page sees
	// the RangeError a browser raises
	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		r.reportOverflow(overflow)
		return true
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		r.reportUncaught(ex)
		return true
	}

	r.result.Uncaught++
	r.callOnError("Uncaught "+err.Error(), 0, 0, goja.Undefined())
	return true
}

// reportUncaught routes an exception that escaped page code to
// window.onerror the way a browser does
func (r *Runtime) reportUncaught(ex *goja.Exception) {
	r.result.Uncaught++

	val := ex.Value()
	msg := "Uncaught"
	if val != nil {
		msg += " " + val.String()
	} else {
		val = goja.Undefined()
	}

	line, col := position(ex.Stack())
	r.callOnError(msg, line, col, val)
}

// reportOverflow reports a call stack overflow with a RangeError value
func (r *Runtime) reportOverflow(overflow *goja.StackOverflowError) {
	r.result.Uncaught++

	const message = "Maximum call stack size exceeded"
	var val goja.Value = goja.Undefined()
	if ctor, ok := goja.AssertConstructor(r.vm.Get("RangeError")); ok {
		if obj, err := ctor(nil, r.vm.ToValue(message)); err == nil {
			val = obj
		}
	}

	line, col := position(overflow.Stack())
	r.callOnError("Uncaught RangeError: "+message, line, col, val)
}

// position returns the innermost script position of a stack trace
func position(stack []goja.StackFrame) (line, col int) {
	for _, frame := range stack {
		pos := frame.Position()
		if pos.Line > 0 {
			return pos.Line, pos.Column
		}
	}
	return 0, 0
}

func (r *Runtime) callOnError(msg string, line, col int, val goja.Value) {
	fn, ok := goja.AssertFunction(r.vm.GlobalObject().Get("onerror"))
	if !ok {
		return
	}
	// errors thrown by the handler itself are not reported again
	_, _ = fn(r.vm.GlobalObject(),
		r.vm.ToValue(msg),
		r.vm.ToValue(r.config.Origin),
		r.vm.ToValue(line),
		r.vm.ToValue(col),
		val,
	)
}

// dispatch runs the listeners registered for a lifecycle event
func (r *Runtime) dispatch(event string) bool {
	handlers := append([]goja.Callable{}, r.listeners[event]...)
	if fn, ok := goja.AssertFunction(r.vm.GlobalObject().Get("on" + strings.ToLower(event))); ok {
		handlers = append(handlers, fn)
	}

	for _, fn := range handlers {
		evt := r.vm.NewObject()
		_ = evt.Set("type", event)
		_, err := fn(r.vm.GlobalObject(), evt)
		if !r.handle(err) {
			return false
		}
	}
	return true
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	global := r.vm.GlobalObject()

	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	for _, name := range []string{"window", "self", "globalThis", "top"} {
		if err := global.Set(name, global); err != nil {
			return err
		}
	}

	parent := r.vm.NewObject()
	if err := parent.Set("postMessage", r.postMessage); err != nil {
		return err
	}
	if err := global.Set("parent", parent); err != nil {
		return err
	}

	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
			return err
		}
	}
	if err := r.vm.Set("console", console); err != nil {
		return err
	}

	globals := map[string]any{
		"setTimeout":       r.makeTimerFunc(false),
		"setInterval":      r.makeTimerFunc(true),
		"clearTimeout":     r.clearTimer,
		"clearInterval":    r.clearTimer,
		"addEventListener": r.addListener,
		"location":         map[string]any{"href": r.config.Origin},
	}
	for name, value := range globals {
		if err := r.vm.Set(name, value); err != nil {
			return err
		}
	}

	return nil
}

// postMessage delivers window.parent.postMessage payloads to the host
func (r *Runtime) postMessage(call goja.FunctionCall) goja.Value {
	if r.post == nil {
		return goja.Undefined()
	}

	var msg bridge.Message
	data := call.Argument(0)
	if obj, ok := data.(*goja.Object); ok {
		msg.Type = stringProp(obj, "type")
		msg.Message = stringProp(obj, "message")
	} else if !goja.IsUndefined(data) && !goja.IsNull(data) {
		msg.Message = data.String()
	}
	msg.Instance = r.instance

	r.result.Posted++
	r.post(msg)
	return goja.Undefined()
}

func stringProp(obj *goja.Object, name string) string {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})

		return goja.Undefined()
	}
}

func (r *Runtime) makeTimerFunc(repeat bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			code := call.Argument(0).String()
			fn = func(goja.Value, ...goja.Value) (goja.Value, error) {
				return r.vm.RunString(code)
			}
		}

		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}

		delay := call.Argument(1).ToInteger()
		return r.vm.ToValue(r.timers.schedule(fn, delay, repeat, args))
	}
}

func (r *Runtime) clearTimer(call goja.FunctionCall) goja.Value {
	r.timers.cancel(call.Argument(0).ToInteger())
	return goja.Undefined()
}

func (r *Runtime) addListener(call goja.FunctionCall) goja.Value {
	if fn, ok := goja.AssertFunction(call.Argument(1)); ok {
		event := call.Argument(0).String()
		r.listeners[event] = append(r.listeners[event], fn)
	}
	return goja.Undefined()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.vm = nil
	r.console = nil
	r.timers = nil
	r.listeners = nil
	r.proxies = nil
	r.elementListeners = nil
	r.dom = nil
	return nil
}

// scripts returns the inline script sources of doc in document order.
// External and non-JavaScript scripts are skipped.
func scripts(doc *goquery.Document) []string {
	var sources []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		if typ, ok := s.Attr("type"); ok && !isScriptType(typ) {
			return
		}
		sources = append(sources, s.Text())
	})
	return sources
}

func isScriptType(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	default:
		return false
	}
}
