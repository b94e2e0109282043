package scripted

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// ErrFunctionMissing reports a wallet script without the requested export.
var ErrFunctionMissing = errors.New("script export missing")

// Instance is an isolated Goja VM hosting one wallet script. All script
// execution is serialized onto a dedicated goroutine because goja runtimes
// are not safe for concurrent use.
type Instance struct {
	rt     *goja.Runtime
	export *goja.Object
	queue  chan func(*goja.Runtime)
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewInstance compiles the script and spins up its execution goroutine. The
// script exposes its wallet functions via module.exports.
func NewInstance(name, source string) (*Instance, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("wallet script: source required")
	}
	program, err := goja.Compile(name, source, true)
	if err != nil {
		return nil, fmt.Errorf("wallet script: compile %s: %w", name, err)
	}

	rt := goja.New()
	export, err := runModule(rt, program)
	if err != nil {
		return nil, fmt.Errorf("wallet script: execute %s: %w", name, err)
	}

	instance := &Instance{
		rt:     rt,
		export: export,
		queue:  make(chan func(*goja.Runtime)),
	}
	instance.wg.Add(1)
	go instance.loop()
	return instance, nil
}

// runModule evaluates the program with CommonJS-style module/exports globals
// and returns the exported object.
func runModule(rt *goja.Runtime, program *goja.Program) (*goja.Object, error) {
	exports := rt.NewObject()
	module := rt.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	if err := rt.Set("module", module); err != nil {
		return nil, err
	}
	if err := rt.Set("exports", exports); err != nil {
		return nil, err
	}
	if _, err := rt.RunProgram(program); err != nil {
		return nil, err
	}
	value := module.Get("exports")
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, errors.New("module.exports is empty")
	}
	return value.ToObject(rt), nil
}

func (i *Instance) loop() {
	defer i.wg.Done()
	for cb := range i.queue {
		cb(i.rt)
	}
}

type result struct {
	value goja.Value
	err   error
}

// Execute runs the provided function on the instance goroutine.
func (i *Instance) Execute(fn func(rt *goja.Runtime, exports *goja.Object) (goja.Value, error)) (goja.Value, error) {
	if i == nil {
		return nil, errors.New("wallet script: nil instance")
	}

	wait := make(chan result, 1)

	i.mu.RLock()
	if i.closed {
		i.mu.RUnlock()
		return nil, errors.New("wallet script: instance closed")
	}
	i.queue <- func(rt *goja.Runtime) {
		defer func() {
			if rec := recover(); rec != nil {
				wait <- result{err: fmt.Errorf("wallet script: %v", rec)}
			}
		}()
		val, err := fn(rt, i.export)
		wait <- result{value: val, err: err}
	}
	i.mu.RUnlock()

	outcome := <-wait
	return outcome.value, outcome.err
}

// Has reports whether the script exports a callable with the given name.
func (i *Instance) Has(function string) bool {
	value, err := i.Execute(func(_ *goja.Runtime, exports *goja.Object) (goja.Value, error) {
		return exports.Get(function), nil
	})
	if err != nil || value == nil {
		return false
	}
	_, ok := goja.AssertFunction(value)
	return ok
}

// Call invokes the named export with the provided arguments.
func (i *Instance) Call(function string, args ...any) (goja.Value, error) {
	fn := strings.TrimSpace(function)
	if fn == "" {
		return nil, errors.New("wallet script: function name required")
	}

	return i.Execute(func(rt *goja.Runtime, exports *goja.Object) (goja.Value, error) {
		value := exports.Get(fn)
		if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
			return nil, fmt.Errorf("%w: %s", ErrFunctionMissing, fn)
		}
		callable, ok := goja.AssertFunction(value)
		if !ok {
			return nil, fmt.Errorf("wallet script: export %q not callable", fn)
		}
		params := make([]goja.Value, len(args))
		for idx, arg := range args {
			params[idx] = rt.ToValue(arg)
		}
		return callable(goja.Undefined(), params...)
	})
}

// Close stops the instance goroutine.
func (i *Instance) Close() {
	if i == nil {
		return
	}
	i.once.Do(func() {
		i.mu.Lock()
		i.closed = true
		close(i.queue)
		i.mu.Unlock()
		i.wg.Wait()
	})
}
