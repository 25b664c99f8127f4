// Package jsengine provides the JavaScript host for backoffice hook scripts.
package jsengine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/backoffice-runner/pkg/backoffice"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// DefaultHTTPTimeout applies to script http calls without a timeout option.
const DefaultHTTPTimeout = 30 * time.Second

// Options configure an Engine.
type Options struct {
	// Backoffice serves backoffice.login. Without it login throws.
	Backoffice *backoffice.Client

	// HTTPClient is used by the http builtin. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Engine wraps a goja runtime with the script builtins.
type Engine struct {
	runtime    *goja.Runtime
	output     map[string]interface{}
	backoffice *backoffice.Client
	httpClient *http.Client
	ctx        context.Context
	mu         sync.Mutex
}

// New creates a new JS engine instance
func New(opts Options) *Engine {
	e := &Engine{
		runtime:    goja.New(),
		output:     make(map[string]interface{}),
		backoffice: opts.Backoffice,
		httpClient: opts.HTTPClient,
		ctx:        context.Background(),
	}
	if e.httpClient == nil {
		e.httpClient = http.DefaultClient
	}

	e.setupBuiltins()
	return e
}

// setupBuiltins registers all built-in functions and objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()

	e.runtime.Set("json", e.jsonFunc())
	e.runtime.Set("http", e.httpModule())

	// Values stored here are read back by the caller after the run
	e.runtime.Set("output", e.output)

	e.runtime.Set("backoffice", e.backofficeObject())
}

// setupConsole routes console.log/warn/error to the process logger.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(log func(format string, v ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = fmt.Sprint(arg.Export())
			}
			log("%s", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Info))
	console.Set("info", makeConsoleFunc(logger.Info))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	console.Set("error", makeConsoleFunc(logger.Error))
	e.runtime.Set("console", console)
}

// jsonFunc returns the json() helper function
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}

		str := call.Arguments[0].String()

		jsonObj := e.runtime.Get("JSON").ToObject(e.runtime)
		parse, ok := goja.AssertFunction(jsonObj.Get("parse"))
		if !ok {
			panic(e.runtime.NewTypeError("JSON.parse unavailable"))
		}
		result, err := parse(jsonObj, e.runtime.ToValue(str))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}

		return result
	}
}

// backofficeObject exposes URL building and login to scripts.
func (e *Engine) backofficeObject() *goja.Object {
	obj := e.runtime.NewObject()

	// backoffice.baseUrl(tenant, [tier])
	obj.Set("baseUrl", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("backoffice.baseUrl requires tenant"))
		}
		tier := ""
		if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) {
			tier = call.Arguments[1].String()
		}
		return e.runtime.ToValue(backoffice.BaseURL(call.Arguments[0].String(), tier))
	})

	// backoffice.login(baseUrl, email, password) returns the Cookie header value
	obj.Set("login", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 3 {
			panic(e.runtime.NewTypeError("backoffice.login requires baseUrl, email and password"))
		}
		if e.backoffice == nil {
			panic(e.runtime.NewGoError(fmt.Errorf("backoffice client not configured")))
		}
		session, err := e.backoffice.Login(e.ctx,
			backoffice.NormalizeBaseURL(call.Arguments[0].String()),
			call.Arguments[1].String(),
			call.Arguments[2].String())
		if err != nil {
			panic(e.runtime.NewGoError(err))
		}
		return e.runtime.ToValue(session.Cookie())
	})

	return obj
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runtime.Set(name, value)
}

// GetOutput returns a copy of the output object (values set by scripts)
func (e *Engine) GetOutput() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	outputVal := e.runtime.Get("output")
	var source map[string]interface{}

	if outputVal != nil && !goja.IsUndefined(outputVal) {
		if m, ok := outputVal.Export().(map[string]interface{}); ok {
			source = m
		}
	}

	if source == nil {
		source = e.output
	}

	result := make(map[string]interface{}, len(source))
	for k, v := range source {
		result[k] = v
	}
	return result
}

// RunScript runs a script to completion. Cancelling ctx interrupts it,
// including any builtin request in flight.
func (e *Engine) RunScript(ctx context.Context, script string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ctx = ctx
	defer func() { e.ctx = context.Background() }()

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			e.runtime.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err := e.runtime.RunString(script)
	close(done)
	<-stopped
	e.runtime.ClearInterrupt()
	if err != nil {
		return fmt.Errorf("JS runtime error: %w", err)
	}

	return nil
}

// DefineUndefinedIfMissing defines a variable as undefined if it's not already defined.
// This prevents ReferenceError when scripts reference variables that may not exist.
func (e *Engine) DefineUndefinedIfMissing(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if val := e.runtime.Get(name); val == nil || goja.IsUndefined(val) {
		e.runtime.Set(name, goja.Undefined())
	}
}
