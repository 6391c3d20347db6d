// Package core provides the internal implementation of standin's mock engine:
// function identity resolution, behavior registration, the execution ledger,
// and the invocation dispatcher that ties them together.
package core

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// funcKey identifies one declared function for the lifetime of the process.
// It is the function's entry PC as reported by reflect, which is stable across
// repeated references to the same declaration. Method values share one
// compiler wrapper per declared method, so they resolve consistently too.
//
// Known limitation: distinct closures produced by the same function literal
// share an entry point and therefore share an identity.
type funcKey uintptr

// keyOf resolves fn to its identity key. The bool reports whether fn was a
// usable (non-nil) function value.
func keyOf(fn any) (funcKey, bool) {
	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func || val.IsNil() {
		return 0, false
	}

	return funcKey(val.Pointer()), true
}

// FuncName returns the declared name of fn for diagnostics. Method values
// report the compiler's per-method wrapper name (e.g. "pkg.(*T).Get-fm").
func FuncName(fn any) string {
	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func || val.IsNil() {
		return "<not a function>"
	}

	rtFunc := runtime.FuncForPC(val.Pointer())
	if rtFunc == nil {
		return "<unknown function>"
	}

	return rtFunc.Name()
}

// modulePath is matched against stack frame function names to find the first
// frame outside this module. Test packages (suffixed _test) intentionally do
// not match, so diagnostics from this module's own tests still resolve.
const modulePath = "github.com/toejough/standin"

// callSite walks the stack to the first frame outside the engine, so that
// configuration-error diagnostics point at the mocked method's caller even
// when the failing reporter doesn't honor Helper().
func callSite() string {
	var pcs [32]uintptr

	depth := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:depth])

	for {
		frame, more := frames.Next()

		if !isEngineFrame(frame.Function) && frame.File != "" {
			return fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}

		if !more {
			return "unknown call site"
		}
	}
}

// isEngineFrame reports whether the named function belongs to the engine's
// own packages (the root facade or internal/core), as opposed to user code.
func isEngineFrame(function string) bool {
	return strings.HasPrefix(function, modulePath+".") ||
		strings.HasPrefix(function, modulePath+"/internal/core.")
}
