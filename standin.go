// Package standin provides record/replay test doubles for Go.
// A test registers a canned behavior for any function-shaped value, exercises
// the code under test, and then asserts on the recorded invocations — without
// hand-writing per-function bookkeeping.
//
// This is the public API entry point. Implementation lives in internal/core.
package standin

import (
	"github.com/toejough/standin/internal/core"
)

// Execution is an immutable record of one dispatched call: arguments,
// results, outcome, and any absorbed failure.
type Execution = core.Execution

// Matcher defines the interface for flexible value matching.
type Matcher = core.Matcher

// Mock is one test's double: registered behaviors, forced failures, and the
// ledger of every dispatched call.
type Mock = core.Mock

// Outcome classifies what an invocation produced.
type Outcome = core.Outcome

// Outcomes recorded in the execution ledger. A void call is distinguishable
// from an optional call that produced no value.
const (
	OutcomeReturned  = core.OutcomeReturned
	OutcomeNone      = core.OutcomeNone
	OutcomeVoid      = core.OutcomeVoid
	OutcomeDefaulted = core.OutcomeDefaulted
)

// TestReporter is the minimal interface standin needs from test frameworks.
type TestReporter = core.TestReporter

// New creates a new Mock reporting failures through t.
func New(t TestReporter) *Mock {
	return core.NewMock(t)
}

// On registers behavior to run in place of fn when it is dispatched through
// m. The shared type parameter pins behavior to fn's own signature at compile
// time. Re-registration overwrites; the most recent registration wins.
func On[F any](m *Mock, fn F, behavior F) {
	m.Helper()
	m.Register(fn, behavior)
}

// FailWith forces future invocations of fn to fail with err. It is symmetric
// with On: each function can independently be configured to fail, and
// registering a behavior afterwards clears the failure (and vice versa).
func FailWith(m *Mock, fn any, err error) {
	m.Helper()
	m.RegisterFailure(fn, err)
}

// Call dispatches a required-result invocation of fn and returns its single
// result. Calling without a registered behavior is a test-configuration error
// and fails the test immediately; no placeholder value is ever substituted.
func Call[R any](m *Mock, fn any, args ...any) R {
	m.Helper()

	return resultAs[R](m, fn, m.Invoke(fn, args), 0)
}

// CallValues dispatches a required-result invocation of fn and returns all of
// its results untyped. Generated standins use this for multi-result methods
// and downcast each result at the call site.
func CallValues(m *Mock, fn any, args ...any) []any {
	m.Helper()

	return m.Invoke(fn, args)
}

// CallOptional dispatches an optional-result invocation of fn. When no
// behavior is registered, or the registered behavior fails, it returns
// (zero, false) rather than failing the test.
func CallOptional[R any](m *Mock, fn any, args ...any) (R, bool) {
	m.Helper()

	var zero R

	value, ok := m.InvokeOptional(fn, args)
	if !ok {
		return zero, false
	}

	if value == nil {
		return zero, true
	}

	typed, typedOK := value.(R)
	if !typedOK {
		m.Fatalf("result of %s is %T, caller wants %T", core.FuncName(fn), value, zero)

		return zero, false
	}

	return typed, true
}

// CallDefault dispatches a defaulted-result invocation of fn. When no
// behavior is registered, or the registered behavior fails, it returns def
// and records def as the call's result.
func CallDefault[R any](m *Mock, fn any, def R, args ...any) R {
	m.Helper()

	value := m.InvokeDefault(fn, args, def)
	if value == nil {
		var zero R

		return zero
	}

	typed, ok := value.(R)
	if !ok {
		var zero R

		m.Fatalf("result of %s is %T, caller wants %T", core.FuncName(fn), value, zero)

		return zero
	}

	return typed
}

// CallVoid dispatches a void invocation of fn: no behavior lookup occurs, the
// call is recorded, and it succeeds unconditionally.
func CallVoid(m *Mock, fn any, args ...any) {
	m.Helper()
	m.InvokeVoid(fn, args)
}

// ExecutionsOf returns every recorded invocation of fn in call order, for use
// in assertions. A function that was never invoked yields an empty slice.
func ExecutionsOf(m *Mock, fn any) []Execution {
	m.Helper()

	return m.Executions(fn)
}

// FuncName returns the declared name of fn for diagnostics.
func FuncName(fn any) string {
	return core.FuncName(fn)
}

// MatchValue checks if actual matches expected: through expected's Match
// method when it is a Matcher, by deep equality otherwise.
func MatchValue(actual, expected any) (bool, string) {
	return core.MatchValue(actual, expected)
}

// resultAs extracts results[index] as R, treating a recorded nil as R's zero
// value. A result of the wrong dynamic type is a configuration error.
func resultAs[R any](m *Mock, fn any, results []any, index int) R {
	m.Helper()

	var zero R

	if len(results) <= index || results[index] == nil {
		return zero
	}

	typed, ok := results[index].(R)
	if !ok {
		m.Fatalf("result %d of %s is %T, caller wants %T", index, core.FuncName(fn), results[index], zero)

		return zero
	}

	return typed
}
