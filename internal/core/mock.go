package core

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// TestReporter is the minimal interface standin needs from test frameworks.
type TestReporter interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Sentinel errors for behavior execution failures. Optional and defaulted
// calls absorb these into the execution record; required calls report them
// through the TestReporter.
var (
	errArgCount      = errors.New("argument count mismatch")
	errArgType       = errors.New("argument type mismatch")
	errBehaviorPanic = errors.New("behavior panicked")
)

// Mock is one test's double: it holds registered behaviors, forced failures,
// and the ledger of every dispatched call. Create one with NewMock; a Mock is
// meant to be confined to a single test, though its state is mutex-guarded so
// goroutines spawned by that test may share it.
type Mock struct {
	t TestReporter

	mu       sync.Mutex // Protects registry and ledger
	registry *resultRegistry
	ledger   *executionLedger
}

// NewMock creates a new Mock reporting failures through t.
func NewMock(t TestReporter) *Mock {
	return &Mock{
		t:        t,
		registry: newResultRegistry(),
		ledger:   newExecutionLedger(),
	}
}

// Fatalf fails the test with a formatted message.
// Implements TestReporter interface.
func (m *Mock) Fatalf(format string, args ...any) {
	m.t.Fatalf(format, args...)
}

// Helper marks the calling function as a test helper.
// Implements TestReporter interface.
func (m *Mock) Helper() {
	m.t.Helper()
}

// Register stores behavior to run in place of fn, replacing any prior
// behavior or forced failure for the same function. Registration may happen
// at any time; it only affects future invocations.
func (m *Mock) Register(fn, behavior any) {
	m.t.Helper()

	key := m.mustKey(fn)

	behaviorVal := reflect.ValueOf(behavior)
	if behaviorVal.Kind() != reflect.Func || behaviorVal.IsNil() {
		m.t.Fatalf("behavior for %s must be a non-nil function, got %T", FuncName(fn), behavior)

		return
	}

	m.mu.Lock()
	m.registry.setBehavior(key, behaviorVal)
	m.mu.Unlock()
}

// RegisterFailure forces future invocations of fn to fail with err, replacing
// any prior behavior or forced failure. Required-result calls report the
// failure as fatal; optional and defaulted calls absorb it.
func (m *Mock) RegisterFailure(fn any, err error) {
	m.t.Helper()

	key := m.mustKey(fn)

	if err == nil {
		m.t.Fatalf("forced failure for %s requires a non-nil error", FuncName(fn))

		return
	}

	m.mu.Lock()
	m.registry.setFailure(key, err)
	m.mu.Unlock()
}

// Invoke dispatches a required-result call: the registered behavior runs with
// args and its results are recorded and returned. A missing registration,
// forced failure, or behavior failure is a test-configuration error and is
// fatal; no substitute value is ever returned.
func (m *Mock) Invoke(fn any, args []any) []any {
	m.t.Helper()

	key := m.mustKey(fn)
	args = normalizeArgs(args)

	behavior, forced, registered := m.lookupBehavior(key)
	if !registered {
		m.t.Fatalf("no behavior registered for %s (required-result call at %s)", FuncName(fn), callSite())

		return nil
	}

	if forced != nil {
		m.t.Fatalf("forced failure for %s: %v (required-result call at %s)", FuncName(fn), forced, callSite())

		return nil
	}

	results, err := runBehavior(behavior, args)
	if err != nil {
		m.t.Fatalf("behavior for %s failed: %v (required-result call at %s)", FuncName(fn), err, callSite())

		return nil
	}

	m.appendRecord(key, Execution{Args: args, Results: results, Outcome: OutcomeReturned})

	return results
}

// InvokeOptional dispatches an optional-result call. A missing registration,
// forced failure, or behavior failure yields (nil, false) and records an
// OutcomeNone execution; this is a legitimate outcome, not an error.
func (m *Mock) InvokeOptional(fn any, args []any) (any, bool) {
	m.t.Helper()

	key := m.mustKey(fn)
	args = normalizeArgs(args)

	behavior, forced, registered := m.lookupBehavior(key)
	if !registered || forced != nil {
		m.appendRecord(key, Execution{Args: args, Outcome: OutcomeNone, Err: forced})

		return nil, false
	}

	results, err := runBehavior(behavior, args)
	if err != nil {
		m.appendRecord(key, Execution{Args: args, Outcome: OutcomeNone, Err: err})

		return nil, false
	}

	m.appendRecord(key, Execution{Args: args, Results: results, Outcome: OutcomeReturned})

	return firstResult(results), true
}

// InvokeDefault dispatches a defaulted-result call. A missing registration,
// forced failure, or behavior failure falls back to def, which is recorded as
// the call's result with OutcomeDefaulted.
func (m *Mock) InvokeDefault(fn any, args []any, def any) any {
	m.t.Helper()

	key := m.mustKey(fn)
	args = normalizeArgs(args)

	behavior, forced, registered := m.lookupBehavior(key)
	if !registered || forced != nil {
		m.appendRecord(key, Execution{Args: args, Results: []any{def}, Outcome: OutcomeDefaulted, Err: forced})

		return def
	}

	results, err := runBehavior(behavior, args)
	if err != nil {
		m.appendRecord(key, Execution{Args: args, Results: []any{def}, Outcome: OutcomeDefaulted, Err: err})

		return def
	}

	m.appendRecord(key, Execution{Args: args, Results: results, Outcome: OutcomeReturned})

	return firstResult(results)
}

// InvokeVoid dispatches a void call: no behavior lookup occurs, the call is
// recorded with OutcomeVoid, and it succeeds unconditionally. Void functions
// have nothing to stub, only to observe.
func (m *Mock) InvokeVoid(fn any, args []any) {
	m.t.Helper()

	key := m.mustKey(fn)

	m.appendRecord(key, Execution{Args: normalizeArgs(args), Outcome: OutcomeVoid})
}

// Executions returns every recorded invocation of fn, in call order. A
// function that was never invoked yields an empty slice.
func (m *Mock) Executions(fn any) []Execution {
	m.t.Helper()

	key := m.mustKey(fn)

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ledger.query(key)
}

// appendRecord appends one execution record under key.
func (m *Mock) appendRecord(key funcKey, rec Execution) {
	m.mu.Lock()
	m.ledger.append(key, rec)
	m.mu.Unlock()
}

// lookupBehavior reads the configured outcome for key under the mock's lock.
func (m *Mock) lookupBehavior(key funcKey) (reflect.Value, error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.registry.lookup(key)
}

// mustKey resolves fn's identity or fails the test when fn isn't a function.
func (m *Mock) mustKey(fn any) funcKey {
	m.t.Helper()

	key, ok := keyOf(fn)
	if !ok {
		m.t.Fatalf("expected a non-nil function value, got %T (at %s)", fn, callSite())

		return 0
	}

	return key
}

// convertArgs prepares args for a reflective call to a function of type
// funcType. Nil arguments become the parameter's zero value; assignable and
// convertible values are passed through, anything else is a mismatch.
func convertArgs(funcType reflect.Type, args []any) ([]reflect.Value, error) {
	numIn := funcType.NumIn()
	variadic := funcType.IsVariadic()

	if variadic {
		if len(args) < numIn-1 {
			return nil, fmt.Errorf("%w: behavior wants at least %d args, got %d", errArgCount, numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, fmt.Errorf("%w: behavior wants %d args, got %d", errArgCount, numIn, len(args))
	}

	in := make([]reflect.Value, len(args))

	for i, arg := range args {
		var paramType reflect.Type
		if variadic && i >= numIn-1 {
			paramType = funcType.In(numIn - 1).Elem()
		} else {
			paramType = funcType.In(i)
		}

		if arg == nil {
			// A missing argument is treated as the parameter's empty value.
			in[i] = reflect.Zero(paramType)

			continue
		}

		argVal := reflect.ValueOf(arg)

		switch {
		case argVal.Type().AssignableTo(paramType):
		case argVal.Type().ConvertibleTo(paramType):
			argVal = argVal.Convert(paramType)
		default:
			return nil, fmt.Errorf("%w: arg %d is %T, behavior wants %s", errArgType, i, arg, paramType)
		}

		in[i] = argVal
	}

	return in, nil
}

// firstResult returns the first of results, or nil if there are none.
func firstResult(results []any) any {
	if len(results) == 0 {
		return nil
	}

	return results[0]
}

// normalizeArgs copies args into a fresh slice so recorded executions stay
// immutable. A nil slice is an empty argument bundle.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)

	return out
}

// runBehavior invokes behavior reflectively with args, recovering panics.
// The returned error is non-nil when the arguments didn't fit the behavior's
// signature or the behavior panicked.
func runBehavior(behavior reflect.Value, args []any) ([]any, error) {
	in, err := convertArgs(behavior.Type(), args)
	if err != nil {
		return nil, err
	}

	var results []reflect.Value

	panicked := func() (p any) {
		defer func() { p = recover() }()

		results = behavior.Call(in)

		return nil
	}()
	if panicked != nil {
		return nil, fmt.Errorf("%w: %v", errBehaviorPanic, panicked)
	}

	out := make([]any, len(results))
	for i, res := range results {
		out[i] = res.Interface()
	}

	return out, nil
}
