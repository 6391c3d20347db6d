package core

import "reflect"

// resultRegistry stores at most one entry per function identity: either a
// registered behavior or a forced failure. Registration is last-write-wins,
// and registering one kind clears the other, so the dispatcher only ever sees
// a single configured outcome per function.
//
// The registry is not self-locking; Mock guards it with its own mutex.
type resultRegistry struct {
	behaviors map[funcKey]reflect.Value
	failures  map[funcKey]error
}

func newResultRegistry() *resultRegistry {
	return &resultRegistry{
		behaviors: make(map[funcKey]reflect.Value),
		failures:  make(map[funcKey]error),
	}
}

// setBehavior stores behavior under key, replacing any prior behavior or
// forced failure.
func (r *resultRegistry) setBehavior(key funcKey, behavior reflect.Value) {
	r.behaviors[key] = behavior
	delete(r.failures, key)
}

// setFailure stores a forced failure under key, replacing any prior behavior
// or forced failure.
func (r *resultRegistry) setFailure(key funcKey, err error) {
	r.failures[key] = err
	delete(r.behaviors, key)
}

// lookup returns the configured outcome for key. registered reports whether
// anything is configured at all; forced is non-nil when the configured
// outcome is a forced failure rather than a behavior.
func (r *resultRegistry) lookup(key funcKey) (behavior reflect.Value, forced error, registered bool) {
	if err, ok := r.failures[key]; ok {
		return reflect.Value{}, err, true
	}

	if b, ok := r.behaviors[key]; ok {
		return b, nil, true
	}

	return reflect.Value{}, nil, false
}
