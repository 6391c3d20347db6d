package core

// Outcome classifies what an invocation produced. A void call's record is
// deliberately distinguishable from an optional call that produced no value.
type Outcome int

const (
	// OutcomeReturned means a registered behavior produced the recorded results.
	OutcomeReturned Outcome = iota
	// OutcomeNone means an optional-result call produced no value.
	OutcomeNone
	// OutcomeVoid means the call had no result to produce.
	OutcomeVoid
	// OutcomeDefaulted means the caller-supplied default was recorded.
	OutcomeDefaulted
)

// String returns a short human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeReturned:
		return "returned"
	case OutcomeNone:
		return "no value"
	case OutcomeVoid:
		return "void"
	case OutcomeDefaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

// Execution is an immutable record of one dispatched call: the arguments
// supplied, the results produced, how they came to be, and any absorbed
// failure (for optional and defaulted calls that fell back).
type Execution struct {
	Args    []any
	Results []any
	Outcome Outcome
	Err     error
}

// Result returns the first recorded result, or nil when the call produced
// none. Multi-result calls should index Results directly.
func (e Execution) Result() any {
	if len(e.Results) == 0 {
		return nil
	}

	return e.Results[0]
}

// MatchArgs checks the recorded arguments against the given matchers or
// literal values, returning nil on a full match or an error describing the
// first mismatch. See MatchValue for how each element is compared.
func (e Execution) MatchArgs(matchers ...any) error {
	return MatchArgs(e.Args, matchers)
}

// executionLedger records invocations per function identity, in call order.
// Sequences are append-only and never reordered.
//
// The ledger is not self-locking; Mock guards it with its own mutex.
type executionLedger struct {
	records map[funcKey][]Execution
}

func newExecutionLedger() *executionLedger {
	return &executionLedger{records: make(map[funcKey][]Execution)}
}

// append adds one record to the end of key's sequence, creating the sequence
// if absent.
func (l *executionLedger) append(key funcKey, rec Execution) {
	l.records[key] = append(l.records[key], rec)
}

// query returns a copy of key's sequence in call order. An identity with no
// recorded calls yields an empty slice, not an error.
func (l *executionLedger) query(key funcKey) []Execution {
	recs := l.records[key]

	out := make([]Execution, len(recs))
	copy(out, recs)

	return out
}
