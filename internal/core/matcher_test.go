package core

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

// evenMatcher matches even ints.
type evenMatcher struct{}

func (evenMatcher) FailureMessage(actual any) string {
	return "expected an even int"
}

func (evenMatcher) Match(actual any) (bool, error) {
	val, ok := actual.(int)
	if !ok {
		return false, errors.New("not an int")
	}

	return val%2 == 0, nil
}

// TestMatchValue_DeepEqualFallback verifies non-matcher expectations compare
// by deep equality.
func TestMatchValue_DeepEqualFallback(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ok, msg := MatchValue([]int{1, 2}, []int{1, 2})
	g.Expect(ok).To(BeTrue())
	g.Expect(msg).To(BeEmpty())

	ok, msg = MatchValue(1, 2)
	g.Expect(ok).To(BeFalse())
	g.Expect(msg).To(ContainSubstring("expected 2, got 1"))
}

// TestMatchValue_UsesMatcher verifies Matcher expectations are consulted.
func TestMatchValue_UsesMatcher(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ok, _ := MatchValue(4, evenMatcher{})
	g.Expect(ok).To(BeTrue())

	ok, msg := MatchValue(3, evenMatcher{})
	g.Expect(ok).To(BeFalse())
	g.Expect(msg).To(Equal("expected an even int"))

	ok, msg = MatchValue("nope", evenMatcher{})
	g.Expect(ok).To(BeFalse())
	g.Expect(msg).To(Equal("not an int"))
}

// TestMatchArgs_CountAndValues verifies full-bundle matching semantics.
func TestMatchArgs_CountAndValues(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(MatchArgs([]any{1, "a"}, []any{1, "a"})).To(Succeed())

	err := MatchArgs([]any{1}, []any{1, 2})
	g.Expect(err).To(MatchError(ContainSubstring("expected 2 args, got 1")))

	err = MatchArgs([]any{3}, []any{evenMatcher{}})
	g.Expect(err).To(MatchError(ContainSubstring("arg 0")))
}
