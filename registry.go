package standin

import "sync"

// For returns the Mock for the given test, creating one if needed.
// Multiple calls with the same TestReporter return the same Mock instance.
// This lets hand-written and generated standins in the same test share one
// registry and ledger.
//
// If the TestReporter supports Cleanup (like *testing.T), the Mock is
// automatically removed from the registry when the test completes.
func For(t TestReporter) *Mock {
	registryMu.Lock()
	defer registryMu.Unlock()

	if mock, ok := registry[t]; ok {
		return mock
	}

	mock := New(t)
	registry[t] = mock

	// Register cleanup if the TestReporter supports it
	if cr, ok := t.(cleanupRegistrar); ok {
		cr.Cleanup(func() {
			registryMu.Lock()
			delete(registry, t)
			registryMu.Unlock()
		})
	}

	return mock
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Package-level registry is intentional for test coordination
	registry = make(map[TestReporter]*Mock)
	//nolint:gochecknoglobals // Mutex for registry
	registryMu sync.Mutex
)

// cleanupRegistrar is the interface needed for registering cleanup functions.
// This is satisfied by *testing.T and *testing.B.
type cleanupRegistrar interface {
	Cleanup(cleanupFunc func())
}
