package stubtest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/flavioaiello/resource-stubifier/pkg/discovery"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
	"github.com/flavioaiello/resource-stubifier/pkg/stubify"
)

// Setup stubifies types with a fresh context logging to the test output.
func Setup(tb testing.TB, types ...*resource.Type) *stubify.Stubifier {
	tb.Helper()

	s := stubify.New(stubify.WithLogger(zaptest.NewLogger(tb)))
	for _, t := range types {
		require.NoError(tb, s.Stubify(t))
	}
	return s
}

// SetupAll stubifies everything d discovers with a fresh context.
func SetupAll(tb testing.TB, d discovery.Discoverer) *stubify.Stubifier {
	tb.Helper()

	s := stubify.New(stubify.WithLogger(zaptest.NewLogger(tb)))
	require.NoError(tb, s.StubifyAll(d))
	return s
}

// MockManager is an in-memory resource manager. Thread-safe.
type MockManager struct {
	mu sync.Mutex

	data     map[string]any
	requests []string
	err      error
}

// NewMockManager creates a manager serving no data.
func NewMockManager() *MockManager {
	return &MockManager{data: make(map[string]any)}
}

// SetData sets the data returned for a resource type.
func (m *MockManager) SetData(resourceType string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[resourceType] = data
}

// SetFailure makes every request fail with err. Nil clears it.
func (m *MockManager) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Request implements resource.Manager.
func (m *MockManager) Request(ctx context.Context, resourceType string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, resourceType)
	if m.err != nil {
		return nil, m.err
	}
	return m.data[resourceType], nil
}

// Requests returns the requested resource types in order.
func (m *MockManager) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// Probe counts invocations of real method bodies. Thread-safe.
type Probe struct {
	mu   sync.Mutex
	hits map[string]int
}

// NewProbe creates an empty probe.
func NewProbe() *Probe {
	return &Probe{hits: make(map[string]int)}
}

// Hit records one invocation of key.
func (p *Probe) Hit(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hits[key]++
}

// Count returns the invocations recorded for key.
func (p *Probe) Count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[key]
}

// Total returns all recorded invocations.
func (p *Probe) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.hits {
		total += n
	}
	return total
}
