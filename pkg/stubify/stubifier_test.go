//nolint:errcheck // Test file - setup errors are acceptable
package stubify_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/flavioaiello/resource-stubifier/pkg/discovery"
	"github.com/flavioaiello/resource-stubifier/pkg/placeholder"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
	"github.com/flavioaiello/resource-stubifier/pkg/stubify"
	"github.com/flavioaiello/resource-stubifier/pkg/stubtest"
)

// Test constants to avoid literal duplication.
const (
	msgStubifiedType = "Stubified resource type"
	hiddenResource   = "_Hidden"
)

func observedStubifier() (*stubify.Stubifier, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return stubify.New(stubify.WithLogger(zap.New(core))), logs
}

func methodKind(t *testing.T, typ *resource.Type, name string) resource.MemberKind {
	t.Helper()
	m, ok := typ.Member(name)
	require.True(t, ok, "%s.%s not declared", typ.Name(), name)
	return m.Kind
}

func TestStubifyChainReplacesEveryAncestor(t *testing.T) {
	chain := stubtest.NewChain()
	stubtest.Setup(t, chain.Router)

	expected := map[*resource.Type][]string{
		chain.Device: {"Connect", "Status"},
		chain.Switch: {"Reset", "Ports"},
		chain.Router: {"Route", "Count"},
	}
	for typ, methods := range expected {
		for _, name := range methods {
			assert.Equal(t, resource.KindStub, methodKind(t, typ, name), "%s.%s", typ.Name(), name)
		}
	}
}

func TestStubifiedMethodsReturnPlaceholders(t *testing.T) {
	chain := stubtest.NewChain()
	stubtest.Setup(t, chain.Router)

	inst, err := resource.New(chain.Router, "ignored", 42, nil)
	require.NoError(t, err)

	tests := []struct {
		method string
		args   []any
	}{
		{"Connect", nil},
		{"Status", nil},
		{"Route", []any{"10.0.0.0/8"}},
		{"Route", []any{"10.0.0.0/8", 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			results, err := inst.Call(tt.method, tt.args...)
			require.NoError(t, err)
			if len(results) > 0 {
				assert.True(t, placeholder.Is(results[0]))
			}
		})
	}

	// Results a placeholder cannot occupy are zero values.
	results, err := inst.Call("Count")
	require.NoError(t, err)
	assert.Equal(t, []any{0}, results)

	_, err = inst.Call("Reset", true)
	require.NoError(t, err)

	// Only the denylisted hook ran real code.
	assert.Equal(t, 1, chain.Probe.Total())
	assert.Equal(t, 1, chain.Probe.Count("Router.SetSubResources"))
}

func TestStubifiedMethodsKeepArgumentValidation(t *testing.T) {
	chain := stubtest.NewChain()
	stubtest.Setup(t, chain.Router)

	inst, err := resource.New(chain.Router)
	require.NoError(t, err)

	_, err = inst.Call("Reset", "not a bool")
	assert.ErrorIs(t, err, resource.ErrArgumentMismatch)

	_, err = inst.Call("Connect", "unexpected")
	assert.ErrorIs(t, err, resource.ErrArgumentMismatch)
}

func TestStubifyIsIdempotent(t *testing.T) {
	chain := stubtest.NewChain()
	s := stubtest.Setup(t, chain.Router)

	before, _ := chain.Device.Member("Connect")
	visited := s.VisitedTypes()

	require.NoError(t, s.Stubify(chain.Router))
	require.NoError(t, s.Stubify(chain.Switch))
	require.NoError(t, s.Stubify(chain.Device))

	after, _ := chain.Device.Member("Connect")
	assert.Same(t, before, after)
	assert.Equal(t, visited, s.VisitedTypes())
	assert.Len(t, visited, 3)
}

func TestStubifyPreservesDenylist(t *testing.T) {
	chain := stubtest.NewChain()
	s := stubtest.Setup(t, chain.Router)

	assert.Equal(t, resource.KindMethod, methodKind(t, chain.Router, resource.HookSetSubResources))

	result, ok := s.Result(chain.Router)
	require.True(t, ok)
	assert.Equal(t, []string{"Route", "Count"}, result.Replaced)
	assert.Equal(t, []string{resource.HookSetSubResources}, result.Preserved)

	inst, err := resource.New(chain.Router)
	require.NoError(t, err)

	ready, ok := inst.Field(stubtest.ReadyField)
	require.True(t, ok)
	assert.Equal(t, true, ready)
	assert.Equal(t, 1, chain.Probe.Count("Router.SetSubResources"))
}

func TestDenylist(t *testing.T) {
	assert.Equal(t, []string{
		resource.HookCreateSubResources,
		resource.HookGetSubResources,
		stubify.InitMember,
		resource.HookRequest,
		resource.HookSetSubResources,
	}, stubify.Denylist())

	assert.True(t, stubify.Denied(resource.HookRequest))
	assert.False(t, stubify.Denied("Connect"))
}

func TestStubConstructionContract(t *testing.T) {
	chain := stubtest.NewChain()
	stubtest.Setup(t, chain.Router)

	for _, typ := range chain.Types() {
		t.Run(typ.Name(), func(t *testing.T) {
			inst, err := resource.New(typ, "any", 1, map[string]string{"x": "y"})
			require.NoError(t, err)

			assert.Equal(t, typ.Name(), inst.Name)
			data, ok := inst.Data.(*placeholder.Value)
			require.True(t, ok)
			assert.Equal(t, typ.Name(), data.Name())
		})
	}
}

func TestStubifyClearsDataClass(t *testing.T) {
	chain := stubtest.NewChain()
	require.NotNil(t, chain.Router.DataClass())

	stubtest.Setup(t, chain.Router)

	assert.Nil(t, chain.Router.DataClass())
}

func TestStubifyAnswersMissingAttributes(t *testing.T) {
	chain := stubtest.NewChain()
	stubtest.Setup(t, chain.Router)

	inst, err := resource.New(chain.Router)
	require.NoError(t, err)

	v, err := inst.Attr("neverDeclared")
	require.NoError(t, err)
	assert.True(t, placeholder.Is(v))

	results, err := inst.Call("NeverDeclared", 1, "two")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, placeholder.Is(results[0]))

	// Declared fields still resolve normally.
	port, err := inst.Attr(stubtest.PortMember)
	require.NoError(t, err)
	assert.Equal(t, 22, port)
}

func TestStubifyDiamondVisitsSharedBaseOnce(t *testing.T) {
	d := stubtest.NewDiamond()
	s, logs := observedStubifier()

	require.NoError(t, s.Stubify(d.Top))

	assert.Equal(t, []*resource.Type{d.Top, d.Left, d.Bottom, d.Right}, s.VisitedTypes())
	assert.Equal(t, 1, logs.FilterMessage(msgStubifiedType).FilterField(zap.String("type", "Bottom")).Len())
	assert.Equal(t, 4, logs.FilterMessage(msgStubifiedType).Len())

	assert.Equal(t, resource.KindStub, methodKind(t, d.Bottom, "Power"))
	assert.Equal(t, resource.KindStub, methodKind(t, d.Left, "Flash"))
	assert.Equal(t, resource.KindStub, methodKind(t, d.Right, "Measure"))
	assert.Equal(t, resource.KindStub, methodKind(t, d.Top, "Run"))
}

func TestStubifyLeavesRootsUntouched(t *testing.T) {
	chain := stubtest.NewChain()
	s := stubtest.Setup(t, chain.Router, chain.RouterData)

	for _, root := range []*resource.Type{resource.Base, resource.Model} {
		assert.False(t, s.Visited(root), root.Name())
		assert.Nil(t, root.AttrMiss(), root.Name())
	}
	assert.NotNil(t, resource.Base.Init())
	for _, name := range resource.Base.MemberNames() {
		assert.Equal(t, resource.KindMethod, methodKind(t, resource.Base, name))
	}

	require.NoError(t, s.Stubify(resource.Base))
	assert.False(t, s.Visited(resource.Base))
}

func TestStubifyCustomRoots(t *testing.T) {
	d := stubtest.NewDiamond()
	s := stubify.New(stubify.WithRoots(d.Bottom))

	require.NoError(t, s.Stubify(d.Top))

	assert.False(t, s.Visited(d.Bottom))
	assert.Equal(t, resource.KindMethod, methodKind(t, d.Bottom, "Power"))
	assert.True(t, s.IsRoot(d.Bottom))
	assert.False(t, s.IsRoot(resource.Base))
}

func TestStubifySignatureFailureKeepsPartialState(t *testing.T) {
	typ := resource.NewType("Flaky", resource.Base)
	require.NoError(t, typ.DefineMethod("First", func(*resource.Instance) error { return nil }, ""))
	typ.SetMember("Broken", &resource.Member{Kind: resource.KindMethod, Func: reflect.ValueOf(42)})
	require.NoError(t, typ.DefineMethod("Last", func(*resource.Instance) error { return nil }, ""))

	s := stubify.New()
	err := s.Stubify(typ)

	assert.ErrorIs(t, err, stubify.ErrSignatureMismatch)
	assert.ErrorIs(t, err, resource.ErrInvalidMethod)
	assert.True(t, s.Visited(typ))
	assert.Equal(t, resource.KindStub, methodKind(t, typ, "First"))
	assert.Equal(t, resource.KindMethod, methodKind(t, typ, "Last"))
	assert.Nil(t, typ.Init())

	// A second attempt is a no-op.
	assert.NoError(t, s.Stubify(typ))
}

func TestStubifyNilType(t *testing.T) {
	assert.ErrorIs(t, stubify.New().Stubify(nil), stubify.ErrNilType)
}

func TestStubifySubResources(t *testing.T) {
	console := resource.NewType("Console", resource.Base)
	device := resource.NewType("Device", resource.Base)
	device.SetMember("console", resource.NewNested(console))

	stubtest.Setup(t, device, console)

	inst, err := resource.New(device)
	require.NoError(t, err)

	results, err := inst.Call(resource.HookGetSubResources)
	require.NoError(t, err)
	subs, ok := results[0].([]*resource.Instance)
	require.True(t, ok)
	require.Len(t, subs, 1)
	assert.Equal(t, "Console", subs[0].Name)
}

func TestStubConstructionPropagatesHookFailure(t *testing.T) {
	// The sub-resource is live, so constructing it needs a manager.
	console := resource.NewType("Console", resource.Base)
	device := resource.NewType("Device", resource.Base)
	device.SetMember("console", resource.NewNested(console))

	stubtest.Setup(t, device)

	_, err := resource.New(device)
	assert.ErrorIs(t, err, resource.ErrNoResourceManager)
}

func TestStubifyAllSkipsPrivateEntries(t *testing.T) {
	chain := stubtest.NewChain()
	hidden := resource.NewType("Hidden", resource.Base)
	require.NoError(t, hidden.DefineMethod("Secret", func(*resource.Instance) error { return nil }, ""))

	registry := discovery.NewRegistry()
	require.NoError(t, registry.Register("Router", chain.Router))
	require.NoError(t, registry.Register(hiddenResource, hidden))

	s := stubtest.SetupAll(t, registry)

	assert.False(t, s.Visited(hidden))
	assert.Equal(t, resource.KindMethod, methodKind(t, hidden, "Secret"))
	assert.Equal(t, []string{hiddenResource}, s.Skipped())
	assert.Len(t, s.VisitedTypes(), 3)
}

func TestStubifyAllDiscoveryFailure(t *testing.T) {
	boom := errors.New("discovery exploded")
	s := stubify.New()

	err := s.StubifyAll(discovery.Func(func() (map[string]*resource.Type, error) {
		return nil, boom
	}))

	assert.ErrorIs(t, err, stubify.ErrDiscovery)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.VisitedTypes())
}

func TestStubifyAllHaltsOnFirstError(t *testing.T) {
	broken := resource.NewType("Broken", resource.Base)
	broken.SetMember("Bad", &resource.Member{Kind: resource.KindMethod})
	good := resource.NewType("Good", resource.Base)

	registry := discovery.NewRegistry()
	require.NoError(t, registry.Register("A", broken))
	require.NoError(t, registry.Register("B", good))

	s := stubify.New()
	err := s.StubifyAll(registry)

	assert.ErrorIs(t, err, stubify.ErrSignatureMismatch)
	assert.Contains(t, err.Error(), "resource A")
	assert.False(t, s.Visited(good))
}

func TestStubifyAllLogsSummary(t *testing.T) {
	d := stubtest.NewDiamond()
	registry := discovery.NewRegistry()
	require.NoError(t, registry.Register("Top", d.Top))
	require.NoError(t, registry.Register("Left", d.Left))
	require.NoError(t, registry.Register("_Right", d.Right))

	s, logs := observedStubifier()
	require.NoError(t, s.StubifyAll(registry))

	entries := logs.FilterMessage("Resources stubified").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 3, fields["discovered"])
	assert.EqualValues(t, 1, fields["skipped"])
	assert.EqualValues(t, 4, fields["types"])
}

func TestDefaultStubifier(t *testing.T) {
	typ := resource.NewType("ProcessWide", resource.Base)
	require.NoError(t, typ.DefineMethod("Ping", func(*resource.Instance) (any, error) { return nil, nil }, ""))

	require.NoError(t, stubify.Stubify(typ))

	assert.True(t, stubify.Default.Visited(typ))
	assert.Equal(t, resource.KindStub, methodKind(t, typ, "Ping"))

	registry := discovery.NewRegistry()
	require.NoError(t, registry.Register("ProcessWide", typ))
	require.NoError(t, stubify.StubifyAll(registry))
}

func TestCheck(t *testing.T) {
	chain := stubtest.NewChain()
	stubtest.Setup(t, chain.Router)

	for _, typ := range chain.Types() {
		assert.NoError(t, stubify.Check(typ), typ.Name())
	}
}

func TestCheckRejectsLiveType(t *testing.T) {
	chain := stubtest.NewChain()

	err := stubify.Check(chain.Router)

	assert.ErrorIs(t, err, stubify.ErrCheckFailed)
	assert.ErrorIs(t, err, resource.ErrNoResourceManager)
	assert.ErrorIs(t, stubify.Check(nil), stubify.ErrNilType)
}

func TestStubMethodCopiesDocAndKeepsOriginal(t *testing.T) {
	chain := stubtest.NewChain()
	m, ok := chain.Device.Member("Connect")
	require.True(t, ok)

	stub, err := stubify.StubMethod(m)
	require.NoError(t, err)

	assert.Equal(t, resource.KindStub, stub.Kind)
	assert.Equal(t, m.Doc, stub.Doc)
	assert.Same(t, m, stub.Original)
	assert.True(t, m.Func.Type() == stub.Func.Type(), "stand-in signature differs")

	// The original member and its owner are unchanged.
	assert.Equal(t, resource.KindMethod, m.Kind)
	assert.Equal(t, "Open a session to the device.", m.Doc)
	current, _ := chain.Device.Member("Connect")
	assert.Same(t, m, current)
}

func TestStubMethodRejectsNonMethods(t *testing.T) {
	_, err := stubify.StubMethod(nil)
	assert.ErrorIs(t, err, stubify.ErrSignatureMismatch)

	_, err = stubify.StubMethod(resource.NewField(22))
	assert.ErrorIs(t, err, stubify.ErrSignatureMismatch)
	assert.ErrorIs(t, err, resource.ErrInvalidMethod)
}

func TestStubifyKeepsMethodDocs(t *testing.T) {
	chain := stubtest.NewChain()
	original, _ := chain.Device.Member("Connect")

	stubtest.Setup(t, chain.Router)

	replaced, ok := chain.Device.Member("Connect")
	require.True(t, ok)
	assert.Equal(t, resource.KindStub, replaced.Kind)
	assert.Equal(t, "Open a session to the device.", replaced.Doc)
	assert.Same(t, original, replaced.Original)

	route, _ := chain.Router.Member("Route")
	assert.Equal(t, route.Original.Doc, route.Doc)
}

func TestStubifyRemovesResourceManagerDependency(t *testing.T) {
	chain := stubtest.NewChain()
	mgr := stubtest.NewMockManager()
	mgr.SetData("Router", map[string]any{"hostname": "edge-1"})

	// Live: construction goes through the manager and methods need it.
	live, err := resource.New(chain.Router, mgr)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hostname": "edge-1"}, live.Data)
	assert.Equal(t, []string{"Router"}, mgr.Requests())

	_, err = live.Call("Connect")
	assert.ErrorIs(t, err, resource.ErrNoResourceManager)
	assert.Equal(t, 1, chain.Probe.Count("Device.Connect"))

	_, err = resource.New(chain.Router)
	assert.ErrorIs(t, err, resource.ErrNoResourceManager)

	stubtest.Setup(t, chain.Router)

	// Stubbed: no manager, no request, no real method body.
	stub, err := resource.New(chain.Router)
	require.NoError(t, err)
	assert.True(t, placeholder.Is(stub.Data))

	_, err = stub.Call("Connect")
	require.NoError(t, err)
	assert.Equal(t, 1, chain.Probe.Count("Device.Connect"))
	assert.Equal(t, []string{"Router"}, mgr.Requests())
}
