// Package stubify converts resource types into stubs.
//
// A stub is a resource with no real connection: every method returns a
// placeholder, construction fills the instance with placeholder data and no
// resource manager is needed. Stubification walks the whole parent chain of a
// type, because method lookup falls through to ancestors at call time.
//
// Features:
//  1. Signature preserving stand-ins for every method outside the denylist
//  2. Stub construction and attribute-miss hooks
//  3. A visited set making repeated and overlapping walks idempotent
//  4. Bulk stubification of everything a discoverer returns
package stubify

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/flavioaiello/resource-stubifier/pkg/discovery"
	"github.com/flavioaiello/resource-stubifier/pkg/placeholder"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
)

// Errors.
var (
	ErrSignatureMismatch = errors.New("cannot build a stand-in matching the method signature")
	ErrDiscovery         = errors.New("resource discovery failed")
	ErrNilType           = errors.New("nil resource type")
)

// InitMember is the denylist name of the construction routine.
const InitMember = "Init"

// PrivatePrefix marks discovery entries the bulk driver skips.
const PrivatePrefix = "_"

// denylist holds member names that are never replaced. These are the
// structural hooks the stub itself relies on.
var denylist = map[string]struct{}{
	InitMember:                      {},
	resource.HookGetSubResources:    {},
	resource.HookRequest:            {},
	resource.HookCreateSubResources: {},
	resource.HookSetSubResources:    {},
}

// Denied reports whether the member name is on the denylist.
func Denied(name string) bool {
	_, ok := denylist[name]
	return ok
}

// Denylist returns the denylisted member names, sorted.
func Denylist() []string {
	names := make([]string, 0, len(denylist))
	for name := range denylist {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result describes what stubification changed on one type.
type Result struct {
	Type *resource.Type
	// Replaced lists the methods turned into stubs, in declaration order.
	Replaced []string
	// Preserved lists the denylisted methods left in place.
	Preserved []string
}

// Option configures a Stubifier.
type Option func(*Stubifier)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Stubifier) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRoots replaces the root types at which the upward walk stops.
func WithRoots(roots ...*resource.Type) Option {
	return func(s *Stubifier) {
		s.roots = make(map[*resource.Type]struct{}, len(roots))
		for _, r := range roots {
			s.roots[r] = struct{}{}
		}
	}
}

// Stubifier carries the visited set of one stubification context.
// Not safe for concurrent use.
type Stubifier struct {
	logger *zap.Logger
	roots  map[*resource.Type]struct{}

	visited map[*resource.Type]*Result
	order   []*resource.Type
	skipped []string
}

// New creates a Stubifier with an empty visited set. The walk stops at
// resource.Base and resource.Model unless WithRoots says otherwise.
func New(opts ...Option) *Stubifier {
	s := &Stubifier{
		logger: zap.NewNop(),
		roots: map[*resource.Type]struct{}{
			resource.Base:  {},
			resource.Model: {},
		},
		visited: make(map[*resource.Type]*Result),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsRoot reports whether t is a stopping point of the upward walk.
func (s *Stubifier) IsRoot(t *resource.Type) bool {
	_, ok := s.roots[t]
	return ok
}

// Visited reports whether t was already processed.
func (s *Stubifier) Visited(t *resource.Type) bool {
	_, ok := s.visited[t]
	return ok
}

// VisitedTypes returns the processed types in visit order.
func (s *Stubifier) VisitedTypes() []*resource.Type {
	return append([]*resource.Type(nil), s.order...)
}

// Result returns what stubification changed on t.
func (s *Stubifier) Result(t *resource.Type) (*Result, bool) {
	r, ok := s.visited[t]
	return r, ok
}

// Skipped returns the discovery entries the bulk driver passed over.
func (s *Stubifier) Skipped() []string {
	return append([]string(nil), s.skipped...)
}

// Stubify turns t and every non-root ancestor into a stub. A type already
// visited is left alone, so shared bases are processed once.
//
// If a method cannot be stubbed, the error is returned and methods already
// replaced on t stay replaced.
func (s *Stubifier) Stubify(t *resource.Type) error {
	if t == nil {
		return ErrNilType
	}
	if s.Visited(t) {
		return nil
	}
	if s.IsRoot(t) {
		s.logger.Debug("Skipping root resource type",
			zap.String("type", t.Name()),
		)
		return nil
	}

	// Mark before recursing; this is what guards diamonds.
	result := &Result{Type: t}
	s.visited[t] = result
	s.order = append(s.order, t)

	for _, name := range t.MemberNames() {
		m, _ := t.Member(name)
		if m.Kind != resource.KindMethod {
			continue
		}
		if Denied(name) {
			result.Preserved = append(result.Preserved, name)
			continue
		}

		stub, err := StubMethod(m)
		if err != nil {
			return fmt.Errorf("stubify %s.%s: %w", t.Name(), name, err)
		}
		t.SetMember(name, stub)
		result.Replaced = append(result.Replaced, name)
	}

	t.SetDataClass(nil)
	t.SetInit(stubInit)
	t.SetAttrMiss(stubAttrMiss)

	s.logger.Debug("Stubified resource type",
		zap.String("type", t.Name()),
		zap.Strings("replaced", result.Replaced),
		zap.Strings("preserved", result.Preserved),
	)

	for _, parent := range t.Parents() {
		if s.IsRoot(parent) {
			continue
		}
		if err := s.Stubify(parent); err != nil {
			return err
		}
	}

	return nil
}

// StubifyAll stubifies every resource d returns, in name order. Entries whose
// name starts with an underscore are skipped. The first error stops the walk.
func (s *Stubifier) StubifyAll(d discovery.Discoverer) error {
	resources, err := d.Discover()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.HasPrefix(name, PrivatePrefix) {
			s.skipped = append(s.skipped, name)
			s.logger.Debug("Skipping private resource",
				zap.String("resource", name),
			)
			continue
		}

		if err := s.Stubify(resources[name]); err != nil {
			return fmt.Errorf("resource %s: %w", name, err)
		}
	}

	s.logger.Info("Resources stubified",
		zap.Int("discovered", len(resources)),
		zap.Int("skipped", len(s.skipped)),
		zap.Int("types", len(s.order)),
	)

	return nil
}

// stubInit replaces construction. Arguments are ignored.
func stubInit(inst *resource.Instance, _ ...any) error {
	name := inst.Type().Name()

	data := placeholder.New()
	data.SetAttr(placeholder.NameAttr, name)
	inst.Data = data
	inst.Name = data.Name()

	// The hook runs its real logic; errors surface to the test.
	_, err := inst.Call(resource.HookSetSubResources)
	return err
}

// stubAttrMiss answers every unknown attribute with a fresh placeholder.
func stubAttrMiss(_ *resource.Instance, _ string) (any, error) {
	return placeholder.New(), nil
}
