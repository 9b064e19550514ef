// Package resource models resource types of the test framework as runtime
// descriptors.
//
// A Type owns a member table, an ordered list of parents, a construction
// routine, an attribute-miss hook and a reference to its data-holder type.
// Method lookup walks the parents relation at call time, so replacing a
// member on any type in the hierarchy changes what every instance of a
// derived type sees.
//
// Types are mutated in place by the stubifier. Mutation is not synchronized;
// it is expected to happen once during test process setup.
package resource

import (
	"errors"
	"fmt"
)

// Errors.
var (
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrNotCallable       = errors.New("member is not callable")
	ErrArgumentMismatch  = errors.New("arguments do not match signature")
	ErrInvalidMethod     = errors.New("invalid method")
	ErrNoResourceManager = errors.New("no resource manager available")
)

// InitFunc constructs an instance.
type InitFunc func(inst *Instance, args ...any) error

// AttrMissFunc is invoked when an attribute is not found through normal lookup.
type AttrMissFunc func(inst *Instance, name string) (any, error)

// Type is a resource type descriptor.
type Type struct {
	name    string
	parents []*Type

	members map[string]*Member
	order   []string

	dataClass *Type
	init      InitFunc
	attrMiss  AttrMissFunc
}

// NewType creates a type deriving from the given parents, in order. Nil
// parents are dropped.
func NewType(name string, parents ...*Type) *Type {
	t := &Type{
		name:    name,
		members: make(map[string]*Member),
	}
	for _, p := range parents {
		if p != nil {
			t.parents = append(t.parents, p)
		}
	}
	return t
}

// Name returns the type name.
func (t *Type) Name() string {
	return t.name
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	return t.name
}

// Parents returns the direct parents in declaration order.
func (t *Type) Parents() []*Type {
	return append([]*Type(nil), t.parents...)
}

// SetMember declares or replaces a member directly on t.
func (t *Type) SetMember(name string, m *Member) {
	if _, exists := t.members[name]; !exists {
		t.order = append(t.order, name)
	}
	t.members[name] = m
}

// DefineMethod declares a method on t.
func (t *Type) DefineMethod(name string, fn any, doc string) error {
	m, err := NewMethod(fn, doc)
	if err != nil {
		return fmt.Errorf("define %s.%s: %w", t.name, name, err)
	}
	t.SetMember(name, m)
	return nil
}

// Member returns a member declared directly on t. Inherited members are not
// considered.
func (t *Type) Member(name string) (*Member, bool) {
	m, ok := t.members[name]
	return m, ok
}

// MemberNames returns the names of members declared directly on t, in
// declaration order.
func (t *Type) MemberNames() []string {
	return append([]string(nil), t.order...)
}

// DataClass returns the data-holder type, or nil.
func (t *Type) DataClass() *Type {
	return t.dataClass
}

// SetDataClass sets the data-holder type. Nil clears it.
func (t *Type) SetDataClass(dc *Type) {
	t.dataClass = dc
}

// Init returns the construction routine declared on t, or nil.
func (t *Type) Init() InitFunc {
	return t.init
}

// SetInit sets the construction routine of t.
func (t *Type) SetInit(fn InitFunc) {
	t.init = fn
}

// AttrMiss returns the attribute-miss hook declared on t, or nil.
func (t *Type) AttrMiss() AttrMissFunc {
	return t.attrMiss
}

// SetAttrMiss sets the attribute-miss hook of t.
func (t *Type) SetAttrMiss(fn AttrMissFunc) {
	t.attrMiss = fn
}

// Linearize returns t followed by its ancestors in lookup order.
//
// Parents are walked depth-first, left to right, keeping only the last
// occurrence of each type. A base shared by several parents therefore comes
// after all of them.
func (t *Type) Linearize() []*Type {
	// Reversed, the walk lists each type at its first occurrence, and a
	// repeated subtree adds nothing new, so every type is expanded once.
	var post []*Type
	seen := make(map[*Type]bool)
	var visit func(*Type)
	visit = func(n *Type) {
		if seen[n] {
			return
		}
		seen[n] = true
		for i := len(n.parents) - 1; i >= 0; i-- {
			visit(n.parents[i])
		}
		post = append(post, n)
	}
	visit(t)

	result := make([]*Type, len(post))
	for i, n := range post {
		result[len(post)-1-i] = n
	}
	return result
}

// Lookup resolves name along the linearization of t. It returns the member
// and the type declaring it.
func (t *Type) Lookup(name string) (*Member, *Type, bool) {
	for _, n := range t.Linearize() {
		if m, ok := n.members[name]; ok {
			return m, n, true
		}
	}
	return nil, nil, false
}

// IsSubtypeOf reports whether other is t or one of its ancestors.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for _, n := range t.Linearize() {
		if n == other {
			return true
		}
	}
	return false
}

func (t *Type) resolveInit() InitFunc {
	for _, n := range t.Linearize() {
		if n.init != nil {
			return n.init
		}
	}
	return nil
}

func (t *Type) resolveAttrMiss() AttrMissFunc {
	for _, n := range t.Linearize() {
		if n.attrMiss != nil {
			return n.attrMiss
		}
	}
	return nil
}
