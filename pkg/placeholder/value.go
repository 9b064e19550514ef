// Package placeholder provides the universal stand-in value returned by stubbed
// resources.
//
// A Value behaves like an inert object that accepts anything:
//  1. Any attribute access succeeds and yields another Value
//  2. Iterating yields exactly one Value
//  3. Using it as the right operand of an addition yields a fresh Value
//  4. Calling it returns a fixed child Value
//
// Values carry no real data and are never persisted.
package placeholder

import (
	"fmt"
	"iter"
	"sync"

	"github.com/google/uuid"
)

// NameAttr is the attribute stub constructors set to the resource type name.
const NameAttr = "name"

// DataClassAttr always resolves to nil so code probing a placeholder for a
// backing data model sees none.
const DataClassAttr = "DataClass"

// Value is a placeholder returned for everything a stub does.
// Thread-safe.
type Value struct {
	mu sync.Mutex

	id       string
	attrs    map[string]any
	children map[string]*Value
	ret      *Value
}

// New creates a fresh placeholder value.
func New() *Value {
	return &Value{
		id:       uuid.New().String(),
		attrs:    make(map[string]any),
		children: make(map[string]*Value),
	}
}

// ID returns the identifier of this value.
func (v *Value) ID() string {
	return v.id
}

// Attr returns the named attribute. Explicitly set attributes are returned as
// set; any other name yields a child Value that is created on first access and
// reused afterwards.
func (v *Value) Attr(name string) any {
	v.mu.Lock()
	defer v.mu.Unlock()

	if val, ok := v.attrs[name]; ok {
		return val
	}
	if name == DataClassAttr {
		return nil
	}

	child, ok := v.children[name]
	if !ok {
		child = New()
		v.children[name] = child
	}
	return child
}

// SetAttr sets an attribute on the value.
func (v *Value) SetAttr(name string, val any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.attrs[name] = val
}

// Name returns the name attribute if it was set to a string.
func (v *Value) Name() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	name, _ := v.attrs[NameAttr].(string)
	return name
}

// Iter returns a lazy sequence yielding exactly one fresh Value.
func (v *Value) Iter() iter.Seq[*Value] {
	return func(yield func(*Value) bool) {
		yield(New())
	}
}

// RAdd returns the result of other + v, which is always a fresh Value.
func (v *Value) RAdd(_ any) *Value {
	return New()
}

// Call invokes the value. Arguments are ignored and the same child is returned
// on every call.
func (v *Value) Call(_ ...any) *Value {
	return v.ReturnValue()
}

// ReturnValue returns the child produced by Call.
func (v *Value) ReturnValue() *Value {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ret == nil {
		v.ret = New()
	}
	return v.ret
}

// Bool reports the truth value of the placeholder, which is always true.
func (v *Value) Bool() bool {
	return true
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	if name := v.Name(); name != "" {
		return fmt.Sprintf("<placeholder %s id=%s>", name, v.id)
	}
	return fmt.Sprintf("<placeholder id=%s>", v.id)
}

// Is reports whether val is a placeholder value.
func Is(val any) bool {
	_, ok := val.(*Value)
	return ok
}
