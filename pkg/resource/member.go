package resource

import (
	"fmt"
	"reflect"
)

// MemberKind classifies an entry of a type's member table.
type MemberKind int

const (
	// KindMethod is a plain function taking *Instance as its first parameter.
	KindMethod MemberKind = iota
	// KindField is a plain value shared by all instances.
	KindField
	// KindNested is a nested resource type, instantiated as a sub-resource.
	KindNested
	// KindStub is a generated stand-in for a method.
	KindStub
)

// String returns the kind name.
func (k MemberKind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindNested:
		return "nested"
	case KindStub:
		return "stub"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	instanceType = reflect.TypeOf((*Instance)(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// Member is an entry of a type's member table.
type Member struct {
	Kind MemberKind

	// Func is the function of a method or stub. Its first parameter is the
	// receiving *Instance.
	Func reflect.Value
	// Doc is the documentation of a method or stub.
	Doc string

	// Value is the value of a field.
	Value any

	// Type is the nested resource type.
	Type *Type

	// Original is the member a stub replaced.
	Original *Member
}

// NewMethod creates a method member from fn, which must be a function whose
// first parameter is *Instance.
func NewMethod(fn any, doc string) (*Member, error) {
	v := reflect.ValueOf(fn)
	if err := CheckMethod(v); err != nil {
		return nil, err
	}
	return &Member{Kind: KindMethod, Func: v, Doc: doc}, nil
}

// NewField creates a field member.
func NewField(value any) *Member {
	return &Member{Kind: KindField, Value: value}
}

// NewNested creates a nested resource type member.
func NewNested(t *Type) *Member {
	return &Member{Kind: KindNested, Type: t}
}

// Callable reports whether the member can be invoked.
func (m *Member) Callable() bool {
	return m.Kind == KindMethod || m.Kind == KindStub
}

// CheckMethod validates that fn can serve as a method.
func CheckMethod(fn reflect.Value) error {
	if !fn.IsValid() {
		return fmt.Errorf("%w: no function", ErrInvalidMethod)
	}
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("%w: %s is not a function", ErrInvalidMethod, fn.Type())
	}
	if fn.IsNil() {
		return fmt.Errorf("%w: nil function", ErrInvalidMethod)
	}
	ft := fn.Type()
	if ft.NumIn() == 0 || ft.In(0) != instanceType {
		return fmt.Errorf("%w: %s does not take *resource.Instance first", ErrInvalidMethod, ft)
	}
	return nil
}

func mustMethod(fn any, doc string) *Member {
	m, err := NewMethod(fn, doc)
	if err != nil {
		panic(err)
	}
	return m
}
