package resource

import (
	"fmt"
	"reflect"

	"github.com/flavioaiello/resource-stubifier/pkg/placeholder"
)

// Attribute names resolved from the instance itself.
const (
	AttrName = "name"
	AttrData = "data"
)

// BoundMethod is a method bound to an instance.
type BoundMethod func(args ...any) ([]any, error)

// Instance is a constructed resource.
type Instance struct {
	typ *Type

	// Name is the resource name.
	Name string
	// Data is the backing data of the resource.
	Data any

	manager Manager
	fields  map[string]any
	subs    []string
}

// New constructs an instance of t. The first construction routine found along
// the linearization of t receives args; a type without one yields a bare
// instance.
func New(t *Type, args ...any) (*Instance, error) {
	inst := &Instance{
		typ:    t,
		fields: make(map[string]any),
	}

	if init := t.resolveInit(); init != nil {
		if err := init(inst, args...); err != nil {
			return nil, fmt.Errorf("construct %s: %w", t.name, err)
		}
	}

	return inst, nil
}

// Type returns the runtime type of the instance.
func (i *Instance) Type() *Type {
	return i.typ
}

// Set stores a per-instance field.
func (i *Instance) Set(name string, value any) {
	i.fields[name] = value
}

// Field returns a per-instance field.
func (i *Instance) Field(name string) (any, bool) {
	v, ok := i.fields[name]
	return v, ok
}

// Attr resolves name on the instance: instance fields first, then members
// along the linearization, then the attribute-miss hook.
func (i *Instance) Attr(name string) (any, error) {
	if v, ok := i.fields[name]; ok {
		return v, nil
	}
	switch name {
	case AttrName:
		return i.Name, nil
	case AttrData:
		return i.Data, nil
	}

	if m, _, ok := i.typ.Lookup(name); ok {
		switch m.Kind {
		case KindField:
			return m.Value, nil
		case KindNested:
			return m.Type, nil
		default:
			return i.bind(name, m), nil
		}
	}

	if miss := i.typ.resolveAttrMiss(); miss != nil {
		return miss(i, name)
	}

	return nil, fmt.Errorf("%w: %s.%s", ErrAttributeNotFound, i.typ.name, name)
}

// Call invokes the named method. A trailing error result of the method is
// returned as the call error and removed from the results.
//
// When no member matches, the attribute-miss hook is consulted and a
// placeholder it returns is called instead.
func (i *Instance) Call(name string, args ...any) ([]any, error) {
	if m, _, ok := i.typ.Lookup(name); ok {
		if !m.Callable() {
			return nil, fmt.Errorf("%w: %s.%s is a %s", ErrNotCallable, i.typ.name, name, m.Kind)
		}
		return i.invoke(name, m.Func, args)
	}

	miss := i.typ.resolveAttrMiss()
	if miss == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrAttributeNotFound, i.typ.name, name)
	}

	v, err := miss(i, name)
	if err != nil {
		return nil, err
	}
	switch fn := v.(type) {
	case *placeholder.Value:
		return []any{fn.Call(args...)}, nil
	case BoundMethod:
		return fn(args...)
	default:
		return nil, fmt.Errorf("%w: %s.%s", ErrNotCallable, i.typ.name, name)
	}
}

func (i *Instance) bind(name string, m *Member) BoundMethod {
	return func(args ...any) ([]any, error) {
		return i.invoke(name, m.Func, args)
	}
}

func (i *Instance) invoke(name string, fn reflect.Value, args []any) ([]any, error) {
	if err := CheckMethod(fn); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", i.typ.name, name, err)
	}

	ft := fn.Type()
	in, err := buildArgs(ft, args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", i.typ.name, name, err)
	}
	in[0] = reflect.ValueOf(i)

	out := fn.Call(in)

	var callErr error
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
		if last := out[n-1]; !last.IsNil() {
			callErr = last.Interface().(error)
		}
		out = out[:n-1]
	}

	results := make([]any, len(out))
	for idx, v := range out {
		results[idx] = v.Interface()
	}
	return results, callErr
}

// buildArgs converts args to call values for ft. Slot 0 is left for the
// receiver.
func buildArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	params := ft.NumIn() - 1
	if ft.IsVariadic() {
		if len(args) < params-1 {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", ErrArgumentMismatch, params-1, len(args))
		}
	} else if len(args) != params {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrArgumentMismatch, params, len(args))
	}

	in := make([]reflect.Value, len(args)+1)
	for idx, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && idx >= params-1 {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(idx + 1)
		}

		v, err := argValue(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", idx, err)
		}
		in[idx+1] = v
	}
	return in, nil
}

func argValue(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(pt), nil
		default:
			return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrArgumentMismatch, pt)
		}
	}

	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(pt) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrArgumentMismatch, v.Type(), pt)
	}
	return v, nil
}
