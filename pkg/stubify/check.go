package stubify

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/flavioaiello/resource-stubifier/pkg/placeholder"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
)

// ErrCheckFailed indicates a stubified type does not behave like a stub.
var ErrCheckFailed = errors.New("stub check failed")

// Check constructs t without arguments and calls every stubbed method
// reachable from it with zero-valued arguments. It verifies that the instance
// is named after t, that its data is a placeholder of the same name, and that
// every call succeeds and returns a placeholder where the signature allows one.
func Check(t *resource.Type) error {
	if t == nil {
		return ErrNilType
	}

	inst, err := resource.New(t)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}

	if inst.Name != t.Name() {
		return fmt.Errorf("%w: %s instance named %q", ErrCheckFailed, t.Name(), inst.Name)
	}
	data, ok := inst.Data.(*placeholder.Value)
	if !ok {
		return fmt.Errorf("%w: %s data is %T, not a placeholder", ErrCheckFailed, t.Name(), inst.Data)
	}
	if data.Name() != t.Name() {
		return fmt.Errorf("%w: %s data named %q", ErrCheckFailed, t.Name(), data.Name())
	}

	seen := make(map[string]bool)
	for _, n := range t.Linearize() {
		for _, name := range n.MemberNames() {
			if seen[name] {
				continue
			}
			seen[name] = true

			m, _, _ := t.Lookup(name)
			if m.Kind != resource.KindStub {
				continue
			}
			if err := checkCall(inst, name, m.Func.Type()); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkCall(inst *resource.Instance, name string, ft reflect.Type) error {
	results, err := inst.Call(name, zeroArgs(ft)...)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: %w", ErrCheckFailed, inst.Type().Name(), name, err)
	}

	// Results are aligned with ft.Out, minus a trailing error.
	for i, r := range results {
		if placeholderType.AssignableTo(ft.Out(i)) && !placeholder.Is(r) {
			return fmt.Errorf("%w: %s.%s result %d is %T", ErrCheckFailed, inst.Type().Name(), name, i, r)
		}
	}
	return nil
}

// zeroArgs returns zero values for the parameters of ft after the receiver.
// Variadic parameters get no arguments.
func zeroArgs(ft reflect.Type) []any {
	n := ft.NumIn()
	if ft.IsVariadic() {
		n--
	}

	args := make([]any, 0, n)
	for i := 1; i < n; i++ {
		args = append(args, reflect.Zero(ft.In(i)).Interface())
	}
	return args
}
