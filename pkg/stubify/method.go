package stubify

import (
	"fmt"
	"reflect"

	"github.com/flavioaiello/resource-stubifier/pkg/placeholder"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
)

var placeholderType = reflect.TypeOf((*placeholder.Value)(nil))

// StubMethod returns a stand-in for the method m.
//
// The stand-in has the same signature as m, so argument validation at the call
// site is unchanged, and the same documentation. Every result slot that can
// hold a placeholder receives one fixed placeholder created here; error
// results are nil and any other result is its zero value. m is not modified.
func StubMethod(m *resource.Member) (*resource.Member, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil member", ErrSignatureMismatch)
	}
	if err := resource.CheckMethod(m.Func); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}

	ft := m.Func.Type()
	ret := placeholder.New()

	results := make([]reflect.Value, ft.NumOut())
	for i := range results {
		rt := ft.Out(i)
		if placeholderType.AssignableTo(rt) {
			v := reflect.New(rt).Elem()
			v.Set(reflect.ValueOf(ret))
			results[i] = v
			continue
		}
		results[i] = reflect.Zero(rt)
	}

	stub := reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
		return append([]reflect.Value(nil), results...)
	})

	return &resource.Member{
		Kind:     resource.KindStub,
		Func:     stub,
		Doc:      m.Doc,
		Original: m,
	}, nil
}
