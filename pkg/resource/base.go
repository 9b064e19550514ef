package resource

import (
	"context"
	"fmt"
	"sort"
)

// Structural hook names declared on Base.
const (
	HookSetSubResources    = "SetSubResources"
	HookGetSubResources    = "GetSubResources"
	HookCreateSubResources = "CreateSubResources"
	HookRequest            = "Request"
)

// Manager hands out the backing data of live resources.
type Manager interface {
	// Request locks the named resource and returns its data.
	Request(ctx context.Context, resourceType string) (any, error)
}

// Roots of every resource hierarchy. They are never stubbed.
var (
	// Base is the base resource type.
	Base = newBase()
	// Model is the generic data-model base type.
	Model = NewType("Model")
)

func newBase() *Type {
	t := NewType("BaseResource")
	t.SetInit(baseInit)

	t.SetMember(HookRequest, mustMethod(request,
		"Request the resource data from a resource manager."))
	t.SetMember(HookCreateSubResources, mustMethod(createSubResources,
		"Construct every declared sub-resource without attaching it."))
	t.SetMember(HookSetSubResources, mustMethod(setSubResources,
		"Construct the declared sub-resources and attach them to the instance."))
	t.SetMember(HookGetSubResources, mustMethod(getSubResources,
		"Return the attached sub-resources in name order."))

	return t
}

// baseInit expects a Manager as the first argument and requests the resource
// data through it.
func baseInit(inst *Instance, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s", ErrNoResourceManager, inst.typ.name)
	}
	mgr, ok := args[0].(Manager)
	if !ok || mgr == nil {
		return fmt.Errorf("%w: %s", ErrNoResourceManager, inst.typ.name)
	}
	inst.manager = mgr

	results, err := inst.Call(HookRequest, mgr)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		inst.Data = results[0]
	}
	inst.Name = inst.typ.name

	_, err = inst.Call(HookSetSubResources)
	return err
}

func request(inst *Instance, mgr Manager) (any, error) {
	if mgr == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoResourceManager, inst.typ.name)
	}
	return mgr.Request(context.Background(), inst.typ.name)
}

func createSubResources(inst *Instance) (map[string]*Instance, error) {
	subs := make(map[string]*Instance)

	for _, n := range inst.typ.Linearize() {
		for _, name := range n.order {
			m := n.members[name]
			if m.Kind != KindNested {
				continue
			}
			if _, done := subs[name]; done {
				continue
			}

			var args []any
			if inst.manager != nil {
				args = append(args, inst.manager)
			}
			sub, err := New(m.Type, args...)
			if err != nil {
				return nil, fmt.Errorf("sub-resource %s of %s: %w", name, inst.typ.name, err)
			}
			subs[name] = sub
		}
	}

	return subs, nil
}

func setSubResources(inst *Instance) error {
	results, err := inst.Call(HookCreateSubResources)
	if err != nil {
		return err
	}

	inst.subs = inst.subs[:0]
	if len(results) == 0 {
		return nil
	}
	subs, ok := results[0].(map[string]*Instance)
	if !ok {
		return nil
	}

	for name, sub := range subs {
		inst.fields[name] = sub
		inst.subs = append(inst.subs, name)
	}
	sort.Strings(inst.subs)
	return nil
}

func getSubResources(inst *Instance) []*Instance {
	result := make([]*Instance, 0, len(inst.subs))
	for _, name := range inst.subs {
		if sub, ok := inst.fields[name].(*Instance); ok {
			result = append(result, sub)
		}
	}
	return result
}
