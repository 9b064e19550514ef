// Package catalog loads resource types declared in a YAML catalog.
//
// A catalog describes resource types the way the test framework would define
// them: parents, data class, fields, sub-resources and methods. Methods are
// live: without a resource manager they fail with ErrResourceUnavailable,
// which is exactly what stubification removes.
//
// SECURITY: Catalog files are size limited and validated at the boundary.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/flavioaiello/resource-stubifier/pkg/hierarchy"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
)

// MaxCatalogFileSizeBytes is the maximum size of a catalog file (1MB).
const MaxCatalogFileSizeBytes = 1 * 1024 * 1024

// Names the catalog uses for the root types.
const (
	RootBase  = "BaseResource"
	RootModel = "Model"
)

// Errors.
var (
	ErrCatalogNotFound     = errors.New("catalog file not found")
	ErrCatalogTooLarge     = errors.New("catalog file exceeds maximum size")
	ErrInvalidYAML         = errors.New("invalid YAML syntax")
	ErrInvalidCatalog      = errors.New("invalid catalog")
	ErrUnknownReference    = errors.New("unknown type reference")
	ErrResourceUnavailable = errors.New("resource unavailable without a resource manager")
)

var (
	instanceType = reflect.TypeOf((*resource.Instance)(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// paramTypes is the closed set of parameter and result types.
var paramTypes = map[string]reflect.Type{
	"string":         reflect.TypeOf(""),
	"int":            reflect.TypeOf(0),
	"int64":          reflect.TypeOf(int64(0)),
	"float64":        reflect.TypeOf(float64(0)),
	"bool":           reflect.TypeOf(false),
	"any":            reflect.TypeOf((*any)(nil)).Elem(),
	"[]string":       reflect.TypeOf([]string(nil)),
	"[]any":          reflect.TypeOf([]any(nil)),
	"map[string]any": reflect.TypeOf(map[string]any(nil)),
}

func paramTypeList() string {
	names := make([]string, 0, len(paramTypes))
	for name := range paramTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// File is the YAML document of a catalog.
type File struct {
	Resources []TypeSpec `yaml:"resources" validate:"required,min=1,dive"`
}

// TypeSpec declares one resource type.
type TypeSpec struct {
	Name         string            `yaml:"name" validate:"required,ident"`
	Parents      []string          `yaml:"parents,omitempty" validate:"dive,ident"`
	DataClass    string            `yaml:"dataClass,omitempty" validate:"omitempty,ident"`
	Fields       map[string]any    `yaml:"fields,omitempty" validate:"dive,keys,ident,endkeys"`
	SubResources map[string]string `yaml:"subResources,omitempty" validate:"dive,keys,ident,endkeys,ident"`
	Methods      []MethodSpec      `yaml:"methods,omitempty" validate:"dive"`
}

// MethodSpec declares one method. Every method gets an implicit trailing
// error result.
type MethodSpec struct {
	Name     string   `yaml:"name" validate:"required,ident"`
	Doc      string   `yaml:"doc,omitempty"`
	Params   []string `yaml:"params,omitempty" validate:"dive,paramtype"`
	Returns  []string `yaml:"returns,omitempty" validate:"dive,paramtype"`
	Variadic bool     `yaml:"variadic,omitempty"`
}

// Catalog is a loaded set of resource types.
type Catalog struct {
	path  string
	specs []TypeSpec
	graph *hierarchy.Graph
	types map[string]*resource.Type
}

// Load reads and builds the catalog at path.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}

	// SECURITY: Check file size before reading to prevent DoS.
	if info.Size() > MaxCatalogFileSizeBytes {
		return nil, fmt.Errorf("%w: %s (%d bytes, max %d)",
			ErrCatalogTooLarge, path, info.Size(), MaxCatalogFileSizeBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	limitedReader := io.LimitReader(file, MaxCatalogFileSizeBytes+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if len(data) > MaxCatalogFileSizeBytes {
		return nil, fmt.Errorf("%w: %s", ErrCatalogTooLarge, path)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.path = path
	return c, nil
}

// Parse builds a catalog from YAML data.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, WrapValidationErrors(err))
	}

	c := &Catalog{
		specs: f.Resources,
		graph: hierarchy.NewGraph(RootBase, RootModel),
		types: make(map[string]*resource.Type, len(f.Resources)),
	}
	if err := c.build(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the file the catalog was loaded from, if any.
func (c *Catalog) Path() string {
	return c.path
}

// Graph returns the inheritance graph of the catalog.
func (c *Catalog) Graph() *hierarchy.Graph {
	return c.graph
}

// Type returns the type declared under name.
func (c *Catalog) Type(name string) (*resource.Type, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Names returns the declared type names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Discover implements discovery.Discoverer.
func (c *Catalog) Discover() (map[string]*resource.Type, error) {
	result := make(map[string]*resource.Type, len(c.types))
	for name, t := range c.types {
		result[name] = t
	}
	return result, nil
}

func (c *Catalog) build() error {
	byName := make(map[string]TypeSpec, len(c.specs))
	for _, spec := range c.specs {
		if spec.Name == RootBase || spec.Name == RootModel {
			return fmt.Errorf("%w: %s is reserved", ErrInvalidCatalog, spec.Name)
		}
		if err := c.graph.AddType(spec.Name, spec.Parents...); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		byName[spec.Name] = spec
	}

	order, err := c.graph.TopologicalSort()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	// Parents first, so every parent exists when a child is created.
	for _, name := range order {
		spec := byName[name]

		parents := make([]*resource.Type, 0, len(spec.Parents))
		for _, p := range spec.Parents {
			pt, err := c.resolve(p)
			if err != nil {
				return err
			}
			parents = append(parents, pt)
		}

		t := resource.NewType(name, parents...)
		for _, field := range sortedKeys(spec.Fields) {
			t.SetMember(field, resource.NewField(spec.Fields[field]))
		}
		for _, ms := range spec.Methods {
			if err := checkUnique(t, ms.Name); err != nil {
				return err
			}
			m, err := liveMethod(name, ms)
			if err != nil {
				return err
			}
			t.SetMember(ms.Name, m)
		}
		c.types[name] = t
	}

	// References that do not shape the hierarchy may point anywhere.
	for _, spec := range c.specs {
		t := c.types[spec.Name]
		if spec.DataClass != "" {
			dc, err := c.resolve(spec.DataClass)
			if err != nil {
				return err
			}
			t.SetDataClass(dc)
		}
		for _, member := range sortedKeys(spec.SubResources) {
			if err := checkUnique(t, member); err != nil {
				return err
			}
			sub, err := c.resolve(spec.SubResources[member])
			if err != nil {
				return err
			}
			t.SetMember(member, resource.NewNested(sub))
		}
	}

	return nil
}

// checkUnique rejects a member name already declared directly on t.
func checkUnique(t *resource.Type, name string) error {
	if m, exists := t.Member(name); exists {
		return fmt.Errorf("%w: %s.%s declared twice (already a %s)", ErrInvalidCatalog, t.Name(), name, m.Kind)
	}
	return nil
}

func (c *Catalog) resolve(name string) (*resource.Type, error) {
	switch name {
	case RootBase:
		return resource.Base, nil
	case RootModel:
		return resource.Model, nil
	}
	if t, ok := c.types[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownReference, name)
}

// liveMethod builds a method that fails because no resource manager is
// reachable.
func liveMethod(typeName string, ms MethodSpec) (*resource.Member, error) {
	if ms.Variadic && len(ms.Params) == 0 {
		return nil, fmt.Errorf("%w: %s.%s is variadic without parameters", ErrInvalidCatalog, typeName, ms.Name)
	}

	in := []reflect.Type{instanceType}
	for i, p := range ms.Params {
		pt := paramTypes[p]
		if ms.Variadic && i == len(ms.Params)-1 {
			pt = reflect.SliceOf(pt)
		}
		in = append(in, pt)
	}

	out := make([]reflect.Type, 0, len(ms.Returns)+1)
	for _, r := range ms.Returns {
		out = append(out, paramTypes[r])
	}
	out = append(out, errorType)

	ft := reflect.FuncOf(in, out, ms.Variadic)
	unavailable := fmt.Errorf("%w: %s.%s", ErrResourceUnavailable, typeName, ms.Name)

	fn := reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
		results := make([]reflect.Value, len(out))
		for i := range out[:len(out)-1] {
			results[i] = reflect.Zero(out[i])
		}
		errValue := reflect.New(errorType).Elem()
		errValue.Set(reflect.ValueOf(unavailable))
		results[len(out)-1] = errValue
		return results
	})

	return &resource.Member{Kind: resource.KindMethod, Func: fn, Doc: ms.Doc}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
