// Package report provides an audit trail of stubification runs.
//
// Records what was discovered, skipped and replaced, and who ran it, so a
// test run can show exactly which resource types were faked.
package report

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/flavioaiello/resource-stubifier/pkg/hierarchy"
	"github.com/flavioaiello/resource-stubifier/pkg/resource"
	"github.com/flavioaiello/resource-stubifier/pkg/stubify"
)

// TypeSummary describes one stubified type.
type TypeSummary struct {
	Name      string   `json:"name" yaml:"name"`
	Parents   []string `json:"parents,omitempty" yaml:"parents,omitempty"`
	Ancestors []string `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
	Children  []string `json:"children,omitempty" yaml:"children,omitempty"` // Declared derived types, with a graph only
	Replaced  []string `json:"replaced,omitempty" yaml:"replaced,omitempty"`
	Preserved []string `json:"preserved,omitempty" yaml:"preserved,omitempty"`
	Checked   bool     `json:"checked,omitempty" yaml:"checked,omitempty"`
}

// Record captures one stubification run.
type Record struct {
	Timestamp  time.Time     `json:"timestamp" yaml:"timestamp"`
	Source     string        `json:"source,omitempty" yaml:"source,omitempty"` // Catalog path or other discovery source
	Operator   string        `json:"operator" yaml:"operator"`                 // user@host
	Discovered int           `json:"discovered" yaml:"discovered"`
	Skipped    []string      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Types      []TypeSummary `json:"types" yaml:"types"`
}

// ToJSON serializes the record to JSON.
func (r Record) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToYAML serializes the record to YAML.
func (r Record) ToYAML() (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReplacedCount returns the number of replaced methods over all types.
func (r Record) ReplacedCount() int {
	n := 0
	for _, t := range r.Types {
		n += len(t.Replaced)
	}
	return n
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	graph *hierarchy.Graph
}

// WithGraph takes ancestry from a declared inheritance graph instead of the
// runtime types. Types the graph does not declare fall back to the runtime
// types.
func WithGraph(g *hierarchy.Graph) BuildOption {
	return func(o *buildOptions) {
		o.graph = g
	}
}

// Build creates a record from the state of s after a run over discovered
// resources.
func Build(s *stubify.Stubifier, source string, discovered int, opts ...BuildOption) Record {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	record := Record{
		Timestamp:  time.Now().UTC(),
		Source:     source,
		Operator:   operator(),
		Discovered: discovered,
		Skipped:    s.Skipped(),
	}

	for _, t := range s.VisitedTypes() {
		summary := summarize(t, o.graph)
		if result, ok := s.Result(t); ok {
			summary.Replaced = result.Replaced
			summary.Preserved = result.Preserved
		}
		record.Types = append(record.Types, summary)
	}

	return record
}

func summarize(t *resource.Type, g *hierarchy.Graph) TypeSummary {
	if g != nil {
		parents, err := g.Parents(t.Name())
		if err == nil {
			ancestors, _ := g.Ancestors(t.Name()) //nolint:errcheck // Declared, checked by Parents above
			children := g.Children(t.Name())
			sort.Strings(children)
			return TypeSummary{
				Name:      t.Name(),
				Parents:   nilIfEmpty(parents),
				Ancestors: nilIfEmpty(ancestors),
				Children:  nilIfEmpty(children),
			}
		}
	}

	return TypeSummary{
		Name:      t.Name(),
		Parents:   typeNames(t.Parents()),
		Ancestors: typeNames(t.Linearize()[1:]),
	}
}

func nilIfEmpty(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	return items
}

// MarkChecked flags the named type as verified by stubify.Check.
func (r *Record) MarkChecked(name string) {
	for i := range r.Types {
		if r.Types[i].Name == name {
			r.Types[i].Checked = true
		}
	}
}

func typeNames(types []*resource.Type) []string {
	if len(types) == 0 {
		return nil
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	return names
}

func operator() string {
	hostname, _ := os.Hostname() //nolint:errcheck // Empty hostname fallback is handled below
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}

	if hostname != "" {
		return user + "@" + hostname
	}
	return user
}

// Logger provides structured run logging.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates a report logger.
func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

// LogRecord logs a record summary and one entry per type.
func (l *Logger) LogRecord(record Record) {
	l.log.Info("stubification",
		zap.String("source", record.Source),
		zap.String("operator", record.Operator),
		zap.Time("timestamp", record.Timestamp),
		zap.Int("discovered", record.Discovered),
		zap.Strings("skipped", record.Skipped),
		zap.Int("types", len(record.Types)),
		zap.Int("replaced", record.ReplacedCount()),
	)

	for _, t := range record.Types {
		l.log.Debug("stubified_type",
			zap.String("type", t.Name),
			zap.Strings("ancestors", t.Ancestors),
			zap.Strings("replaced", t.Replaced),
			zap.Strings("preserved", t.Preserved),
			zap.Bool("checked", t.Checked),
		)
	}
}
