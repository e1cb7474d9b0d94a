package llmgateway

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/thinking.yaml
var defaultThinkingYAML []byte

// ThinkingShape is the kind of parameter a model family understands.
type ThinkingShape string

const (
	// ShapeBudget is a numeric thinking budget in tokens.
	ShapeBudget ThinkingShape = "budget"

	// ShapeLevel is a qualitative tag (one of the level names, possibly remapped).
	ShapeLevel ThinkingShape = "level"

	// ShapeToggle is a boolean enable flag; the level is ignored.
	ShapeToggle ThinkingShape = "toggle"
)

// ThinkingTable is the static model-family -> level -> parameter mapping.
// It is read-only once handed to NewResolver.
type ThinkingTable struct {
	Version       string                    `yaml:"version"`
	LastUpdated   string                    `yaml:"last_updated"`
	DefaultFamily string                    `yaml:"default_family"`
	Families      map[string]ThinkingFamily `yaml:"families"`
}

// ThinkingFamily describes how one model family exposes reasoning.
type ThinkingFamily struct {
	Prefixes []string               `yaml:"prefixes"`
	Shape    ThinkingShape          `yaml:"shape"`
	Budgets  map[EffortLevel]int    `yaml:"budgets"`
	Levels   map[EffortLevel]string `yaml:"levels"`

	// Enabled is only consulted for the toggle shape. Nil means true.
	Enabled *bool `yaml:"enabled"`
}

// ThinkingParameters is the backend-specific reasoning configuration
// resolved for one (model, level) pair.
type ThinkingParameters struct {
	// Model is the model the parameters were resolved for.
	Model string

	// Family is the table family that matched (or the default family).
	Family string

	// Shape selects which of the fields below carries the value.
	Shape ThinkingShape

	// Level is the requested effort level.
	Level EffortLevel

	// BudgetTokens is set for ShapeBudget.
	BudgetTokens int

	// LevelTag is set for ShapeLevel.
	LevelTag string

	// Enabled reports whether reasoning should be switched on at all.
	Enabled bool

	// Defaulted is true when no family prefix matched the model and the
	// table's default family was used.
	Defaulted bool
}

// Active reports whether the parameters ask the backend to reason.
// A nil receiver is inactive.
func (p *ThinkingParameters) Active() bool {
	return p != nil && p.Enabled
}

// LoadThinkingTable parses and validates a YAML thinking table.
func LoadThinkingTable(data []byte) (*ThinkingTable, error) {
	var table ThinkingTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thinking table: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// LoadThinkingTableFile reads a thinking table from path.
// This allows operators to override the embedded table.
func LoadThinkingTableFile(path string) (*ThinkingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thinking table: %w", err)
	}
	return LoadThinkingTable(data)
}

// DefaultThinkingTable returns the table embedded in the binary.
func DefaultThinkingTable() (*ThinkingTable, error) {
	return LoadThinkingTable(defaultThinkingYAML)
}

func (t *ThinkingTable) validate() error {
	if len(t.Families) == 0 {
		return fmt.Errorf("thinking table: no families defined")
	}
	if _, ok := t.Families[t.DefaultFamily]; !ok {
		return fmt.Errorf("thinking table: default_family %q is not defined", t.DefaultFamily)
	}

	levels := []EffortLevel{EffortLow, EffortMedium, EffortHigh}
	for name, fam := range t.Families {
		switch fam.Shape {
		case ShapeBudget:
			for _, l := range levels {
				if fam.Budgets[l] <= 0 {
					return fmt.Errorf("thinking table: family %q has no positive budget for %q", name, l)
				}
			}
		case ShapeLevel:
			for l, tag := range fam.Levels {
				if !l.IsValid() || !EffortLevel(tag).IsValid() {
					return fmt.Errorf("thinking table: family %q maps %q to invalid level %q", name, l, tag)
				}
			}
		case ShapeToggle:
		default:
			return fmt.Errorf("thinking table: family %q has unknown shape %q", name, fam.Shape)
		}
		for _, prefix := range fam.Prefixes {
			if prefix == "" {
				return fmt.Errorf("thinking table: family %q has an empty prefix", name)
			}
		}
	}
	return nil
}

type familyPrefix struct {
	prefix string
	family string
}

// Resolver maps (model, effort level) to ThinkingParameters.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	table    *ThinkingTable
	prefixes []familyPrefix
}

// NewResolver builds a resolver over table.
func NewResolver(table *ThinkingTable) (*Resolver, error) {
	if table == nil {
		return nil, fmt.Errorf("thinking table is required")
	}
	if err := table.validate(); err != nil {
		return nil, err
	}

	r := &Resolver{table: table}
	for name, fam := range table.Families {
		for _, prefix := range fam.Prefixes {
			r.prefixes = append(r.prefixes, familyPrefix{prefix: prefix, family: name})
		}
	}

	// Longest prefix first; ties broken by family name so matching never
	// depends on map iteration order.
	sort.Slice(r.prefixes, func(i, j int) bool {
		a, b := r.prefixes[i], r.prefixes[j]
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		if a.prefix != b.prefix {
			return a.prefix < b.prefix
		}
		return a.family < b.family
	})

	return r, nil
}

// DefaultResolver returns a resolver over the embedded table.
func DefaultResolver() (*Resolver, error) {
	table, err := DefaultThinkingTable()
	if err != nil {
		return nil, err
	}
	return NewResolver(table)
}

// FamilyFor returns the family name model resolves to, falling back to the
// table's default family.
func (r *Resolver) FamilyFor(model string) string {
	name, _ := r.lookup(model)
	return name
}

func (r *Resolver) lookup(model string) (string, bool) {
	for _, fp := range r.prefixes {
		if strings.HasPrefix(model, fp.prefix) {
			return fp.family, true
		}
	}
	return r.table.DefaultFamily, false
}

// Resolve computes the thinking parameters for model at level.
func (r *Resolver) Resolve(model string, level EffortLevel) (ThinkingParameters, error) {
	if !level.IsValid() {
		return ThinkingParameters{}, &ValidationError{
			Field:  "level",
			Value:  level,
			Reason: "must be 'low', 'medium', or 'high'",
			Err:    ErrInvalidRequest,
		}
	}

	name, matched := r.lookup(model)
	fam := r.table.Families[name]

	params := ThinkingParameters{
		Model:     model,
		Family:    name,
		Shape:     fam.Shape,
		Level:     level,
		Enabled:   true,
		Defaulted: !matched,
	}

	switch fam.Shape {
	case ShapeBudget:
		params.BudgetTokens = fam.Budgets[level]
	case ShapeLevel:
		params.LevelTag = string(level)
		if tag, ok := fam.Levels[level]; ok {
			params.LevelTag = tag
		}
	case ShapeToggle:
		if fam.Enabled != nil {
			params.Enabled = *fam.Enabled
		}
	}

	return params, nil
}
