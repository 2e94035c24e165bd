package rule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownKind is wrapped by errors for rule types missing from the registry.
var ErrUnknownKind = errors.New("unknown rule type")

// Definition is one raw entry of a guide's rules list, before validation.
type Definition struct {
	Index  int            // position in the rules list
	Line   int            // source line in the guide, 0 when unknown
	Fields map[string]any // decoded YAML mapping
}

// ID returns the id field when it is a string.
func (d Definition) ID() string {
	s, _ := d.Fields["id"].(string)
	return s
}

// Kind returns the type field when it is a string.
func (d Definition) Kind() Kind {
	s, _ := d.Fields["type"].(string)
	return Kind(s)
}

// SchemaError reports the first schema violation found in a definition. It
// names the rule by id, or by list index when the id itself is unusable.
type SchemaError struct {
	RuleID string
	Index  int
	Field  string
	Msg    string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("rule %q: %s", e.RuleID, e.Msg)
	}
	return fmt.Sprintf("rules[%d]: %s", e.Index, e.Msg)
}

func (e *SchemaError) Unwrap() error { return e.Err }

type fieldType int

const (
	fieldString fieldType = iota
	fieldBool
)

func (t fieldType) String() string {
	if t == fieldBool {
		return "a boolean"
	}
	return "a string"
}

// kindSpec is the registry entry for one rule kind: its schema and the
// constructor that turns a validated definition into a typed rule.
type kindSpec struct {
	required []string
	optional map[string]fieldType
	build    func(b Base, f map[string]any) Rule
}

// commonRequired are checked, in order, on every definition.
var commonRequired = []string{"id", "description", "type"}

// commonOptional applies to every kind.
var commonOptional = map[string]fieldType{"division": fieldString}

var kindOrder = []Kind{KindFileExists, KindDependencyPresent, KindTextIncludes}

var registry = map[Kind]kindSpec{
	KindFileExists: {
		required: []string{"path"},
		build: func(b Base, f map[string]any) Rule {
			return FileExists{Base: b, Path: str(f, "path")}
		},
	},
	KindDependencyPresent: {
		required: []string{"file", "package"},
		optional: map[string]fieldType{"version": fieldString},
		build: func(b Base, f map[string]any) Rule {
			return DependencyPresent{
				Base:    b,
				File:    str(f, "file"),
				Package: str(f, "package"),
				Version: str(f, "version"),
			}
		},
	},
	KindTextIncludes: {
		required: []string{"file", "text"},
		optional: map[string]fieldType{"case_sensitive": fieldBool},
		build: func(b Base, f map[string]any) Rule {
			cs := true
			if v, ok := f["case_sensitive"].(bool); ok {
				cs = v
			}
			return TextIncludes{
				Base:          b,
				File:          str(f, "file"),
				Text:          str(f, "text"),
				CaseSensitive: cs,
			}
		},
	},
}

// Kinds returns the supported rule kinds in registry order.
func Kinds() []Kind {
	out := make([]Kind, len(kindOrder))
	copy(out, kindOrder)
	return out
}

func supportedKinds() string {
	names := make([]string, len(kindOrder))
	for i, k := range kindOrder {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Validate checks a definition against the common fields and its kind's
// schema. Unknown fields are rejected.
func Validate(d Definition) error {
	id := d.ID()
	fieldErr := func(field, msg string) error {
		return &SchemaError{RuleID: id, Index: d.Index, Field: field, Msg: msg}
	}

	for _, name := range commonRequired {
		v, ok := d.Fields[name]
		if !ok || v == nil {
			return fieldErr(name, fmt.Sprintf("missing required field: '%s'", name))
		}
		s, isStr := v.(string)
		if !isStr {
			return fieldErr(name, fmt.Sprintf("field '%s' must be a string, got %s", name, typeName(v)))
		}
		if strings.TrimSpace(s) == "" {
			return fieldErr(name, fmt.Sprintf("field '%s' must not be empty", name))
		}
	}

	kind := d.Kind()
	spec, ok := registry[kind]
	if !ok {
		return &SchemaError{
			RuleID: id,
			Index:  d.Index,
			Field:  "type",
			Msg:    fmt.Sprintf("unknown rule type '%s' (supported types: %s)", kind, supportedKinds()),
			Err:    ErrUnknownKind,
		}
	}

	for _, name := range spec.required {
		v, ok := d.Fields[name]
		if !ok || v == nil {
			return fieldErr(name, fmt.Sprintf("rule of type '%s' missing required field: '%s'", kind, name))
		}
		s, isStr := v.(string)
		if !isStr {
			return fieldErr(name, fmt.Sprintf("field '%s' must be a string, got %s", name, typeName(v)))
		}
		if s == "" {
			return fieldErr(name, fmt.Sprintf("field '%s' must not be empty", name))
		}
	}

	// Remaining keys: optional fields are type-checked, anything else is unknown.
	known := make(map[string]bool, len(commonRequired)+len(spec.required))
	for _, name := range commonRequired {
		known[name] = true
	}
	for _, name := range spec.required {
		known[name] = true
	}
	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		if known[name] {
			continue
		}
		want, ok := spec.optional[name]
		if !ok {
			want, ok = commonOptional[name]
		}
		if !ok {
			return fieldErr(name, fmt.Sprintf("unknown field '%s' for rule type '%s'", name, kind))
		}
		v := d.Fields[name]
		if v == nil {
			continue
		}
		if !hasType(v, want) {
			return fieldErr(name, fmt.Sprintf("field '%s' must be %s, got %s", name, want, typeName(v)))
		}
	}

	return nil
}

// Create validates a definition and builds the typed rule for its kind.
func Create(d Definition) (Rule, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}
	spec := registry[d.Kind()]
	b := Base{
		ID:          d.ID(),
		Description: str(d.Fields, "description"),
		Division:    str(d.Fields, "division"),
	}
	return spec.build(b, d.Fields), nil
}

func str(f map[string]any, key string) string {
	s, _ := f[key].(string)
	return s
}

func hasType(v any, t fieldType) bool {
	switch t {
	case fieldBool:
		_, ok := v.(bool)
		return ok
	default:
		_, ok := v.(string)
		return ok
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
