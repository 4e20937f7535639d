package schema

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type defines the contract for node validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks node against the type, records failures in c under path,
	// and returns the coerced value. ok is false when the value is unusable.
	Validate(node *yaml.Node, path string, c *Collector) (value any, ok bool)
}

// --- Scalars ---

// StringType accepts any scalar and returns its text.
type StringType struct {
	nonEmpty bool
}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(node *yaml.Node, path string, c *Collector) (any, bool) {
	node = resolve(node)
	if node.Kind != yaml.ScalarNode {
		c.Add(path, "expected a string", nil, node.Line)
		return nil, false
	}
	v := node.Value
	if node.Tag == "!!null" && (v == "~" || strings.EqualFold(v, "null")) {
		v = ""
	}
	if t.nonEmpty && strings.TrimSpace(v) == "" {
		c.Add(path, "must not be empty", nil, node.Line)
		return nil, false
	}
	return v, true
}

// IntType accepts a scalar holding a base-10 integer.
type IntType struct {
	min *int
}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(node *yaml.Node, path string, c *Collector) (any, bool) {
	node = resolve(node)
	if node.Kind != yaml.ScalarNode {
		c.Add(path, "expected an integer", nil, node.Line)
		return nil, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(node.Value))
	if err != nil {
		c.Add(path, "expected an integer", node.Value, node.Line)
		return nil, false
	}
	if t.min != nil && i < *t.min {
		c.Add(path, "must be at least "+strconv.Itoa(*t.min), node.Value, node.Line)
		return nil, false
	}
	return i, true
}

// BoolType accepts true/false, yes/no, on/off and 1/0, ignoring case.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(node *yaml.Node, path string, c *Collector) (any, bool) {
	node = resolve(node)
	if node.Kind == yaml.ScalarNode {
		switch strings.ToLower(strings.TrimSpace(node.Value)) {
		case "true", "yes", "on", "1":
			return true, true
		case "false", "no", "off", "0":
			return false, true
		}
	}
	c.Add(path, "expected a boolean", scalarValue(node), node.Line)
	return nil, false
}

// EnumType accepts one of a fixed set of strings, ignoring case, and returns
// the canonical spelling.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enum(" + strings.Join(t.values, "|") + ")" }

func (t *EnumType) Validate(node *yaml.Node, path string, c *Collector) (any, bool) {
	node = resolve(node)
	if node.Kind == yaml.ScalarNode {
		for _, v := range t.values {
			if strings.EqualFold(strings.TrimSpace(node.Value), v) {
				return v, true
			}
		}
	}
	c.Add(path, "expected one of "+strings.Join(t.values, ", "), scalarValue(node), node.Line)
	return nil, false
}

// --- Collections ---

// SeqType validates every element of a sequence.
type SeqType struct {
	elem Type
}

func (t *SeqType) Name() string { return "[" + t.elem.Name() + "]" }

func (t *SeqType) Validate(node *yaml.Node, path string, c *Collector) (any, bool) {
	node = resolve(node)
	if node.Kind != yaml.SequenceNode {
		c.Add(path, "expected a list", scalarValue(node), node.Line)
		return nil, false
	}
	out := make([]any, 0, len(node.Content))
	ok := true
	for i, item := range node.Content {
		v, itemOK := t.elem.Validate(item, path+"["+strconv.Itoa(i)+"]", c)
		ok = ok && itemOK
		out = append(out, v)
	}
	return out, ok
}

// Field is one key of a MapType.
type Field struct {
	Key      string
	Type     Type
	Optional bool
}

// Required declares a key that must be present.
func Required(key string, t Type) Field { return Field{Key: key, Type: t} }

// Optional declares a key that may be absent.
func Optional(key string, t Type) Field { return Field{Key: key, Type: t, Optional: true} }

// MapType validates a mapping with a fixed set of keys. Unknown and duplicate
// keys are rejected.
type MapType struct {
	fields []Field
}

func (t *MapType) Name() string { return "map" }

func (t *MapType) Validate(node *yaml.Node, path string, c *Collector) (any, bool) {
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		c.Add(displayPath(path), "expected a mapping", scalarValue(node), node.Line)
		return nil, false
	}

	present := make(map[string]*yaml.Node, len(node.Content)/2)
	ok := true
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if _, known := t.field(k.Value); !known {
			c.Add(join(path, k.Value), "unexpected key", nil, k.Line)
			ok = false
			continue
		}
		if _, dup := present[k.Value]; dup {
			c.Add(join(path, k.Value), "duplicate key", nil, k.Line)
			ok = false
			continue
		}
		present[k.Value] = v
	}

	out := make(map[string]any, len(present))
	for _, f := range t.fields {
		v, found := present[f.Key]
		if !found {
			if !f.Optional {
				c.Add(join(path, f.Key), "required", nil, node.Line)
				ok = false
			}
			continue
		}
		val, fieldOK := f.Type.Validate(v, join(path, f.Key), c)
		if !fieldOK {
			ok = false
			continue
		}
		out[f.Key] = val
	}
	return out, ok
}

func (t *MapType) field(key string) (Field, bool) {
	for _, f := range t.fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// --- Constructors ---

// Str accepts any scalar.
func Str() Type { return &StringType{} }

// NonEmptyStr accepts a scalar that is not blank.
func NonEmptyStr() Type { return &StringType{nonEmpty: true} }

func Int() Type  { return &IntType{} }
func Bool() Type { return &BoolType{} }

// Enum accepts one of values, ignoring case.
func Enum(values ...string) Type { return &EnumType{values: values} }

// Seq accepts a list whose elements all match elem.
func Seq(elem Type) Type { return &SeqType{elem: elem} }

// Map accepts a mapping with exactly the declared fields.
func Map(fields ...Field) Type { return &MapType{fields: fields} }

// MinInt returns an integer type with a lower bound.
func MinInt(min int) Type { return &IntType{min: &min} }

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func scalarValue(node *yaml.Node) any {
	if node.Kind == yaml.ScalarNode {
		return node.Value
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "<document>"
	}
	return path
}
