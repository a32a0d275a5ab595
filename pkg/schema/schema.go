package schema

import (
	"fmt"
	"strings"
)

// Type is the closed set of logical types a field can carry: a primitive,
// or one of the nested kinds (struct, list, map).
type Type interface {
	String() string
	isType()
}

type PrimitiveType int

const (
	BooleanType PrimitiveType = iota
	Int32Type
	Int64Type
	Float32Type
	Float64Type
	StringType
	BinaryType
)

func (p PrimitiveType) isType() {}

func (p PrimitiveType) String() string {
	switch p {
	case BooleanType:
		return "boolean"
	case Int32Type:
		return "int"
	case Int64Type:
		return "long"
	case Float32Type:
		return "float"
	case Float64Type:
		return "double"
	case StringType:
		return "string"
	case BinaryType:
		return "binary"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// StructType is an ordered collection of named fields.
type StructType struct {
	Fields []Field
}

func (s StructType) isType() {}

func (s StructType) String() string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, f.String())
	}
	return "struct<" + strings.Join(parts, ", ") + ">"
}

// FieldByName returns the field with the given name, if present.
func (s StructType) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ListType holds a single element field. The element field's name is fixed
// by the physical layout; only its id, type and optionality matter.
type ListType struct {
	Element Field
}

func (l ListType) isType() {}

func (l ListType) String() string {
	return "list<" + l.Element.Type.String() + ">"
}

// MapType holds a key field and a value field. Keys are always required.
type MapType struct {
	Key   Field
	Value Field
}

func (m MapType) isType() {}

func (m MapType) String() string {
	return "map<" + m.Key.Type.String() + ", " + m.Value.Type.String() + ">"
}

// Field is one named, id-bearing step of the schema tree. Ids, not names,
// are the stable join key across schema evolution.
type Field struct {
	ID       int
	Name     string
	Type     Type
	Required bool
}

func (f Field) String() string {
	req := "optional"
	if f.Required {
		req = "required"
	}
	return fmt.Sprintf("%d: %s: %s %s", f.ID, f.Name, req, f.Type.String())
}

// Schema is a named tree of fields rooted at an anonymous struct.
type Schema struct {
	root StructType
}

// New builds a schema from top-level fields and validates id and name
// uniqueness across the whole tree.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{root: StructType{Fields: fields}}
	ids := make(map[int]string)
	if err := checkFields(s.root.Fields, ids); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is New for statically known schemas, typically in tests.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func checkFields(fields []Field, ids map[int]string) error {
	names := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			return fmt.Errorf("field %q has no type", f.Name)
		}
		if names[f.Name] {
			return fmt.Errorf("duplicate field name %q", f.Name)
		}
		names[f.Name] = true
		if prev, ok := ids[f.ID]; ok {
			return fmt.Errorf("duplicate field id %d: %q and %q", f.ID, prev, f.Name)
		}
		ids[f.ID] = f.Name
		if err := checkType(f.Type, ids); err != nil {
			return err
		}
	}
	return nil
}

func checkType(t Type, ids map[int]string) error {
	switch t := t.(type) {
	case StructType:
		return checkFields(t.Fields, ids)
	case ListType:
		return checkFields([]Field{t.Element}, ids)
	case MapType:
		if !t.Key.Required {
			return fmt.Errorf("map key %q must be required", t.Key.Name)
		}
		return checkFields([]Field{t.Key, t.Value}, ids)
	}
	return nil
}

// Fields returns the top-level fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.root.Fields
}

// Root returns the anonymous struct at the root of the schema.
func (s *Schema) Root() StructType {
	return s.root
}

func (s *Schema) String() string {
	return s.root.String()
}

// Select returns a projection containing only the top-level fields with the
// given ids, in schema order. Nested content of a selected field is kept
// whole. Unknown ids are an error.
func (s *Schema) Select(ids ...int) (*Schema, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var fields []Field
	for _, f := range s.root.Fields {
		if want[f.ID] {
			fields = append(fields, f)
			delete(want, f.ID)
		}
	}
	if len(want) > 0 {
		for id := range want {
			return nil, fmt.Errorf("no field with id %d", id)
		}
	}
	return &Schema{root: StructType{Fields: fields}}, nil
}
