package schema

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ToParquet converts the logical schema into the physical parquet schema the
// projection layer binds reader trees against. Lists use the three-level
// LIST layout, maps the key_value layout; optionality maps to OPTIONAL
// repetition.
func (s *Schema) ToParquet(name string) (*parquet.Schema, error) {
	root := parquet.Group{}
	for _, f := range s.root.Fields {
		node, err := toNode(f)
		if err != nil {
			return nil, err
		}
		root[f.Name] = node
	}
	return parquet.NewSchema(name, root), nil
}

func toNode(f Field) (parquet.Node, error) {
	node, err := toContentNode(f)
	if err != nil {
		return nil, err
	}
	if !f.Required {
		node = parquet.Optional(node)
	}
	return node, nil
}

func toContentNode(f Field) (parquet.Node, error) {
	switch t := f.Type.(type) {
	case PrimitiveType:
		return leafNode(t)

	case StructType:
		group := parquet.Group{}
		for _, child := range t.Fields {
			node, err := toNode(child)
			if err != nil {
				return nil, err
			}
			group[child.Name] = node
		}
		return group, nil

	case ListType:
		elem, err := toNode(t.Element)
		if err != nil {
			return nil, err
		}
		return parquet.List(elem), nil

	case MapType:
		key, err := toContentNode(t.Key)
		if err != nil {
			return nil, err
		}
		value, err := toNode(t.Value)
		if err != nil {
			return nil, err
		}
		return parquet.Map(key, value), nil

	default:
		return nil, fmt.Errorf("field %q: unsupported type %s", f.Name, f.Type)
	}
}

func leafNode(t PrimitiveType) (parquet.Node, error) {
	switch t {
	case BooleanType:
		return parquet.Leaf(parquet.BooleanType), nil
	case Int32Type:
		return parquet.Leaf(parquet.Int32Type), nil
	case Int64Type:
		return parquet.Leaf(parquet.Int64Type), nil
	case Float32Type:
		return parquet.Leaf(parquet.FloatType), nil
	case Float64Type:
		return parquet.Leaf(parquet.DoubleType), nil
	case StringType:
		return parquet.String(), nil
	case BinaryType:
		return parquet.Leaf(parquet.ByteArrayType), nil
	default:
		return nil, fmt.Errorf("unsupported primitive type %s", t)
	}
}

// FromParquet infers a logical schema from a physical parquet schema. Field
// ids are assigned in depth-first order; files carrying their own id
// metadata keep ids through the logical schema they were written from
// instead.
func FromParquet(phys *parquet.Schema) (*Schema, error) {
	nextID := 0
	fields, err := fromGroup(phys.Fields(), &nextID)
	if err != nil {
		return nil, err
	}
	return New(fields...)
}

func fromGroup(physFields []parquet.Field, nextID *int) ([]Field, error) {
	fields := make([]Field, 0, len(physFields))
	for _, pf := range physFields {
		f, err := fromNode(pf.Name(), pf, nextID)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func fromNode(name string, node parquet.Node, nextID *int) (Field, error) {
	f := Field{ID: *nextID, Name: name, Required: !node.Optional()}
	*nextID++

	if node.Leaf() {
		t, err := fromLeaf(node)
		if err != nil {
			return Field{}, fmt.Errorf("column %q: %w", name, err)
		}
		f.Type = t
		return f, nil
	}

	// detect the LIST and MAP group layouts by shape
	if children := node.Fields(); len(children) == 1 && children[0].Repeated() && !children[0].Leaf() {
		repeated := children[0]
		inner := repeated.Fields()
		switch {
		case repeated.Name() == "key_value" && len(inner) == 2:
			keyNode := fieldNamed(inner, "key")
			valueNode := fieldNamed(inner, "value")
			if keyNode == nil || valueNode == nil {
				return Field{}, fmt.Errorf("column %q: malformed key_value group", name)
			}
			key, err := fromNode("key", keyNode, nextID)
			if err != nil {
				return Field{}, err
			}
			key.Required = true
			value, err := fromNode("value", valueNode, nextID)
			if err != nil {
				return Field{}, err
			}
			f.Type = MapType{Key: key, Value: value}
			return f, nil
		case len(inner) == 1:
			elem, err := fromNode(inner[0].Name(), inner[0], nextID)
			if err != nil {
				return Field{}, err
			}
			f.Type = ListType{Element: elem}
			return f, nil
		}
	}

	fields, err := fromGroup(node.Fields(), nextID)
	if err != nil {
		return Field{}, err
	}
	f.Type = StructType{Fields: fields}
	return f, nil
}

func fieldNamed(fields []parquet.Field, name string) parquet.Field {
	for _, f := range fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func fromLeaf(node parquet.Node) (Type, error) {
	kind := node.Type().Kind()
	switch kind {
	case parquet.Boolean:
		return BooleanType, nil
	case parquet.Int32:
		return Int32Type, nil
	case parquet.Int64:
		return Int64Type, nil
	case parquet.Float:
		return Float32Type, nil
	case parquet.Double:
		return Float64Type, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		if lt := node.Type().LogicalType(); lt != nil && lt.UTF8 != nil {
			return StringType, nil
		}
		return BinaryType, nil
	default:
		return nil, fmt.Errorf("unsupported physical type %s", kind)
	}
}
