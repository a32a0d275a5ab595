package parquetread

import (
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
)

// RecordReader is the reader tree for one schema projection. It is built
// once per scan, rebinds to a new page source once per row group, and is
// pulled once per logical record. A RecordReader is not safe for concurrent
// use; concurrent scans each build their own tree.
type RecordReader struct {
	root      *StructReader
	remaining int64
	bound     bool
}

// NewRecordReader builds the reader tree for the logical schema projection
// over the given physical file schema. The tree mirrors the logical schema
// one to one; leaf columns are resolved by path in the physical schema.
func NewRecordReader(sc *schema.Schema, phys *parquet.Schema) (*RecordReader, error) {
	b := &treeBuilder{phys: phys}
	root, err := b.buildStruct(sc.Root(), phys, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	return &RecordReader{root: root}, nil
}

// SetPageSource binds the whole tree to a new row group. It must be called
// before the first Read of a group; calling it again starts a fresh group.
func (r *RecordReader) SetPageSource(src PageSource) {
	r.root.SetPageSource(src)
	r.remaining = src.NumRows()
	r.bound = true
}

// Read assembles the next logical record of the bound row group, returning
// io.EOF once the group's records are exhausted. A *DecodeError aborts the
// row group read; it is a data or schema mismatch and is not retried here.
func (r *RecordReader) Read() (rec Record, err error) {
	if !r.bound {
		return Record{}, &DecodeError{msg: "no page source bound"}
	}
	if r.remaining <= 0 {
		return Record{}, io.EOF
	}
	defer func() {
		if p := recover(); p != nil {
			de, ok := p.(*DecodeError)
			if !ok {
				panic(p)
			}
			err = de
		}
	}()
	rec = r.root.read()
	r.remaining--
	return rec, nil
}

// Columns exposes the leaf cursors of the tree in schema order.
func (r *RecordReader) Columns() []*ColumnCursor {
	return r.root.Columns()
}

type treeBuilder struct {
	phys *parquet.Schema
}

// fieldNode finds the physical child node by name under a physical group.
func fieldNode(node parquet.Node, name string) (parquet.Node, bool) {
	for _, f := range node.Fields() {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

// buildStruct builds readers for st's fields over the physical group node.
// defLevel and repLevel are the levels contributed by the path above the
// struct's fields.
func (b *treeBuilder) buildStruct(st schema.StructType, node parquet.Node, path []string, defLevel, repLevel int) (*StructReader, error) {
	readers := make([]ValueReader, 0, len(st.Fields))
	for _, f := range st.Fields {
		child, ok := fieldNode(node, f.Name)
		if !ok {
			return nil, fmt.Errorf("field %q (id %d) not found in file schema at %s", f.Name, f.ID, pathString(path))
		}
		r, err := b.buildField(f, child, append(path[:len(path):len(path)], f.Name), defLevel, repLevel)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
	}
	return NewStructReader(st, defLevel, readers)
}

// buildField wraps the field's content reader in an OptionReader when the
// field is optional. The option tests against the enclosing level; the
// field's own content sits one definition level deeper.
func (b *treeBuilder) buildField(f schema.Field, node parquet.Node, path []string, defLevel, repLevel int) (ValueReader, error) {
	if f.Required {
		return b.buildContent(f, node, path, defLevel, repLevel)
	}
	inner, err := b.buildContent(f, node, path, defLevel+1, repLevel)
	if err != nil {
		return nil, err
	}
	return NewOptionReader(defLevel, inner), nil
}

func (b *treeBuilder) buildContent(f schema.Field, node parquet.Node, path []string, defLevel, repLevel int) (ValueReader, error) {
	switch t := f.Type.(type) {
	case schema.PrimitiveType:
		return b.buildPrimitive(f.Name, t, path)

	case schema.StructType:
		return b.buildStruct(t, node, path, defLevel, repLevel)

	case schema.ListType:
		// three-level list layout: group { repeated group list { element } }
		listNode, ok := fieldNode(node, "list")
		if !ok {
			return nil, fmt.Errorf("field %q: no repeated list group at %s", f.Name, pathString(path))
		}
		elemNode, ok := fieldNode(listNode, "element")
		if !ok {
			return nil, fmt.Errorf("field %q: no list element at %s", f.Name, pathString(path))
		}
		elemPath := append(append(path[:len(path):len(path)], "list"), "element")
		// the repeated step adds one definition and one repetition level
		element, err := b.buildField(t.Element, elemNode, elemPath, defLevel+1, repLevel+1)
		if err != nil {
			return nil, err
		}
		return NewListReader(defLevel, repLevel, element), nil

	case schema.MapType:
		kvNode, ok := fieldNode(node, "key_value")
		if !ok {
			return nil, fmt.Errorf("field %q: no repeated key_value group at %s", f.Name, pathString(path))
		}
		keyNode, ok := fieldNode(kvNode, "key")
		if !ok {
			return nil, fmt.Errorf("field %q: no map key at %s", f.Name, pathString(path))
		}
		valueNode, ok := fieldNode(kvNode, "value")
		if !ok {
			return nil, fmt.Errorf("field %q: no map value at %s", f.Name, pathString(path))
		}
		kvPath := append(path[:len(path):len(path)], "key_value")
		key, err := b.buildField(t.Key, keyNode, append(kvPath[:len(kvPath):len(kvPath)], "key"), defLevel+1, repLevel+1)
		if err != nil {
			return nil, err
		}
		value, err := b.buildField(t.Value, valueNode, append(kvPath[:len(kvPath):len(kvPath)], "value"), defLevel+1, repLevel+1)
		if err != nil {
			return nil, err
		}
		return NewMapReader(defLevel, repLevel, key, value), nil

	default:
		return nil, fmt.Errorf("field %q: unsupported logical type %s", f.Name, f.Type)
	}
}

func (b *treeBuilder) buildPrimitive(name string, t schema.PrimitiveType, path []string) (ValueReader, error) {
	col, ok := b.phys.Lookup(path...)
	if !ok {
		return nil, fmt.Errorf("field %q: column %s not found in file schema", name, pathString(path))
	}
	kind := col.Node.Type().Kind()
	if expected, ok := physicalKind(t); ok && expected != kind {
		// fixed-length byte arrays satisfy binary fields
		if !(expected == parquet.ByteArray && kind == parquet.FixedLenByteArray) {
			return nil, fmt.Errorf("field %q: logical type %s does not match physical type %s", name, t, kind)
		}
	}
	desc := ColumnDescriptor{
		Path:               path,
		ColumnIndex:        col.ColumnIndex,
		Kind:               kind,
		UTF8:               t == schema.StringType,
		MaxDefinitionLevel: col.MaxDefinitionLevel,
		MaxRepetitionLevel: col.MaxRepetitionLevel,
	}
	return NewPrimitiveReader(desc), nil
}

func physicalKind(t schema.PrimitiveType) (parquet.Kind, bool) {
	switch t {
	case schema.BooleanType:
		return parquet.Boolean, true
	case schema.Int32Type:
		return parquet.Int32, true
	case schema.Int64Type:
		return parquet.Int64, true
	case schema.Float32Type:
		return parquet.Float, true
	case schema.Float64Type:
		return parquet.Double, true
	case schema.StringType, schema.BinaryType:
		return parquet.ByteArray, true
	default:
		return 0, false
	}
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, ".")
}
