package parquetread

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
)

// ValueReader is the uniform contract shared by every node of a reader
// tree: pull one value, expose the primary cursor used for level tests,
// expose every leaf cursor the node transitively depends on, and rebind all
// of them to a new row group.
//
// The variant set is closed: primitive, option, list, map and struct cover
// the nesting grammar of the schema.
type ValueReader interface {
	// Read consumes the triples for one occurrence of this node's value.
	// A decode fault aborts the read by panicking with a *DecodeError,
	// recovered at the tree root.
	Read() any

	// Column returns the representative cursor whose levels decide this
	// node's own optionality and repetition.
	Column() *ColumnCursor

	// Columns returns every leaf cursor under this node, in schema order.
	Columns() []*ColumnCursor

	// SetPageSource rebinds every leaf cursor to a new row group.
	SetPageSource(src PageSource)
}

// PrimitiveReader adapts one column cursor into a typed value pull. Levels
// are interpreted by enclosing readers, never here.
type PrimitiveReader struct {
	desc     ColumnDescriptor
	column   *ColumnCursor
	children []*ColumnCursor
}

func NewPrimitiveReader(desc ColumnDescriptor) *PrimitiveReader {
	column := NewColumnCursor(desc)
	return &PrimitiveReader{
		desc:     desc,
		column:   column,
		children: []*ColumnCursor{column},
	}
}

func (p *PrimitiveReader) Read() any {
	return p.column.Next()
}

func (p *PrimitiveReader) ReadBoolean() bool     { return p.column.NextBoolean() }
func (p *PrimitiveReader) ReadInt32() int32      { return p.column.NextInt32() }
func (p *PrimitiveReader) ReadInt64() int64      { return p.column.NextInt64() }
func (p *PrimitiveReader) ReadFloat32() float32  { return p.column.NextFloat32() }
func (p *PrimitiveReader) ReadFloat64() float64  { return p.column.NextFloat64() }
func (p *PrimitiveReader) ReadByteArray() []byte { return p.column.NextByteArray() }
func (p *PrimitiveReader) ReadString() string    { return p.column.NextString() }

func (p *PrimitiveReader) Column() *ColumnCursor {
	return p.column
}

func (p *PrimitiveReader) Columns() []*ColumnCursor {
	return p.children
}

func (p *PrimitiveReader) SetPageSource(src PageSource) {
	p.column.SetPageSource(src)
}

// OptionReader makes its inner reader logically optional. This is the sole
// mechanism for representing an absent optional field: when the next triple's
// definition level does not exceed the option's own level, every leaf cursor
// under the inner reader consumes one null triple to stay in lockstep.
type OptionReader struct {
	definitionLevel int
	reader          ValueReader
	column          *ColumnCursor
	children        []*ColumnCursor
}

func NewOptionReader(definitionLevel int, reader ValueReader) *OptionReader {
	return &OptionReader{
		definitionLevel: definitionLevel,
		reader:          reader,
		column:          reader.Column(),
		children:        reader.Columns(),
	}
}

func (o *OptionReader) Read() any {
	if o.column.CurrentDefinitionLevel() > o.definitionLevel {
		return o.reader.Read()
	}
	for _, c := range o.children {
		c.NextNull()
	}
	return nil
}

func (o *OptionReader) Column() *ColumnCursor {
	return o.column
}

func (o *OptionReader) Columns() []*ColumnCursor {
	return o.children
}

func (o *OptionReader) SetPageSource(src PageSource) {
	o.reader.SetPageSource(src)
}

// ListReader assembles one list per read from repeated occurrences of its
// element reader. An empty list and a present-but-zero-length list are the
// same state; absence of the whole field is an enclosing OptionReader's
// concern.
type ListReader struct {
	definitionLevel int
	repetitionLevel int
	reader          ValueReader
	column          *ColumnCursor
	children        []*ColumnCursor
}

func NewListReader(definitionLevel, repetitionLevel int, element ValueReader) *ListReader {
	return &ListReader{
		definitionLevel: definitionLevel,
		repetitionLevel: repetitionLevel,
		reader:          element,
		column:          element.Column(),
		children:        element.Columns(),
	}
}

func (l *ListReader) Read() any {
	list := []any{}
	for {
		if l.column.CurrentDefinitionLevel() > l.definitionLevel {
			list = append(list, l.reader.Read())
		} else {
			// consume the empty-list triple
			for _, c := range l.children {
				c.NextNull()
			}
			break
		}
		// a repetition level at or below the list's own level means the
		// next triple starts a new list or a new record
		if l.column.CurrentRepetitionLevel() <= l.repetitionLevel {
			break
		}
	}
	return list
}

func (l *ListReader) Column() *ColumnCursor {
	return l.column
}

func (l *ListReader) Columns() []*ColumnCursor {
	return l.children
}

func (l *ListReader) SetPageSource(src PageSource) {
	l.reader.SetPageSource(src)
}

// MapReader assembles one map per read from co-located key and value
// readers. The key reader's cursor drives the level tests; key and value
// columns are structurally parallel, and a cadence mismatch between them
// surfaces as a decode fault.
type MapReader struct {
	definitionLevel int
	repetitionLevel int
	keyReader       ValueReader
	valueReader     ValueReader
	column          *ColumnCursor
	children        []*ColumnCursor
}

func NewMapReader(definitionLevel, repetitionLevel int, key, value ValueReader) *MapReader {
	children := make([]*ColumnCursor, 0, len(key.Columns())+len(value.Columns()))
	children = append(children, key.Columns()...)
	children = append(children, value.Columns()...)
	return &MapReader{
		definitionLevel: definitionLevel,
		repetitionLevel: repetitionLevel,
		keyReader:       key,
		valueReader:     value,
		column:          key.Column(),
		children:        children,
	}
}

func (m *MapReader) Read() any {
	entries := []MapEntry{}
	for {
		if m.column.CurrentDefinitionLevel() > m.definitionLevel {
			key := m.keyReader.Read()
			value := m.valueReader.Read()
			entries = append(entries, MapEntry{Key: key, Value: value})
		} else {
			// consume the empty-map triple
			for _, c := range m.children {
				c.NextNull()
			}
			break
		}
		if m.column.CurrentRepetitionLevel() <= m.repetitionLevel {
			break
		}
	}
	return entries
}

func (m *MapReader) Column() *ColumnCursor {
	return m.column
}

func (m *MapReader) Columns() []*ColumnCursor {
	return m.children
}

func (m *MapReader) SetPageSource(src PageSource) {
	m.keyReader.SetPageSource(src)
	m.valueReader.SetPageSource(src)
}

// setter writes one child's value into the intermediate struct container.
// The variant is resolved once at construction time from the child reader
// and its declared physical type, not per record.
type setter func(b *structBuilder, pos int)

// StructReader composes child readers, one per field in schema order, into
// one logical record. The struct never introduces an optionality step of its
// own: its definition level is the one assigned by the parent context, so a
// struct nested under an OptionReader tests its children against the same
// level that option already established.
type StructReader struct {
	definitionLevel int
	names           []string
	readers         []ValueReader
	optional        []bool
	setters         []setter
	columns         []*ColumnCursor
	children        []*ColumnCursor
}

// NewStructReader builds a struct reader over readers matching st's field
// order. Construction fails if a typed setter cannot be resolved for a
// primitive child's physical type.
func NewStructReader(st schema.StructType, definitionLevel int, readers []ValueReader) (*StructReader, error) {
	if len(readers) != len(st.Fields) {
		return nil, fmt.Errorf("struct has %d fields but %d readers", len(st.Fields), len(readers))
	}
	if len(readers) == 0 {
		return nil, fmt.Errorf("struct must have at least one field")
	}

	s := &StructReader{
		definitionLevel: definitionLevel,
		names:           make([]string, len(readers)),
		readers:         readers,
		optional:        make([]bool, len(readers)),
		setters:         make([]setter, len(readers)),
		columns:         make([]*ColumnCursor, len(readers)),
	}
	for i, r := range readers {
		f := st.Fields[i]
		s.names[i] = f.Name
		s.optional[i] = !f.Required
		s.columns[i] = r.Column()
		s.children = append(s.children, r.Columns()...)

		set, err := newSetter(r, f)
		if err != nil {
			return nil, err
		}
		s.setters[i] = set
	}
	return s, nil
}

// newSetter resolves the typed setter for unboxed primitive children; every
// other child falls back to the generic boxed path.
func newSetter(r ValueReader, f schema.Field) (setter, error) {
	unboxed, ok := r.(*PrimitiveReader)
	if !ok {
		return func(b *structBuilder, pos int) { b.set(pos, r.Read()) }, nil
	}

	switch unboxed.desc.Kind {
	case parquet.Boolean:
		return func(b *structBuilder, pos int) { b.setBoolean(pos, unboxed.ReadBoolean()) }, nil
	case parquet.Int32:
		return func(b *structBuilder, pos int) { b.setInt32(pos, unboxed.ReadInt32()) }, nil
	case parquet.Int64:
		return func(b *structBuilder, pos int) { b.setInt64(pos, unboxed.ReadInt64()) }, nil
	case parquet.Float:
		return func(b *structBuilder, pos int) { b.setFloat32(pos, unboxed.ReadFloat32()) }, nil
	case parquet.Double:
		return func(b *structBuilder, pos int) { b.setFloat64(pos, unboxed.ReadFloat64()) }, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		if unboxed.desc.UTF8 {
			return func(b *structBuilder, pos int) { b.set(pos, unboxed.ReadString()) }, nil
		}
		return func(b *structBuilder, pos int) { b.set(pos, unboxed.ReadByteArray()) }, nil
	default:
		return nil, fmt.Errorf("unsupported physical type %s for field %q", unboxed.desc.Kind, f.Name)
	}
}

func (s *StructReader) Read() any {
	return s.read()
}

func (s *StructReader) read() Record {
	b := &structBuilder{names: s.names, values: make([]any, len(s.readers))}
	for i := range s.readers {
		if !s.optional[i] || s.columns[i].CurrentDefinitionLevel() > s.definitionLevel {
			s.setters[i](b, i)
		} else {
			b.setNull(i)
			for _, c := range s.readers[i].Columns() {
				c.NextNull()
			}
		}
	}
	return b.build()
}

// Column returns the first child's representative cursor.
func (s *StructReader) Column() *ColumnCursor {
	return s.columns[0]
}

func (s *StructReader) Columns() []*ColumnCursor {
	return s.children
}

func (s *StructReader) SetPageSource(src PageSource) {
	for _, r := range s.readers {
		r.SetPageSource(src)
	}
}
