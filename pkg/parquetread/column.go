package parquetread

import (
	"io"
	"strings"
	"sync"

	"github.com/parquet-go/parquet-go"
)

// ColumnDescriptor identifies one leaf column of the physical schema.
type ColumnDescriptor struct {
	Path               []string
	ColumnIndex        int
	Kind               parquet.Kind
	UTF8               bool
	MaxDefinitionLevel int
	MaxRepetitionLevel int
}

func (d ColumnDescriptor) String() string {
	return strings.Join(d.Path, ".")
}

const cursorBufferSize = 128

var cursorBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]parquet.Value, cursorBufferSize)
		return &buf
	},
}

// ColumnCursor lazily produces one (value, definitionLevel, repetitionLevel)
// triple per physical occurrence for one column of a bound row group. The
// sequence is finite and non-restartable; SetPageSource starts a fresh
// sequence for the next row group.
//
// Levels of the next unconsumed triple can be peeked without advancing.
// Once the row group is exhausted peeks report level 0, which terminates
// any enclosing repeated read; consuming past the end is a decode fault.
type ColumnCursor struct {
	desc   ColumnDescriptor
	values parquet.ValueReader
	buf    *[]parquet.Value
	next   int
	n      int
	done   bool
}

// NewColumnCursor creates an unbound cursor for the described column. A page
// source must be bound before the first read.
func NewColumnCursor(desc ColumnDescriptor) *ColumnCursor {
	return &ColumnCursor{desc: desc}
}

// Descriptor returns the physical column this cursor reads.
func (c *ColumnCursor) Descriptor() ColumnDescriptor {
	return c.desc
}

// SetPageSource rebinds the cursor to the same column in a new row group,
// resetting the triple sequence to the start of that group.
func (c *ColumnCursor) SetPageSource(src PageSource) {
	c.release()
	c.values = src.Column(c.desc.ColumnIndex)
	c.done = false
}

func (c *ColumnCursor) release() {
	if closer, ok := c.values.(io.Closer); ok {
		closer.Close()
	}
	c.values = nil
	if c.buf != nil {
		cursorBufferPool.Put(c.buf)
		c.buf = nil
	}
	c.next, c.n = 0, 0
}

// ensure makes the next unconsumed triple available, reporting false when
// the row group holds no more triples for this column.
func (c *ColumnCursor) ensure() bool {
	if c.next < c.n {
		return true
	}
	if c.done {
		return false
	}
	if c.values == nil {
		decodeFault("column %s: no page source bound", c.desc)
	}
	if c.buf == nil {
		c.buf = cursorBufferPool.Get().(*[]parquet.Value)
	}
	for {
		n, err := c.values.ReadValues(*c.buf)
		c.next, c.n = 0, n
		if n > 0 {
			return true
		}
		if err != nil {
			c.done = true
			if err != io.EOF {
				decodeFault("column %s: %v", c.desc, err)
			}
			return false
		}
	}
}

// CurrentDefinitionLevel peeks the definition level of the next unconsumed
// triple without advancing.
func (c *ColumnCursor) CurrentDefinitionLevel() int {
	if !c.ensure() {
		return 0
	}
	return (*c.buf)[c.next].DefinitionLevel()
}

// CurrentRepetitionLevel peeks the repetition level of the next unconsumed
// triple without advancing. Level 0 marks the start of a new top-level
// record.
func (c *ColumnCursor) CurrentRepetitionLevel() int {
	if !c.ensure() {
		return 0
	}
	return (*c.buf)[c.next].RepetitionLevel()
}

func (c *ColumnCursor) advance() parquet.Value {
	if !c.ensure() {
		decodeFault("column %s: read past end of row group", c.desc)
	}
	v := (*c.buf)[c.next]
	c.next++
	return v
}

// NextNull advances past the next triple without materializing a value.
// Used to keep this cursor in lockstep when an ancestor of the column is
// absent from the current record.
func (c *ColumnCursor) NextNull() {
	c.advance()
}

// Next consumes the next value-bearing triple and returns its value boxed
// according to the column's physical type.
func (c *ColumnCursor) Next() any {
	v := c.advance()
	if v.IsNull() {
		return nil
	}
	switch c.desc.Kind {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return v.Float()
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		if c.desc.UTF8 {
			return string(v.ByteArray())
		}
		return append([]byte(nil), v.ByteArray()...)
	default:
		decodeFault("column %s: unsupported physical type %s", c.desc, c.desc.Kind)
		return nil
	}
}

func (c *ColumnCursor) NextBoolean() bool {
	return c.advance().Boolean()
}

func (c *ColumnCursor) NextInt32() int32 {
	return c.advance().Int32()
}

func (c *ColumnCursor) NextInt64() int64 {
	return c.advance().Int64()
}

func (c *ColumnCursor) NextFloat32() float32 {
	return c.advance().Float()
}

func (c *ColumnCursor) NextFloat64() float64 {
	return c.advance().Double()
}

// NextByteArray copies the next value out of the page buffer, which may be
// reused after the cursor advances.
func (c *ColumnCursor) NextByteArray() []byte {
	return append([]byte(nil), c.advance().ByteArray()...)
}

func (c *ColumnCursor) NextString() string {
	return string(c.advance().ByteArray())
}
