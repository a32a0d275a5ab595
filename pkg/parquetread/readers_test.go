package parquetread

import (
	"io"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
)

// fakeSource stages exact (value, definitionLevel, repetitionLevel) triples
// per column so tests control the physical sequence a row group presents.
type fakeSource struct {
	rows    int64
	columns map[int]*sliceValues
}

func newFakeSource(rows int64) *fakeSource {
	return &fakeSource{rows: rows, columns: make(map[int]*sliceValues)}
}

func (s *fakeSource) add(col int, values ...parquet.Value) {
	s.columns[col] = &sliceValues{values: values}
}

func (s *fakeSource) NumRows() int64 { return s.rows }

func (s *fakeSource) Column(i int) parquet.ValueReader {
	if c, ok := s.columns[i]; ok {
		return c
	}
	return &sliceValues{}
}

// remaining reports how many staged triples a column has not yet served.
func (s *fakeSource) remaining(col int) int {
	c := s.columns[col]
	return len(c.values) - c.next
}

type sliceValues struct {
	values []parquet.Value
	next   int
}

func (r *sliceValues) ReadValues(out []parquet.Value) (int, error) {
	if r.next >= len(r.values) {
		return 0, io.EOF
	}
	n := copy(out, r.values[r.next:])
	r.next += n
	if r.next >= len(r.values) {
		return n, io.EOF
	}
	return n, nil
}

func triple(v any, rep, def, col int) parquet.Value {
	return parquet.ValueOf(v).Level(rep, def, col)
}

func nullTriple(rep, def, col int) parquet.Value {
	return parquet.ValueOf(nil).Level(rep, def, col)
}

func leafIndex(t *testing.T, phys *parquet.Schema, path ...string) int {
	t.Helper()
	col, ok := phys.Lookup(path...)
	require.True(t, ok, "leaf column %v not found", path)
	return col.ColumnIndex
}

func TestOptionalListOfDoubles(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "id", Type: schema.Int64Type, Required: true},
		schema.Field{ID: 2, Name: "xs", Type: schema.ListType{
			Element: schema.Field{ID: 3, Name: "element", Type: schema.Float64Type, Required: true},
		}},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)

	// the optional step and the repeated step each contribute one
	// definition level to the element column
	xs, ok := phys.Lookup("xs", "list", "element")
	require.True(t, ok)
	require.Equal(t, 2, xs.MaxDefinitionLevel)
	require.Equal(t, 1, xs.MaxRepetitionLevel)

	idCol := leafIndex(t, phys, "id")
	xsCol := xs.ColumnIndex

	src := newFakeSource(3)
	src.add(idCol,
		triple(int64(0), 0, 0, idCol),
		triple(int64(1), 0, 0, idCol),
		triple(int64(2), 0, 0, idCol),
	)
	src.add(xsCol,
		nullTriple(0, 1, xsCol),  // record 0: empty list
		triple(1.0, 0, 2, xsCol), // record 1: first element
		triple(2.0, 1, 2, xsCol), // record 1: second element
		nullTriple(0, 0, xsCol),  // record 2: field absent
	)

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)
	reader.SetPageSource(src)

	rec, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, int64(0), rec.Get(0))
	require.Equal(t, []any{}, rec.Get(1), "empty list, not nil")

	rec, err = reader.Read()
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.Get(0))
	require.Equal(t, []any{1.0, 2.0}, rec.Get(1))

	rec, err = reader.Read()
	require.NoError(t, err)
	require.Equal(t, int64(2), rec.Get(0))
	require.Nil(t, rec.Get(1), "absent field, not empty list")

	_, err = reader.Read()
	require.Equal(t, io.EOF, err)

	require.Zero(t, src.remaining(idCol))
	require.Zero(t, src.remaining(xsCol), "absent branches must still consume alignment triples")
}

func TestOptionalFieldInsideStruct(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "s", Required: true, Type: schema.StructType{Fields: []schema.Field{
			{ID: 2, Name: "a", Type: schema.Int32Type, Required: true},
			{ID: 3, Name: "b", Type: schema.Int32Type},
		}}},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)

	aCol := leafIndex(t, phys, "s", "a")
	bCol := leafIndex(t, phys, "s", "b")

	src := newFakeSource(1)
	src.add(aCol, triple(int32(5), 0, 0, aCol))
	src.add(bCol, nullTriple(0, 0, bCol))

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)
	reader.SetPageSource(src)

	rec, err := reader.Read()
	require.NoError(t, err)

	inner, ok := rec.Get(0).(Record)
	require.True(t, ok)
	require.Equal(t, int32(5), inner.Get(0))
	require.Nil(t, inner.Get(1))

	// b's cursor advanced by null consumption, not value consumption
	require.Zero(t, src.remaining(bCol))
	require.Zero(t, src.remaining(aCol))
}

func TestMapAssembly(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "props", Type: schema.MapType{
			Key:   schema.Field{ID: 2, Name: "key", Type: schema.StringType, Required: true},
			Value: schema.Field{ID: 3, Name: "value", Type: schema.Int64Type, Required: true},
		}},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)

	keyCol := leafIndex(t, phys, "props", "key_value", "key")
	valCol := leafIndex(t, phys, "props", "key_value", "value")

	src := newFakeSource(3)
	src.add(keyCol,
		triple("a", 0, 2, keyCol),
		triple("b", 1, 2, keyCol),
		nullTriple(0, 1, keyCol), // record 1: empty map
		nullTriple(0, 0, keyCol), // record 2: field absent
	)
	src.add(valCol,
		triple(int64(1), 0, 2, valCol),
		triple(int64(2), 1, 2, valCol),
		nullTriple(0, 1, valCol),
		nullTriple(0, 0, valCol),
	)

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)
	reader.SetPageSource(src)

	rec, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, []MapEntry{
		{Key: "a", Value: int64(1)},
		{Key: "b", Value: int64(2)},
	}, rec.Get(0))

	rec, err = reader.Read()
	require.NoError(t, err)
	require.Equal(t, []MapEntry{}, rec.Get(0))

	rec, err = reader.Read()
	require.NoError(t, err)
	require.Nil(t, rec.Get(0))

	require.Zero(t, src.remaining(keyCol))
	require.Zero(t, src.remaining(valCol))
}

func TestListTerminatesAtOwnRepetitionLevel(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "xs", Required: true, Type: schema.ListType{
			Element: schema.Field{ID: 2, Name: "element", Type: schema.Int32Type, Required: true},
		}},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)
	xsCol := leafIndex(t, phys, "xs", "list", "element")

	// two adjacent non-empty lists: the first must stop exactly at the
	// repetition boundary of the second
	src := newFakeSource(2)
	src.add(xsCol,
		triple(int32(1), 0, 1, xsCol),
		triple(int32(2), 1, 1, xsCol),
		triple(int32(3), 0, 1, xsCol),
	)

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)
	reader.SetPageSource(src)

	rec, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2)}, rec.Get(0))

	rec, err = reader.Read()
	require.NoError(t, err)
	require.Equal(t, []any{int32(3)}, rec.Get(0))

	require.Zero(t, src.remaining(xsCol))
}

func TestNestedStructsInsideList(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "events", Type: schema.ListType{
			Element: schema.Field{ID: 2, Name: "element", Required: true, Type: schema.StructType{Fields: []schema.Field{
				{ID: 3, Name: "x", Type: schema.Int64Type, Required: true},
				{ID: 4, Name: "tag", Type: schema.StringType},
			}}},
		}},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)

	xCol := leafIndex(t, phys, "events", "list", "element", "x")
	tagCol := leafIndex(t, phys, "events", "list", "element", "tag")

	src := newFakeSource(3)
	src.add(xCol,
		triple(int64(1), 0, 2, xCol),
		triple(int64(2), 1, 2, xCol),
		nullTriple(0, 0, xCol), // record 1: list absent
		nullTriple(0, 1, xCol), // record 2: empty list
	)
	src.add(tagCol,
		triple("a", 0, 3, tagCol),
		nullTriple(1, 2, tagCol), // second element has no tag
		nullTriple(0, 0, tagCol),
		nullTriple(0, 1, tagCol),
	)

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)
	reader.SetPageSource(src)

	rec, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"events": []any{
			map[string]any{"x": int64(1), "tag": "a"},
			map[string]any{"x": int64(2), "tag": nil},
		},
	}, rec.ToMap())

	rec, err = reader.Read()
	require.NoError(t, err)
	require.Nil(t, rec.Get(0))

	rec, err = reader.Read()
	require.NoError(t, err)
	require.Equal(t, []any{}, rec.Get(0))

	require.Zero(t, src.remaining(xCol))
	require.Zero(t, src.remaining(tagCol))
}

func TestRebindDoesNotLeakTriples(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "id", Type: schema.Int64Type, Required: true},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)
	idCol := leafIndex(t, phys, "id")

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)

	g1 := newFakeSource(2)
	g1.add(idCol, triple(int64(10), 0, 0, idCol), triple(int64(11), 0, 0, idCol))
	reader.SetPageSource(g1)

	for _, want := range []int64{10, 11} {
		rec, err := reader.Read()
		require.NoError(t, err)
		require.Equal(t, want, rec.Get(0))
	}
	_, err = reader.Read()
	require.Equal(t, io.EOF, err)

	g2 := newFakeSource(1)
	g2.add(idCol, triple(int64(20), 0, 0, idCol))
	reader.SetPageSource(g2)

	rec, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, int64(20), rec.Get(0))

	_, err = reader.Read()
	require.Equal(t, io.EOF, err)
	require.Zero(t, g1.remaining(idCol))
	require.Zero(t, g2.remaining(idCol))
}

func TestReadPastEndIsDecodeFault(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "id", Type: schema.Int64Type, Required: true},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)
	idCol := leafIndex(t, phys, "id")

	// the source claims two rows but the column only carries one triple
	src := newFakeSource(2)
	src.add(idCol, triple(int64(1), 0, 0, idCol))

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)
	reader.SetPageSource(src)

	_, err = reader.Read()
	require.NoError(t, err)

	_, err = reader.Read()
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Contains(t, decodeErr.Error(), "read past end")
}

func TestReadWithoutBindIsFault(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "id", Type: schema.Int64Type, Required: true},
	)
	phys, err := sc.ToParquet("t")
	require.NoError(t, err)

	reader, err := NewRecordReader(sc, phys)
	require.NoError(t, err)

	_, err = reader.Read()
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestMismatchedPhysicalTypeFailsConstruction(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "id", Type: schema.Int64Type, Required: true},
	)
	phys := parquet.NewSchema("t", parquet.Group{
		"id": parquet.Leaf(parquet.Int96Type),
	})

	_, err := NewRecordReader(sc, phys)
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not match physical type")
}

func TestMissingColumnFailsConstruction(t *testing.T) {
	sc := schema.MustNew(
		schema.Field{ID: 1, Name: "id", Type: schema.Int64Type, Required: true},
		schema.Field{ID: 2, Name: "missing", Type: schema.Int64Type, Required: true},
	)
	phys := parquet.NewSchema("t", parquet.Group{
		"id": parquet.Leaf(parquet.Int64Type),
	})

	_, err := NewRecordReader(sc, phys)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}
