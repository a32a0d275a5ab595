package parquetread

import (
	"io"

	"github.com/parquet-go/parquet-go"
)

// PageSource supplies, per physical column, the value stream for one row
// group. The underlying byte-level page layout belongs to the columnar
// storage library; this package only consumes decoded values with their
// definition and repetition levels attached.
type PageSource interface {
	// NumRows reports how many logical records the row group holds.
	NumRows() int64

	// Column returns the values of the leaf column at the given index,
	// in physical storage order. The returned reader may also implement
	// io.Closer, in which case the cursor closes it on rebind.
	Column(columnIndex int) parquet.ValueReader
}

// RowGroupSource adapts a parquet.RowGroup into a PageSource.
func RowGroupSource(rg parquet.RowGroup) PageSource {
	return &rowGroupSource{rg: rg}
}

type rowGroupSource struct {
	rg parquet.RowGroup
}

func (s *rowGroupSource) NumRows() int64 {
	return s.rg.NumRows()
}

func (s *rowGroupSource) Column(columnIndex int) parquet.ValueReader {
	return &chunkValueReader{chunk: s.rg.ColumnChunks()[columnIndex]}
}

// chunkValueReader flattens the pages of one column chunk into a single
// value stream, opening pages lazily.
type chunkValueReader struct {
	chunk  parquet.ColumnChunk
	pages  parquet.Pages
	values parquet.ValueReader
	done   bool
}

func (r *chunkValueReader) ReadValues(values []parquet.Value) (int, error) {
	for {
		if r.done {
			return 0, io.EOF
		}
		if r.values == nil {
			if r.pages == nil {
				r.pages = r.chunk.Pages()
			}
			page, err := r.pages.ReadPage()
			if err != nil {
				r.done = true
				if err == io.EOF {
					return 0, io.EOF
				}
				return 0, err
			}
			r.values = page.Values()
		}

		n, err := r.values.ReadValues(values)
		if err == io.EOF {
			r.values = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *chunkValueReader) Close() error {
	r.done = true
	r.values = nil
	if r.pages != nil {
		pages := r.pages
		r.pages = nil
		return pages.Close()
	}
	return nil
}
