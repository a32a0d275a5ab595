package catalog

import (
	"errors"
	"strings"

	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
	"github.com/Parth-Brahmbhatt/iceberg/pkg/table"
)

// Catalog boundary errors. Both are part of the normal contract and must be
// distinguishable from generic I/O failures, so callers branch on errors.Is.
var (
	ErrTableAlreadyExists = errors.New("table already exists")
	ErrNoSuchTable        = errors.New("no such table")
)

// Identifier names a table as an ordered sequence of strings: namespace
// segments followed by the table name.
type Identifier struct {
	segments []string
}

// NewIdentifier builds an identifier from namespace segments and a table
// name, e.g. NewIdentifier("ns", "t").
func NewIdentifier(segments ...string) Identifier {
	return Identifier{segments: append([]string(nil), segments...)}
}

// Segments returns the identifier's path segments in order.
func (id Identifier) Segments() []string {
	return append([]string(nil), id.segments...)
}

func (id Identifier) String() string {
	return strings.Join(id.segments, ".")
}

// HasPrefix reports whether id is nested strictly under prefix.
func (id Identifier) HasPrefix(prefix Identifier) bool {
	if len(id.segments) <= len(prefix.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if id.segments[i] != s {
			return false
		}
	}
	return true
}

// Catalog is the external table metadata store. Implementations are
// supplied by deployments; this package only fixes the contract the scan
// and planning layers rely on.
type Catalog interface {
	// Create binds a new table to the identifier, failing with
	// ErrTableAlreadyExists when the identifier is taken.
	Create(sc *schema.Schema, spec table.PartitionSpec, id Identifier) (*table.Table, error)

	// Exists reports whether a table is bound to the identifier.
	Exists(id Identifier) (bool, error)

	// Drop removes the table, failing with ErrNoSuchTable when absent.
	// When deleteData is set the table's data files are removed as well.
	Drop(id Identifier, deleteData bool) error

	// Rename rebinds a table, failing with ErrNoSuchTable when from is
	// absent and ErrTableAlreadyExists when to is taken.
	Rename(from, to Identifier) error

	// List returns the identifiers nested under the given identifier, in
	// lexical order.
	List(id Identifier) ([]Identifier, error)
}
