package table

import (
	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
)

// PartitionField maps one source column, by field id, to a partition name.
type PartitionField struct {
	SourceID int    `json:"source-id"`
	Name     string `json:"name"`
}

// PartitionSpec is consumed, not interpreted, by the reader core: planning
// carries it through so callers can prune files, but record assembly never
// looks at it.
type PartitionSpec struct {
	Fields []PartitionField `json:"fields"`
}

// Unpartitioned is the empty partition spec.
var Unpartitioned = PartitionSpec{}

// Table is the metadata handle planning starts from: an identifier, the
// id-bearing schema, the partition spec, and the manifests that list the
// table's data files.
type Table struct {
	Identifier    []string
	Schema        *schema.Schema
	Spec          PartitionSpec
	Location      string
	ManifestPaths []string
}
