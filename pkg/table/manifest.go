package table

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/snappy"
	"github.com/google/uuid"
)

// DataFile describes one immutable columnar file belonging to a table
// snapshot.
type DataFile struct {
	Path        string `json:"file_path"`
	Format      string `json:"file_format"`
	RecordCount int64  `json:"record_count"`
	SizeBytes   int64  `json:"file_size_bytes"`
}

// Manifest lists the data files of one snapshot. Manifests are written once
// and never mutated; a new snapshot gets a new manifest.
type Manifest struct {
	ID        uuid.UUID  `json:"manifest_id"`
	DataFiles []DataFile `json:"data_files"`
}

// NewManifest allocates a manifest with a fresh id.
func NewManifest(files []DataFile) *Manifest {
	return &Manifest{ID: uuid.New(), DataFiles: files}
}

// WriteManifest stores the manifest as snappy-compressed JSON.
func WriteManifest(path string, m *Manifest) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, snappy.Encode(nil, raw), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &m, nil
}
