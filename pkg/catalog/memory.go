package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
	"github.com/Parth-Brahmbhatt/iceberg/pkg/table"
)

// MemoryCatalog is a mutex-guarded in-memory Catalog, used by tests and
// tooling. It is safe for concurrent use.
type MemoryCatalog struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

var _ Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{tables: make(map[string]*table.Table)}
}

func (c *MemoryCatalog) Create(sc *schema.Schema, spec table.PartitionSpec, id Identifier) (*table.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.String()
	if _, ok := c.tables[key]; ok {
		return nil, fmt.Errorf("create %s: %w", id, ErrTableAlreadyExists)
	}
	t := &table.Table{
		Identifier: id.Segments(),
		Schema:     sc,
		Spec:       spec,
	}
	c.tables[key] = t
	return t, nil
}

func (c *MemoryCatalog) Exists(id Identifier) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[id.String()]
	return ok, nil
}

func (c *MemoryCatalog) Drop(id Identifier, deleteData bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.String()
	if _, ok := c.tables[key]; !ok {
		return fmt.Errorf("drop %s: %w", id, ErrNoSuchTable)
	}
	delete(c.tables, key)
	// deleteData has no effect here: the memory catalog holds metadata only
	return nil
}

func (c *MemoryCatalog) Rename(from, to Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[from.String()]
	if !ok {
		return fmt.Errorf("rename %s: %w", from, ErrNoSuchTable)
	}
	if _, ok := c.tables[to.String()]; ok {
		return fmt.Errorf("rename to %s: %w", to, ErrTableAlreadyExists)
	}
	delete(c.tables, from.String())
	t.Identifier = to.Segments()
	c.tables[to.String()] = t
	return nil
}

func (c *MemoryCatalog) List(id Identifier) ([]Identifier, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Identifier
	for _, t := range c.tables {
		tid := NewIdentifier(t.Identifier...)
		if tid.HasPrefix(id) {
			out = append(out, tid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// Get returns the table bound to the identifier, or ErrNoSuchTable.
func (c *MemoryCatalog) Get(id Identifier) (*table.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[id.String()]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", id, ErrNoSuchTable)
	}
	return t, nil
}
