package parquetread

// MapEntry is one key/value pair of an assembled map, in storage order.
type MapEntry struct {
	Key   any
	Value any
}

// Record is one assembled logical record or nested struct value. Values are
// positional, matching the field order of the schema the reader tree was
// built from. A Record is immutable once returned from a read.
type Record struct {
	names  []string
	values []any
}

func (r Record) Len() int {
	return len(r.values)
}

// Get returns the value at the given field position. Nested structs are
// Records, lists are []any, maps are []MapEntry, absent optionals are nil.
func (r Record) Get(pos int) any {
	return r.values[pos]
}

// Name returns the field name at the given position.
func (r Record) Name(pos int) string {
	return r.names[pos]
}

// GetByName returns the value of the named field, or nil if no such field.
func (r Record) GetByName(name string) any {
	for i, n := range r.names {
		if n == name {
			return r.values[i]
		}
	}
	return nil
}

// ToMap renders the record as a generic map, converting nested records
// recursively. Map values with string keys become map[string]any; other
// key types stay as ordered []MapEntry.
func (r Record) ToMap() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, v := range r.values {
		m[r.names[i]] = convertValue(v)
	}
	return m
}

func convertValue(v any) any {
	switch v := v.(type) {
	case Record:
		return v.ToMap()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = convertValue(e)
		}
		return out
	case []MapEntry:
		if m, ok := stringKeyed(v); ok {
			return m
		}
		out := make([]MapEntry, len(v))
		for i, e := range v {
			out[i] = MapEntry{Key: convertValue(e.Key), Value: convertValue(e.Value)}
		}
		return out
	default:
		return v
	}
}

func stringKeyed(entries []MapEntry) (map[string]any, bool) {
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		k, ok := e.Key.(string)
		if !ok {
			if b, isBytes := e.Key.([]byte); isBytes {
				k = string(b)
			} else {
				return nil, false
			}
		}
		m[k] = convertValue(e.Value)
	}
	return m, true
}

// structBuilder is the mutable intermediate container for one struct read.
// One builder is created per read call and finalized into a Record; no
// shared mutable state escapes a read.
type structBuilder struct {
	names  []string
	values []any
}

func (b *structBuilder) set(pos int, v any)            { b.values[pos] = v }
func (b *structBuilder) setNull(pos int)               { b.values[pos] = nil }
func (b *structBuilder) setBoolean(pos int, v bool)    { b.values[pos] = v }
func (b *structBuilder) setInt32(pos int, v int32)     { b.values[pos] = v }
func (b *structBuilder) setInt64(pos int, v int64)     { b.values[pos] = v }
func (b *structBuilder) setFloat32(pos int, v float32) { b.values[pos] = v }
func (b *structBuilder) setFloat64(pos int, v float64) { b.values[pos] = v }

func (b *structBuilder) build() Record {
	return Record{names: b.names, values: b.values}
}
