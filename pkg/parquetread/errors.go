package parquetread

import "fmt"

// DecodeError reports a triple sequence that is inconsistent with the schema
// the reader tree was built from: reading past the end of a bound row group,
// a key/value cadence mismatch in a map column pair, or reading without a
// bound page source. It is a data or schema mismatch, not a transient
// condition, and is never retried.
type DecodeError struct {
	msg string
}

func (e *DecodeError) Error() string {
	return "parquet decode: " + e.msg
}

// decodeFault aborts the current record read. The panic is recovered at the
// top of the reader tree and surfaced as a *DecodeError from Read.
func decodeFault(format string, args ...any) {
	panic(&DecodeError{msg: fmt.Sprintf(format, args...)})
}
