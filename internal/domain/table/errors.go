package table

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for table errors.
var (
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrMalformed      = errors.New("malformed table")
)

// SchemaError names the table and the columns a stage expected but did not find.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: table %q is missing columns [%s]", ErrSchemaMismatch, e.Table, strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is match ErrSchemaMismatch.
func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }
