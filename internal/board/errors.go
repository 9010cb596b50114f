package board

import (
	"errors"
	"strings"
)

var (
	ErrEmptyName       = errors.New("item name is required")
	ErrEmptyCategory   = errors.New("category name is required")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrIndexOutOfRange = errors.New("selection index out of range")
	ErrMissingColumns  = errors.New("missing required columns")
	ErrMalformedTable  = errors.New("malformed table")
)

// SchemaError is returned by Import when the table lacks required columns.
// Nothing in the store is modified when it is returned.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "Missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrMissingColumns
}
