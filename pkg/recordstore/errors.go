package recordstore

import (
	"errors"
	"fmt"
)

// Op names the record store operation that failed.
type Op string

const (
	OpOpen   Op = "open"
	OpSchema Op = "schema"
	OpQuery  Op = "query"
	OpClose  Op = "close"
)

var (
	// ErrStore is matched by every StoreError.
	ErrStore = errors.New("store error")

	// ErrConflict is returned when a statement violates a unique or primary key constraint.
	ErrConflict = errors.New("record already exists")
)

// StoreError reports a failure of the backing store itself.
type StoreError struct {
	Op  Op
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStore, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

func storeError(op Op, err error) error {
	return &StoreError{Op: op, Err: err}
}
