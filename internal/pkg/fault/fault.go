// Package fault classifies failures crossing the service boundary:
// sentinel errors for the datastore outcomes handlers branch on, and a
// Fault wrapper for everything that should surface as a 500.
package fault

import "errors"

// Sentinels surfaced by the datastore layer.
var (
	ErrNotFound            = errors.New("record not found")
	ErrUniqueViolation     = errors.New("record already exists")
	ErrForeignKeyViolation = errors.New("record is still referenced")
)

// Fault wraps a low-level failure with the operation that hit it.
// Client-visible problems travel as validation errors or the sentinels
// above; a Fault always means an internal failure.
type Fault struct {
	Op  string
	Err error
}

func (e *Fault) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Fault) Unwrap() error {
	return e.Err
}

// NewInternalError wraps err with the operation that failed.
func NewInternalError(op string, err error) error {
	return &Fault{Op: op, Err: err}
}
