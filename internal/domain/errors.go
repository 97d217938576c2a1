package domain

import "errors"

// ErrPersistence classifies every failure raised by the underlying store.
var ErrPersistence = errors.New("workout persistence failed")

// PersistenceError wraps a store failure together with the operation that raised it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrPersistence.Error()
	}
	return e.Err.Error()
}

// Unwrap exposes the store error.
func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
