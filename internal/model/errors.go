package model

import "fmt"

// ValidationError marks a field update outside its enumerated domain. The
// record under edit is left unchanged.
type ValidationError struct {
	Field string
	Value interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}

// NotFoundError marks an operation referencing a game or slot that does not
// exist. Most delete/select paths treat a missing target as a safe no-op and
// never surface this.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// StoreError wraps any failure from the persistence collaborator. It is
// always caught at the synchronizer boundary; in-memory state stays usable.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
