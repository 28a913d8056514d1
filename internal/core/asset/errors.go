package asset

import (
	"errors"
	"fmt"
)

var (
	// Load errors

	ErrMalformedCabinet = errors.New("malformed cabinet")
	ErrUnknownClass     = errors.New("unknown class")

	// Reference errors

	ErrUnresolvedReference = errors.New("unresolved reference")

	// Tree and table errors

	ErrInvalidOperation = errors.New("invalid operation")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNotFound         = errors.New("object not found")
	ErrClosed           = errors.New("cabinet is closed")
	ErrIDsExhausted     = errors.New("path ids exhausted")
)

// MalformedCabinetError reports a structural problem found while loading.
type MalformedCabinetError struct {
	Cabinet string
	Offset  int64
	Reason  string
	Cause   error
}

func (e *MalformedCabinetError) Error() string {
	msg := fmt.Sprintf("malformed cabinet %q at offset %d: %s", e.Cabinet, e.Offset, e.Reason)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *MalformedCabinetError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrMalformedCabinet, e.Cause}
	}
	return []error{ErrMalformedCabinet}
}

// UnresolvedReferenceWarning records a pointer that could not be matched to an
// object. It is never returned from Load; see Cabinet.Unresolved.
type UnresolvedReferenceWarning struct {
	Cabinet    string
	Owner      PathID
	OwnerClass ClassID
	Field      string
	FileID     int32
	PathID     PathID
	Reason     string
}

func (w UnresolvedReferenceWarning) Error() string {
	return fmt.Sprintf("%s: %s.%s of object %d -> (file %d, path %d): %s",
		w.Cabinet, w.OwnerClass, w.Field, w.Owner, w.FileID, w.PathID, w.Reason)
}

func (w UnresolvedReferenceWarning) Unwrap() error {
	return ErrUnresolvedReference
}
