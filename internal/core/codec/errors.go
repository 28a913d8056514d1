package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedStream is returned when fewer bytes remain than a read requires.
	ErrTruncatedStream = errors.New("truncated stream")

	ErrNegativeLength = errors.New("negative length")
	ErrWriterFailed   = errors.New("writer failed")
)

// TruncatedStreamError describes a short read.
type TruncatedStreamError struct {
	Offset int64
	Wanted int
	Got    int
}

func (e *TruncatedStreamError) Error() string {
	return fmt.Sprintf("truncated stream at offset %d: wanted %d bytes, got %d", e.Offset, e.Wanted, e.Got)
}

// Unwrap lets errors.Is match ErrTruncatedStream.
func (e *TruncatedStreamError) Unwrap() error {
	return ErrTruncatedStream
}

// ReadError is a failure of the underlying reader. It is never a truncation.
type ReadError struct {
	Offset int64
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read at offset %d: %v", e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
