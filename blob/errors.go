package blob

import (
	"errors"
	"fmt"
)

// ErrAlreadyNormalized is matched by a StatsFormatError raised for an item
// whose stats were already turned into a map.
var ErrAlreadyNormalized = errors.New("stats already normalized")

// MalformedBlobError is returned when the blob text lacks the `;var R =`
// marker or the terminating semicolon.
type MalformedBlobError struct {
	Reason string
}

func (e *MalformedBlobError) Error() string {
	return "malformed blob: " + e.Reason
}

// DecodeError is returned when the blob body is not valid structured data.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode blob at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatsFormatError describes an item whose stats field cannot be normalized.
type StatsFormatError struct {
	Index  int
	Reason string
	Err    error
}

func (e *StatsFormatError) Error() string {
	return fmt.Sprintf("item %d: invalid stats: %s", e.Index, e.Reason)
}

func (e *StatsFormatError) Unwrap() error {
	return e.Err
}

// UnknownClassCodeError is returned when a reqp value holds a class code that
// has no class name.
type UnknownClassCodeError struct {
	Code  rune
	Codes string
}

func (e *UnknownClassCodeError) Error() string {
	return fmt.Sprintf("unknown class code %q in %q", e.Code, e.Codes)
}
