package events

import "errors"

// Parser error taxonomy (SPEC_FULL.md §4.1, §7 "Malformed input"). A parser never performs I/O and
// never returns anything other than one of these for a bad payload.
var (
	ErrDiscriminatorMismatch = errors.New("events: discriminator not recognized")
	ErrTruncated             = errors.New("events: payload truncated")
	ErrInvalidEnumTag        = errors.New("events: enum tag out of range")
	ErrNonUtf8               = errors.New("events: string field is not valid utf-8")
)
