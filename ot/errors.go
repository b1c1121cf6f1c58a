package ot

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseErrorKind classifies the failure modes that can occur while
// applying glyph variations.
type ParseErrorKind int

const (
	// KindBadIndex means a point number, region index, or glyph index
	// referenced data outside the bounds of the structure it indexes into.
	KindBadIndex ParseErrorKind = iota
	// KindMalformedTuple means a tuple variation header or its packed
	// point/delta payload could not be decoded.
	KindMalformedTuple
	// KindUnsupported means the data uses a feature this package does
	// not implement (e.g. a glyph outline kind the variation engine does
	// not handle). Unknown table versions are reported as ErrInvalidFormat.
	KindUnsupported
)

func (k ParseErrorKind) String() string {
	switch k {
	case KindBadIndex:
		return "bad index"
	case KindMalformedTuple:
		return "malformed tuple"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// ParseError reports a recoverable failure while decoding or applying
// glyph variation data. Callers can switch on Kind to distinguish
// out-of-range references from structurally malformed payloads.
type ParseError struct {
	Kind ParseErrorKind
	Msg  string
	err  error
}

func (e *ParseError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

func newParseError(kind ParseErrorKind, msg string) *ParseError {
	return &ParseError{Kind: kind, Msg: msg}
}

func wrapParseError(kind ParseErrorKind, msg string, cause error) *ParseError {
	return &ParseError{Kind: kind, Msg: msg, err: errors.WithStack(cause)}
}

// IsBadIndex reports whether err is a ParseError of KindBadIndex.
func IsBadIndex(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == KindBadIndex
}

// IsMalformedTuple reports whether err is a ParseError of KindMalformedTuple.
func IsMalformedTuple(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == KindMalformedTuple
}

// IsUnsupported reports whether err is a ParseError of KindUnsupported.
func IsUnsupported(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == KindUnsupported
}
