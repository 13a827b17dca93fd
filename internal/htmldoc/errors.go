package htmldoc

import "errors"

// ErrMalformedDocument is matched by every ParseError
var ErrMalformedDocument = errors.New("malformed document")

// Reasons carried by ParseError
const (
	ReasonEmpty  = "empty"
	ReasonBinary = "binary"
	ReasonNoRoot = "no_root"
)

// ParseError means the body has no usable HTML at all
type ParseError struct {
	Reason string
	Detail string
}

func (e *ParseError) Error() string {
	msg := "malformed document: " + e.Reason
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return ErrMalformedDocument }
