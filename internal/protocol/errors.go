package protocol

import "errors"

var (
	// ErrDecode is wrapped by every decoding failure
	ErrDecode = errors.New("decode error")

	ErrNoProtocol     = errors.New("message has no proto field")
	ErrMalformedField = errors.New("malformed field")
	ErrMissingField   = errors.New("missing field")
	ErrInvalidField   = errors.New("invalid field value")
)
