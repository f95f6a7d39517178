package httpclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies HTTP client errors.
type ErrorKind int

const (
	// KindTransport indicates a failure below HTTP: DNS, connect, TLS handshake.
	KindTransport ErrorKind = iota + 1
	// KindProtocol indicates a response with a status outside [200, 300).
	KindProtocol
	// KindEncoding indicates a request body the selected codec cannot serialize.
	KindEncoding
	// KindDecoding indicates a 2xx response body the selected codec cannot parse.
	KindDecoding
	// KindUnsupported indicates a codec asked to do something it cannot do,
	// such as decoding form data.
	KindUnsupported
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindEncoding:
		return "encoding"
	case KindDecoding:
		return "decoding"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error.
type Error struct {
	// Kind classifies the error.
	Kind ErrorKind
	// Code is the transport error code (KindTransport only).
	Code int
	// StatusCode is the HTTP status code (KindProtocol only).
	StatusCode int
	// Message describes the error.
	Message string
	// Body is the raw, undecoded response body (KindProtocol only).
	Body []byte
	// Headers are the response headers (KindProtocol only).
	Headers Headers
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindProtocol:
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Kind == KindTransport && e.Code != 0:
		return fmt.Sprintf("httpclient: %s (code %d): %s", e.Kind, e.Code, e.Message)
	default:
		return fmt.Sprintf("httpclient: %s: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error with the transport's code.
func NewTransportError(code int, message string, err error) *Error {
	return &Error{Kind: KindTransport, Code: code, Message: message, Err: err}
}

// NewProtocolError creates a protocol error. The message is the raw body.
func NewProtocolError(statusCode int, body []byte, headers Headers) *Error {
	return &Error{
		Kind:       KindProtocol,
		StatusCode: statusCode,
		Message:    string(body),
		Body:       body,
		Headers:    headers,
	}
}

// NewEncodingError creates an encoding error.
func NewEncodingError(msg string, err error) *Error {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &Error{Kind: KindEncoding, Message: msg, Err: err}
}

// NewDecodingError creates a decoding error.
func NewDecodingError(msg string, err error) *Error {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &Error{Kind: KindDecoding, Message: msg, Err: err}
}

// NewUnsupportedError creates an unsupported-operation error.
func NewUnsupportedError(msg string) *Error {
	return &Error{Kind: KindUnsupported, Message: msg}
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// IsProtocol checks if an error is a protocol error.
func IsProtocol(err error) bool { return isKind(err, KindProtocol) }

// IsEncoding checks if an error is an encoding error.
func IsEncoding(err error) bool { return isKind(err, KindEncoding) }

// IsDecoding checks if an error is a decoding error.
func IsDecoding(err error) bool { return isKind(err, KindDecoding) }

// IsUnsupported checks if an error is an unsupported-operation error.
func IsUnsupported(err error) bool { return isKind(err, KindUnsupported) }

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func isKind(err error, k ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == k
}
