package httpclient

import (
	"context"
	"fmt"
)

// Transport error codes, numbered like libcurl's CURLcode.
const (
	CodeMalformedURL     = 3
	CodeResolveHost      = 6
	CodeConnect          = 7
	CodeTimeout          = 28
	CodeTLSHandshake     = 35
	CodeBadArgument      = 43
	CodeReceive          = 56
	CodePeerCertificate  = 60
	CodeUnknownTransport = 1000
)

// Call is a fully prepared request handed to a Transport.
type Call struct {
	// URL is the absolute target URL.
	URL string
	// Method is the HTTP method, sent verbatim.
	Method string
	// Header holds "Name: value" lines.
	Header []string
	// Body is the encoded request body. Ignored unless HasBody is set.
	Body []byte
	// HasBody reports whether a body should be sent.
	HasBody bool
	// VerifyPeer requires server certificate verification.
	VerifyPeer bool
	// CAFile is an optional path to a PEM CA bundle.
	CAFile string
}

// Reply is the raw result of a round trip.
type Reply struct {
	StatusCode int
	Body       []byte
}

// HeaderFunc receives response header data one line at a time, in arrival
// order, before the body is read.
type HeaderFunc func(line string)

// Transport performs a single HTTP round trip. Low-level failures should be
// reported as *TransportFailure so that a code reaches the caller.
type Transport interface {
	RoundTrip(ctx context.Context, call *Call, onHeader HeaderFunc) (*Reply, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, call *Call, onHeader HeaderFunc) (*Reply, error)

// RoundTrip implements Transport.
func (f TransportFunc) RoundTrip(ctx context.Context, call *Call, onHeader HeaderFunc) (*Reply, error) {
	return f(ctx, call, onHeader)
}

// TransportFactory returns the Transport used for one execution.
type TransportFactory func() Transport

// TransportFailure is a low-level transport error with a numeric code.
type TransportFailure struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
func (f *TransportFailure) Error() string {
	return fmt.Sprintf("transport error %d: %s", f.Code, f.Message)
}

// Unwrap returns the underlying error.
func (f *TransportFailure) Unwrap() error { return f.Err }
