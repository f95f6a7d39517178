package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/kbukum/pipehttp/security"
)

// Additional transport codes used by HTTPTransport.
const (
	CodeAborted    = 42
	CodeCACertFile = 77
)

// HTTPTransport is the default Transport, backed by net/http. Redirects are
// not followed. It is safe for concurrent use.
type HTTPTransport struct {
	timeout time.Duration
	tls     *security.TLSConfig

	mu      sync.Mutex
	clients map[clientKey]*http.Client
}

type clientKey struct {
	verify bool
	caFile string
}

// compile-time assertion
var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport with the given timeout and base TLS
// settings. tlsCfg may be nil.
func NewHTTPTransport(timeout time.Duration, tlsCfg *security.TLSConfig) *HTTPTransport {
	return &HTTPTransport{
		timeout: timeout,
		tls:     tlsCfg,
		clients: make(map[clientKey]*http.Client),
	}
}

// RoundTrip implements Transport.
func (t *HTTPTransport) RoundTrip(ctx context.Context, call *Call, onHeader HeaderFunc) (*Reply, error) {
	client, err := t.client(call.VerifyPeer, call.CAFile)
	if err != nil {
		return nil, &TransportFailure{Code: CodeCACertFile, Message: err.Error(), Err: err}
	}

	var body io.Reader
	if call.HasBody {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, body)
	if err != nil {
		return nil, &TransportFailure{Code: CodeMalformedURL, Message: err.Error(), Err: err}
	}
	if call.HasBody && len(call.Body) == 0 {
		req.Body = http.NoBody
	}
	if err := applyHeaderLines(req, call.Header); err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if onHeader != nil {
		emitHeaderLines(resp, onHeader)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, fmt.Errorf("read response body: %w", err))
	}
	return &Reply{StatusCode: resp.StatusCode, Body: data}, nil
}

// CloseIdleConnections closes idle connections of every cached client.
func (t *HTTPTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		c.CloseIdleConnections()
	}
}

// client returns a cached *http.Client for the verification mode and CA file.
func (t *HTTPTransport) client(verify bool, caFile string) (*http.Client, error) {
	key := clientKey{verify: verify, caFile: caFile}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.clients[key]; ok {
		return c, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := t.tls.WithPeerVerification(verify, caFile).Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	c := &http.Client{
		Transport: transport,
		Timeout:   t.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	t.clients[key] = c
	return c, nil
}

// applyHeaderLines parses "Name: value" lines onto req.
func applyHeaderLines(req *http.Request, lines []string) error {
	for _, line := range lines {
		k, v, ok := splitHeaderLine(line)
		if !ok || !httpguts.ValidHeaderFieldName(k) || !httpguts.ValidHeaderFieldValue(v) {
			return &TransportFailure{Code: CodeBadArgument, Message: fmt.Sprintf("invalid header line %q", line)}
		}
		switch {
		case strings.EqualFold(k, "Host"):
			req.Host = v
		case strings.EqualFold(k, "Content-Length"):
			// net/http derives it from the body
		default:
			req.Header.Add(k, v)
		}
	}
	return nil
}

// emitHeaderLines feeds the status line, each header line and the closing
// blank line to onHeader.
func emitHeaderLines(resp *http.Response, onHeader HeaderFunc) {
	onHeader(resp.Proto + " " + resp.Status)
	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			onHeader(k + ": " + v)
		}
	}
	onHeader("")
}

// classifyTransportError maps net/http errors onto transport codes.
func classifyTransportError(ctx context.Context, err error) *TransportFailure {
	code := CodeReceive

	var (
		dnsErr      *net.DNSError
		opErr       *net.OpError
		netErr      net.Error
		unknownCA   x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidCert x509.CertificateInvalidError
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
	)

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		code = CodeAborted
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		code = CodeTimeout
	case errors.As(err, &dnsErr):
		code = CodeResolveHost
	case errors.As(err, &verifyErr), errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &invalidCert):
		code = CodePeerCertificate
	case errors.As(err, &recordErr), errors.As(err, &alertErr):
		code = CodeTLSHandshake
	case errors.As(err, &opErr) && opErr.Op == "dial":
		code = CodeConnect
	}
	return &TransportFailure{Code: code, Message: err.Error(), Err: err}
}
