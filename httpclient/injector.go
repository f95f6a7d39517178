package httpclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Injector mutates a request before it is sent. Injectors run in
// registration order on a clone of the caller's request; an error aborts
// the execution before any network activity.
type Injector interface {
	Inject(ctx context.Context, req *Request) error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(ctx context.Context, req *Request) error

// Inject implements Injector.
func (f InjectorFunc) Inject(ctx context.Context, req *Request) error { return f(ctx, req) }

// HeaderInjector adds headers the request does not already carry.
type HeaderInjector map[string]string

// Inject implements Injector.
func (h HeaderInjector) Inject(_ context.Context, req *Request) error {
	for k, v := range h {
		if !req.Headers.Has(k) {
			req.SetHeader(k, v)
		}
	}
	return nil
}

// BearerInjector sets "Authorization: Bearer <Token>".
type BearerInjector struct {
	Token string
}

// Inject implements Injector.
func (b BearerInjector) Inject(_ context.Context, req *Request) error {
	setHeader(req, "Authorization", "Bearer "+b.Token)
	return nil
}

// BasicAuthInjector sets HTTP Basic credentials.
type BasicAuthInjector struct {
	Username string
	Password string
}

// Inject implements Injector.
func (b BasicAuthInjector) Inject(_ context.Context, req *Request) error {
	cred := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	setHeader(req, "Authorization", "Basic "+cred)
	return nil
}

// APIKeyInjector sends an API key in a header (default) or a query parameter.
type APIKeyInjector struct {
	Key string
	// Name is the header or query parameter name. Defaults to "X-API-Key".
	Name string
	// InQuery appends the key to the request path instead of a header.
	InQuery bool
}

// Inject implements Injector.
func (a APIKeyInjector) Inject(_ context.Context, req *Request) error {
	name := a.Name
	if name == "" {
		name = "X-API-Key"
	}
	if !a.InQuery {
		setHeader(req, name, a.Key)
		return nil
	}
	sep := "?"
	if strings.Contains(req.Path, "?") {
		sep = "&"
	}
	req.Path += sep + url.QueryEscape(name) + "=" + url.QueryEscape(a.Key)
	return nil
}

// JWTInjector signs a short-lived HS256 token per request and sends it as a
// bearer token.
type JWTInjector struct {
	Secret   []byte
	Issuer   string
	Subject  string
	Audience []string
	// TTL is the token lifetime. Defaults to one minute.
	TTL time.Duration
	// Claims are extra private claims added to every token.
	Claims map[string]any

	now func() time.Time
}

// Inject implements Injector.
func (j JWTInjector) Inject(_ context.Context, req *Request) error {
	if len(j.Secret) == 0 {
		return fmt.Errorf("jwt injector: secret is required")
	}
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	ttl := j.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	issued := now()
	claims := gojwt.MapClaims{
		"iat": gojwt.NewNumericDate(issued),
		"exp": gojwt.NewNumericDate(issued.Add(ttl)),
		"jti": uuid.NewString(),
	}
	if j.Issuer != "" {
		claims["iss"] = j.Issuer
	}
	if j.Subject != "" {
		claims["sub"] = j.Subject
	}
	if len(j.Audience) > 0 {
		claims["aud"] = j.Audience
	}
	for k, v := range j.Claims {
		claims[k] = v
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return fmt.Errorf("jwt injector: sign token: %w", err)
	}
	setHeader(req, "Authorization", "Bearer "+signed)
	return nil
}

// RequestIDInjector adds a random request ID unless one is present.
type RequestIDInjector struct {
	// Header defaults to "X-Request-ID".
	Header string
}

// Inject implements Injector.
func (r RequestIDInjector) Inject(_ context.Context, req *Request) error {
	name := r.Header
	if name == "" {
		name = "X-Request-ID"
	}
	if !req.Headers.Has(name) {
		req.SetHeader(name, uuid.NewString())
	}
	return nil
}

// TraceInjector writes the trace context of ctx into the request headers.
type TraceInjector struct {
	// Propagator defaults to the global text map propagator.
	Propagator propagation.TextMapPropagator
}

// Inject implements Injector.
func (t TraceInjector) Inject(ctx context.Context, req *Request) error {
	p := t.Propagator
	if p == nil {
		p = otel.GetTextMapPropagator()
	}
	carrier := propagation.MapCarrier{}
	p.Inject(ctx, carrier)
	for k, v := range carrier {
		setHeader(req, k, v)
	}
	return nil
}

// setHeader replaces any existing spelling of name with value.
func setHeader(req *Request, name, value string) {
	for k := range req.Headers {
		if strings.EqualFold(k, name) {
			delete(req.Headers, k)
		}
	}
	req.SetHeader(name, value)
}
