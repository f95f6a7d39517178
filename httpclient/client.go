package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pipehttp/logger"
)

const instrumentationName = "github.com/kbukum/pipehttp/httpclient"

// Client executes requests through the injector chain, the codec registry
// and a single transport round trip. It is safe for concurrent use.
type Client struct {
	config       Config
	env          Environment
	registry     *Registry
	newTransport TransportFactory
	log          *logger.Logger

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	requests       metric.Int64Counter
	duration       metric.Float64Histogram

	mu        sync.RWMutex
	injectors []Injector
	closers   []func()
}

// Option configures a Client.
type Option func(*Client)

// WithEnvironment sets the environment that supplies the base URL.
// Config.BaseURL is ignored when set.
func WithEnvironment(env Environment) Option {
	return func(c *Client) { c.env = env }
}

// WithRegistry replaces the default codec registry.
func WithRegistry(r *Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithTransport uses t for every execution.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.newTransport = func() Transport { return t } }
}

// WithTransportFactory obtains a transport from f for every execution.
func WithTransportFactory(f TransportFactory) Option {
	return func(c *Client) { c.newTransport = f }
}

// WithInjector appends injectors after the configured default headers.
func WithInjector(injectors ...Injector) Option {
	return func(c *Client) { c.injectors = append(c.injectors, injectors...) }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) { c.meterProvider = mp }
}

// New creates a client for the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()

	c := &Client{config: cfg}
	if len(cfg.Headers) > 0 {
		c.injectors = append(c.injectors, HeaderInjector(cfg.Headers))
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.env == nil {
		c.env = StaticEnvironment(cfg.BaseURL)
	} else if c.config.BaseURL == "" {
		// only used for validation
		cfg.BaseURL = c.env.BaseURL()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if c.log == nil {
		c.log = logger.Nop()
	}
	c.log = c.log.WithComponent(cfg.Name)
	if c.registry == nil {
		c.registry = DefaultRegistry()
		c.registry.SetLogger(c.log)
	}
	if c.newTransport == nil {
		t := NewHTTPTransport(cfg.Timeout, cfg.TLS)
		c.newTransport = func() Transport { return t }
		c.closers = append(c.closers, t.CloseIdleConnections)
	}
	if err := c.initTelemetry(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) initTelemetry() error {
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}
	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	meter := c.meterProvider.Meter(instrumentationName)

	var err error
	c.requests, err = meter.Int64Counter("http.client.requests",
		metric.WithDescription("Number of executed HTTP requests"))
	if err != nil {
		return fmt.Errorf("httpclient: create request counter: %w", err)
	}
	c.duration, err = meter.Float64Histogram("http.client.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("httpclient: create duration histogram: %w", err)
	}
	return nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Registry returns the codec registry used by the client.
func (c *Client) Registry() *Registry {
	return c.registry
}

// AddInjector appends an injector. Executions already running keep the
// chain they started with.
func (c *Client) AddInjector(inj Injector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]Injector, len(c.injectors), len(c.injectors)+1)
	copy(next, c.injectors)
	c.injectors = append(next, inj)
}

func (c *Client) chain() []Injector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.injectors
}

// Close releases idle connections of the default transport.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
}

// Execute sends req and returns the decoded response. The caller's request
// is never modified. Errors other than injector failures are *Error values:
// transport failures, non-2xx responses and codec failures.
func (c *Client) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewEncodingError("request is nil", nil)
	}
	start := time.Now()
	r := req.Clone()

	ctx, span := c.tracer.Start(ctx, "http.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("http.client.name", c.config.Name),
		))
	defer span.End()

	resp, err := c.execute(ctx, r, span)
	c.record(ctx, span, r.Method, resp, err, time.Since(start))
	return resp, err
}

func (c *Client) execute(ctx context.Context, r *Request, span trace.Span) (*Response, error) {
	for _, inj := range c.chain() {
		if err := inj.Inject(ctx, r); err != nil {
			return nil, err
		}
	}

	base := c.env.BaseURL()
	url := base + r.Path
	span.SetAttributes(attribute.String("url.full", url))

	if r.Headers == nil {
		r.Headers = Headers{}
	}
	normalized := normalizeHeaders(r.Headers)
	if _, ok := normalized[headerUserAgent]; !ok {
		r.Headers[headerUserAgent] = c.config.UserAgent
		normalized[headerUserAgent] = c.config.UserAgent
	}

	var encoded *Encoded
	if r.Body != nil {
		var err error
		encoded, err = c.registry.Encode(&Request{
			Path:    r.Path,
			Method:  r.Method,
			Headers: normalized,
			Body:    r.Body,
		})
		if err != nil {
			return nil, err
		}
	} else {
		encoded = &Encoded{}
	}
	r.Headers = remapHeaders(r.Headers, normalized, encoded.Header)

	call := &Call{
		URL:        url,
		Method:     r.Method,
		Header:     serializeHeaders(r.Headers),
		Body:       encoded.Body,
		HasBody:    r.Body != nil,
		VerifyPeer: strings.HasPrefix(strings.ToLower(base), "https://"),
		CAFile:     c.config.CACertPath,
	}

	fields := logger.Fields(logger.FieldMethod, r.Method, logger.FieldURL, url)
	c.log.Debug("sending request", fields)

	collector := newHeaderCollector()
	reply, err := c.newTransport().RoundTrip(ctx, call, collector.line)
	if err != nil {
		terr := transportError(err)
		c.log.Warn("transport failure", logger.ErrorFields(fields, terr))
		return nil, terr
	}

	fields[logger.FieldStatus] = reply.StatusCode
	if reply.StatusCode < 200 || reply.StatusCode >= 300 {
		c.log.Warn("unexpected response status", fields)
		return nil, NewProtocolError(reply.StatusCode, reply.Body, collector.headers)
	}

	resp := &Response{
		StatusCode: reply.StatusCode,
		Headers:    collector.headers,
		Raw:        reply.Body,
	}
	if len(reply.Body) > 0 {
		result, err := c.registry.Decode(reply.Body, normalizeHeaders(collector.headers))
		if err != nil {
			return nil, err
		}
		resp.Result = result
	}
	c.log.Debug("request completed", fields)
	return resp, nil
}

// transportError converts a transport failure into a KindTransport error.
func transportError(err error) *Error {
	var tf *TransportFailure
	if errors.As(err, &tf) {
		return NewTransportError(tf.Code, tf.Message, err)
	}
	return NewTransportError(CodeUnknownTransport, err.Error(), err)
}

func (c *Client) record(ctx context.Context, span trace.Span, method string, resp *Response, err error, d time.Duration) {
	attrs := []attribute.KeyValue{attribute.String("http.request.method", method)}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if e, ok := AsError(err); ok {
		attrs = append(attrs, attribute.String("error.type", e.Kind.String()))
		if e.Kind == KindProtocol {
			status = e.StatusCode
		}
		if e.Kind == KindTransport {
			span.SetAttributes(attribute.Int("http.client.transport_code", e.Code))
		}
	} else if err != nil {
		attrs = append(attrs, attribute.String("error.type", "injector"))
	}
	if status != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}

	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	set := metric.WithAttributes(attrs...)
	c.requests.Add(ctx, 1, set)
	c.duration.Record(ctx, d.Seconds(), set)
}
