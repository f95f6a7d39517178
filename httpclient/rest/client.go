package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/pipehttp/httpclient"
)

const mediaTypeJSON = "application/json"

// Client is a JSON-focused REST client that wraps the base HTTP client.
type Client struct {
	http *httpclient.Client
}

// New creates a REST client. JSON Content-Type and Accept headers are added
// to cfg.Headers unless already present.
func New(cfg httpclient.Config, opts ...httpclient.Option) (*Client, error) {
	headers := httpclient.Headers(cfg.Headers).Clone()
	if !headers.Has("Content-Type") {
		headers["Content-Type"] = mediaTypeJSON
	}
	if !headers.Has("Accept") {
		headers["Accept"] = mediaTypeJSON
	}
	cfg.Headers = headers

	c, err := httpclient.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// NewFromClient creates a REST client from an existing HTTP client.
// Requests still default to JSON headers.
func NewFromClient(c *httpclient.Client) *Client {
	return &Client{http: c}
}

// HTTP returns the underlying HTTP client.
func (c *Client) HTTP() *httpclient.Client {
	return c.http
}

// RequestOption configures a single REST request.
type RequestOption func(*httpclient.Request)

// WithQuery appends query parameters to the request path, sorted by key.
func WithQuery(params map[string]string) RequestOption {
	return func(r *httpclient.Request) {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		if len(q) == 0 {
			return
		}
		sep := "?"
		if strings.Contains(r.Path, "?") {
			sep = "&"
		}
		r.Path += sep + q.Encode()
	}
}

// WithHeaders adds headers to the request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *httpclient.Request) {
		for k, v := range headers {
			r.SetHeader(k, v)
		}
	}
}

// Response wraps a typed REST response.
type Response[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Data is the decoded response body.
	Data T
}

// Get performs a GET request and decodes the JSON response into type T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request with a JSON body and decodes the response into type T.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodPost, path, body, opts...)
}

// Put performs a PUT request with a JSON body and decodes the response into type T.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodPut, path, body, opts...)
}

// Patch performs a PATCH request with a JSON body and decodes the response into type T.
func Patch[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodPatch, path, body, opts...)
}

// Delete performs a DELETE request and decodes the response into type T.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodDelete, path, nil, opts...)
}

// do executes a REST request and decodes the JSON response. On a protocol
// error the body is still decoded into Data when it is valid JSON.
func do[T any](ctx context.Context, c *Client, method, path string, body any, opts ...RequestOption) (*Response[T], error) {
	req := httpclient.NewRequest(method, path)
	defaults := httpclient.Headers(c.http.Config().Headers)
	if !defaults.Has("Content-Type") {
		req.SetHeader("Content-Type", mediaTypeJSON)
	}
	if !defaults.Has("Accept") {
		req.SetHeader("Accept", mediaTypeJSON)
	}
	switch b := body.(type) {
	case nil:
	case string:
		req.Body = httpclient.RawBody(b)
	case []byte:
		req.Body = httpclient.RawBody(string(b))
	default:
		req.Body = httpclient.StructBody(b)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Execute(ctx, req)
	if err != nil {
		if e, ok := httpclient.AsError(err); ok && e.Kind == httpclient.KindProtocol {
			var data T
			if jsonErr := json.Unmarshal(e.Body, &data); jsonErr == nil {
				return &Response[T]{StatusCode: e.StatusCode, Headers: e.Headers, Data: data}, err
			}
		}
		return nil, err
	}

	var data T
	if len(resp.Raw) > 0 {
		if err := json.Unmarshal(resp.Raw, &data); err != nil {
			return nil, httpclient.NewDecodingError("httpclient/rest: decode response", err)
		}
	}
	return &Response[T]{StatusCode: resp.StatusCode, Headers: resp.Headers, Data: data}, nil
}
