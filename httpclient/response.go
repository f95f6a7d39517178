package httpclient

// Response is the result of a successful (2xx) request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Result is the decoded body, or nil when the body was empty.
	Result any
	// Headers are the response headers, keyed as received.
	Headers Headers
	// Raw is the undecoded response body.
	Raw []byte
}

// Header returns a response header, ignoring key case.
func (r *Response) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// headerCollector accumulates response header lines for a single call.
type headerCollector struct {
	headers Headers
}

func newHeaderCollector() *headerCollector {
	return &headerCollector{headers: Headers{}}
}

// line consumes one header line. Lines without a colon, such as the status
// line or the terminating blank line, are ignored.
func (c *headerCollector) line(l string) {
	k, v, ok := splitHeaderLine(l)
	if !ok {
		return
	}
	c.headers[k] = v
}
