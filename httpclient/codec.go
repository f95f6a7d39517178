package httpclient

import (
	"regexp"
	"sync"

	"github.com/kbukum/pipehttp/logger"
)

// Encoded is the output of a codec: the body bytes plus any headers the
// codec needs to set on the outgoing request.
type Encoded struct {
	Body []byte
	// Header holds headers to apply before transmission, keyed lower-case.
	Header Headers
}

// Codec serializes request bodies and parses response bodies for the media
// types it matches.
type Codec interface {
	// Matches reports whether the codec handles mediaType. mediaType is
	// lower-case with parameters removed.
	Matches(mediaType string) bool
	// Encode serializes the request body. The request's headers are
	// normalized to lower-case keys.
	Encode(req *Request) (*Encoded, error)
	// Decode parses a response body.
	Decode(data []byte, headers Headers) (any, error)
}

// Encoder encodes requests and decodes responses by content type.
type Encoder interface {
	Encode(req *Request) (*Encoded, error)
	Decode(data []byte, headers Headers) (any, error)
}

// CodecFunc binds a media type pattern to encode and decode functions.
// A nil DecodeFunc makes Decode fail as unsupported.
type CodecFunc struct {
	Pattern    *regexp.Regexp
	EncodeFunc func(req *Request) (*Encoded, error)
	DecodeFunc func(data []byte, headers Headers) (any, error)
}

// Matches implements Codec.
func (c CodecFunc) Matches(mediaType string) bool {
	return c.Pattern != nil && c.Pattern.MatchString(mediaType)
}

// Encode implements Codec.
func (c CodecFunc) Encode(req *Request) (*Encoded, error) {
	if c.EncodeFunc == nil {
		return nil, NewUnsupportedError("codec " + c.Pattern.String() + " does not support serialization")
	}
	return c.EncodeFunc(req)
}

// Decode implements Codec.
func (c CodecFunc) Decode(data []byte, headers Headers) (any, error) {
	if c.DecodeFunc == nil {
		return nil, NewUnsupportedError("codec " + c.Pattern.String() + " does not support deserialization")
	}
	return c.DecodeFunc(data, headers)
}

// Registry selects a codec by content type. Codecs are tried in
// registration order and the first match wins, so specific patterns must be
// registered before broader ones.
type Registry struct {
	mu     sync.RWMutex
	codecs []Codec
	log    *logger.Logger
}

// compile-time assertion
var _ Encoder = (*Registry)(nil)

// NewRegistry creates a registry holding the given codecs in order.
func NewRegistry(codecs ...Codec) *Registry {
	return &Registry{
		codecs: append([]Codec(nil), codecs...),
		log:    logger.Nop(),
	}
}

// DefaultRegistry returns a registry with the JSON, text, multipart and
// form codecs, in that order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(JSONCodec{})
	r.Register(TextCodec{})
	r.Register(NewMultipartCodec(r))
	r.Register(FormCodec{})
	return r
}

// Register appends a codec. Call it during setup, before the registry is
// shared with a running client.
func (r *Registry) Register(c Codec) *Registry {
	r.mu.Lock()
	r.codecs = append(r.codecs, c)
	r.mu.Unlock()
	return r
}

// SetLogger sets the logger used to report pass-through bodies.
func (r *Registry) SetLogger(l *logger.Logger) {
	if l != nil {
		r.log = l
	}
}

// Lookup returns the first codec matching contentType.
func (r *Registry) Lookup(contentType string) (Codec, bool) {
	mt := mediaType(contentType)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.codecs {
		if c.Matches(mt) {
			return c, true
		}
	}
	return nil, false
}

// Encode serializes req.Body with the codec matching its content-type.
// When no codec matches, a raw body is passed through unchanged; other
// body kinds cannot be sent without a codec and fail.
func (r *Registry) Encode(req *Request) (*Encoded, error) {
	if req.Body == nil {
		return &Encoded{}, nil
	}
	ct, _ := req.Headers.Get(headerContentType)
	if c, ok := r.Lookup(ct); ok {
		enc, err := c.Encode(req)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
	if req.Body.Kind() == BodyRaw {
		r.log.Warn("no codec registered for content type, sending body unencoded",
			logger.Fields("content_type", ct))
		return &Encoded{Body: []byte(req.Body.Raw())}, nil
	}
	return nil, NewEncodingError("no codec registered for content type \""+ct+"\" and body is "+req.Body.Kind().String(), nil)
}

// Decode parses data with the codec matching the content-type in headers.
// When no codec matches, the body is returned unchanged as a string.
func (r *Registry) Decode(data []byte, headers Headers) (any, error) {
	ct, _ := headers.Get(headerContentType)
	if c, ok := r.Lookup(ct); ok {
		return c.Decode(data, headers)
	}
	return string(data), nil
}
