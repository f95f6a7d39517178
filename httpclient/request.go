package httpclient

import (
	"reflect"
	"strings"
)

// Headers maps header names to values. Lookups through Get are
// case-insensitive; keys keep the casing they were set with.
type Headers map[string]string

// Get returns the value for name, matching keys case-insensitively.
// An exact-case key wins over other spellings.
func (h Headers) Get(name string) (string, bool) {
	if v, ok := h[name]; ok {
		return v, true
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Has reports whether a header with the given name exists, ignoring case.
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Clone returns a copy that does not share storage with h.
func (h Headers) Clone() Headers {
	if h == nil {
		return Headers{}
	}
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Request describes an outbound HTTP request.
type Request struct {
	// Path is appended verbatim to the environment's base URL.
	Path string
	// Method is sent as given, without case normalization.
	Method string
	// Headers are the request headers.
	Headers Headers
	// Body is the request body. Nil means no body.
	Body *Body
}

// NewRequest creates a request with an empty header map.
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Headers: Headers{}}
}

// SetHeader sets a header and returns the request for chaining.
func (r *Request) SetHeader(name, value string) *Request {
	if r.Headers == nil {
		r.Headers = Headers{}
	}
	r.Headers[name] = value
	return r
}

// Clone returns a copy whose headers and body fields can be mutated without
// affecting r.
func (r *Request) Clone() *Request {
	return &Request{
		Path:    r.Path,
		Method:  r.Method,
		Headers: r.Headers.Clone(),
		Body:    r.Body.clone(),
	}
}

// BodyKind identifies the variant held by a Body.
type BodyKind int

const (
	// BodyRaw is a pre-serialized string sent as-is by most codecs.
	BodyRaw BodyKind = iota + 1
	// BodyStruct is a structured value: a map, slice, array or struct.
	BodyStruct
	// BodyFields is an ordered associative collection of form fields.
	BodyFields
)

// String returns the kind name.
func (k BodyKind) String() string {
	switch k {
	case BodyRaw:
		return "raw"
	case BodyStruct:
		return "struct"
	case BodyFields:
		return "fields"
	default:
		return "unknown"
	}
}

// Body is a request body. Construct it with RawBody, StructBody or FieldsBody.
type Body struct {
	kind   BodyKind
	raw    string
	value  any
	fields []FormField
}

// RawBody returns a body holding an already serialized string.
func RawBody(s string) *Body {
	return &Body{kind: BodyRaw, raw: s}
}

// StructBody returns a body holding a structured value.
func StructBody(v any) *Body {
	return &Body{kind: BodyStruct, value: v}
}

// FieldsBody returns an ordered associative body, used for form and
// multipart payloads.
func FieldsBody(fields ...FormField) *Body {
	return &Body{kind: BodyFields, fields: append([]FormField(nil), fields...)}
}

// Kind returns the body variant.
func (b *Body) Kind() BodyKind { return b.kind }

// Raw returns the string of a BodyRaw body.
func (b *Body) Raw() string { return b.raw }

// Value returns the structured value of a BodyStruct body.
func (b *Body) Value() any { return b.value }

// Fields returns the fields of a BodyFields body.
func (b *Body) Fields() []FormField { return b.fields }

// Add appends a field to a BodyFields body.
func (b *Body) Add(f FormField) *Body {
	b.fields = append(b.fields, f)
	return b
}

// IsAssociative reports whether the body is a keyed collection: a fields
// body, or a struct body holding a map or struct.
func (b *Body) IsAssociative() bool {
	switch b.kind {
	case BodyFields:
		return true
	case BodyStruct:
		k := indirectKind(b.value)
		return k == reflect.Map || k == reflect.Struct
	default:
		return false
	}
}

// isStructured reports whether a struct body holds a value that serializes
// to a JSON object or array.
func (b *Body) isStructured() bool {
	if b.kind != BodyStruct {
		return false
	}
	switch indirectKind(b.value) {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func (b *Body) clone() *Body {
	if b == nil {
		return nil
	}
	c := *b
	if b.fields != nil {
		c.fields = append([]FormField(nil), b.fields...)
	}
	return &c
}

func indirectKind(v any) reflect.Kind {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Invalid
		}
		rv = rv.Elem()
	}
	return rv.Kind()
}
