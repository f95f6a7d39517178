package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const mediaTypeForm = "application/x-www-form-urlencoded"

// FormCodec handles application/x-www-form-urlencoded. It only encodes.
type FormCodec struct{}

// Matches implements Codec.
func (FormCodec) Matches(mediaType string) bool {
	return mediaType == mediaTypeForm
}

// Encode renders an associative body as a query string. Nested maps and
// slices are flattened into key[sub]=value pairs.
func (FormCodec) Encode(req *Request) (*Encoded, error) {
	b := req.Body
	if !b.IsAssociative() {
		ct, _ := req.Headers.Get(headerContentType)
		return nil, NewEncodingError("request body must be an associative collection when Content-Type is: "+ct, nil)
	}

	var pairs []string
	if b.Kind() == BodyFields {
		for _, f := range b.Fields() {
			if f.Kind != FieldText {
				return nil, NewEncodingError("form field \""+f.Name+"\" must be a text value", nil)
			}
			pairs = append(pairs, url.QueryEscape(f.Name)+"="+url.QueryEscape(f.Value))
		}
		return &Encoded{Body: []byte(strings.Join(pairs, "&"))}, nil
	}

	tree, err := toTree(b.Value())
	if err != nil {
		return nil, NewEncodingError("flatten form body", err)
	}
	m, ok := tree.(map[string]any)
	if !ok {
		return nil, NewEncodingError("request body must be an associative collection", nil)
	}
	pairs = appendFormPairs(pairs, "", m)
	return &Encoded{Body: []byte(strings.Join(pairs, "&"))}, nil
}

// Decode is not supported.
func (FormCodec) Decode([]byte, Headers) (any, error) {
	return nil, NewUnsupportedError("form codec does not support deserialization")
}

// toTree converts structs and typed maps into generic JSON-shaped values so
// that struct tags are honoured.
func toTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func appendFormPairs(pairs []string, prefix string, v any) []string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = appendFormPairs(pairs, formKey(prefix, k), t[k])
		}
	case []any:
		for i, e := range t {
			pairs = appendFormPairs(pairs, formKey(prefix, strconv.Itoa(i)), e)
		}
	case nil:
		// null values are omitted
	default:
		pairs = append(pairs, url.QueryEscape(prefix)+"="+url.QueryEscape(formScalar(t)))
	}
	return pairs
}

func formKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}

func formScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
