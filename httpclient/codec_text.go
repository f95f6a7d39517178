package httpclient

import (
	"fmt"
	"strings"
)

// TextCodec handles text/* media types.
type TextCodec struct{}

// Matches implements Codec.
func (TextCodec) Matches(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/")
}

// Encode passes strings through, renders structured values as JSON and
// joins field values with a space as a last resort.
func (TextCodec) Encode(req *Request) (*Encoded, error) {
	b := req.Body
	switch {
	case b.Kind() == BodyRaw:
		return &Encoded{Body: []byte(b.Raw())}, nil
	case b.isStructured():
		data, err := encodeJSON(b)
		if err != nil {
			return nil, err
		}
		return &Encoded{Body: data}, nil
	case b.Kind() == BodyFields:
		parts := make([]string, 0, len(b.Fields()))
		for _, f := range b.Fields() {
			parts = append(parts, f.Value)
		}
		return &Encoded{Body: []byte(strings.Join(parts, " "))}, nil
	default:
		return &Encoded{Body: []byte(fmt.Sprint(b.Value()))}, nil
	}
}

// Decode returns the body as a string.
func (TextCodec) Decode(data []byte, _ Headers) (any, error) {
	return string(data), nil
}
