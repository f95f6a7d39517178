package httpclient

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSONCodec handles application/json, with or without parameters.
type JSONCodec struct{}

// Matches implements Codec.
func (JSONCodec) Matches(mediaType string) bool {
	return strings.HasPrefix(mediaType, "application/json")
}

// Encode passes strings through unchanged and marshals structured values.
func (JSONCodec) Encode(req *Request) (*Encoded, error) {
	data, err := encodeJSON(req.Body)
	if err != nil {
		return nil, err
	}
	return &Encoded{Body: data}, nil
}

// Decode parses the body into maps, slices and scalars.
func (JSONCodec) Decode(data []byte, _ Headers) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, NewDecodingError("invalid JSON response body", err)
	}
	return v, nil
}

func encodeJSON(b *Body) ([]byte, error) {
	switch {
	case b.Kind() == BodyRaw:
		return []byte(b.Raw()), nil
	case b.isStructured():
		data, err := json.Marshal(b.Value())
		if err != nil {
			return nil, NewEncodingError("marshal JSON body", err)
		}
		return data, nil
	case b.Kind() == BodyFields:
		return encodeJSONFields(b.Fields())
	default:
		return nil, NewEncodingError("cannot serialize data: unsupported body type", nil)
	}
}

// encodeJSONFields renders text fields as a JSON object in field order.
func encodeJSONFields(fields []FormField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if f.Kind != FieldText {
			return nil, NewEncodingError("cannot serialize data: field \""+f.Name+"\" is not a text value", nil)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f.Name)
		v, _ := json.Marshal(f.Value)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
