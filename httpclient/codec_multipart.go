package httpclient

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	crlf           = "\r\n"
	boundaryPrefix = "---------------------"
)

var unsafeNameChars = strings.NewReplacer("\x00", "_", `"`, "_", "\r", "_", "\n", "_")

// MultipartCodec handles multipart/* media types. It only encodes. FormParts
// declaring application/json are encoded through the nested Encoder.
type MultipartCodec struct {
	nested   Encoder
	boundary func() string
}

// NewMultipartCodec creates a multipart codec that encodes nested parts
// with enc, typically the registry it is registered in.
func NewMultipartCodec(enc Encoder) *MultipartCodec {
	return &MultipartCodec{nested: enc, boundary: newBoundary}
}

// Matches implements Codec.
func (*MultipartCodec) Matches(mediaType string) bool {
	return strings.HasPrefix(mediaType, "multipart/")
}

// Encode renders the body as MIME multipart and returns a content-type
// patch carrying the generated boundary.
func (m *MultipartCodec) Encode(req *Request) (*Encoded, error) {
	ct, _ := req.Headers.Get(headerContentType)
	if req.Body == nil || !req.Body.IsAssociative() {
		return nil, NewEncodingError("request body must be an associative collection when Content-Type is: "+ct, nil)
	}
	fields, err := multipartFields(req.Body)
	if err != nil {
		return nil, err
	}

	boundary := m.boundary()
	var values, files []string
	for _, f := range fields {
		name := unsafeNameChars.Replace(f.Name)
		switch f.Kind {
		case FieldFile:
			if f.File == nil {
				return nil, NewEncodingError("multipart field \""+name+"\" has no file", nil)
			}
			files = append(files, filePart(name, f.File))
		case FieldPart:
			if f.Part == nil {
				return nil, NewEncodingError("multipart field \""+name+"\" has no part", nil)
			}
			p, err := m.formPart(name, f.Part)
			if err != nil {
				return nil, err
			}
			values = append(values, p)
		default:
			values = append(values, textPart(name, f.Value))
		}
	}

	parts := make([]string, 0, len(values)+len(files)+2)
	for _, p := range append(values, files...) {
		parts = append(parts, "--"+boundary+crlf+p)
	}
	parts = append(parts, "--"+boundary+"--", "")

	return &Encoded{
		Body:   []byte(strings.Join(parts, crlf)),
		Header: Headers{headerContentType: ct + "; boundary=" + boundary},
	}, nil
}

// Decode is not supported.
func (*MultipartCodec) Decode([]byte, Headers) (any, error) {
	return nil, NewUnsupportedError("multipart codec does not support deserialization")
}

func (m *MultipartCodec) formPart(name string, part *FormPart) (string, error) {
	disposition := `Content-Disposition: form-data; name="` + name + `"`
	declared, hasType := normalizeHeaders(part.Headers())[headerContentType]

	var value string
	body := part.Body()
	switch {
	case hasType && mediaType(declared) == "application/json":
		disposition += `; filename="` + name + `.json"`
		fallthrough
	case hasType && (body == nil || body.Kind() != BodyRaw):
		if body == nil {
			break
		}
		enc, err := m.nested.Encode(&Request{
			Path:    "/",
			Method:  http.MethodPost,
			Headers: normalizeHeaders(part.Headers()),
			Body:    body,
		})
		if err != nil {
			return "", err
		}
		value = string(enc.Body)
	case body == nil:
	case body.Kind() == BodyRaw:
		value = body.Raw()
	default:
		return "", NewEncodingError("form part \""+name+"\" has a structured value but no content type", nil)
	}

	lines := []string{disposition}
	lines = append(lines, serializeHeaders(part.Headers())...)
	lines = append(lines, "", value)
	return strings.Join(lines, crlf), nil
}

func textPart(name, value string) string {
	return strings.Join([]string{
		`Content-Disposition: form-data; name="` + name + `"`,
		"",
		value,
	}, crlf)
}

func filePart(name string, f *FilePart) string {
	filename := unsafeNameChars.Replace(filepath.Base(f.Filename))
	return strings.Join([]string{
		`Content-Disposition: form-data; name="` + name + `"; filename="` + filename + `"`,
		"Content-Type: " + detectMIME(f.Data),
		"",
		string(f.Data),
	}, crlf)
}

// detectMIME sniffs the media type of data, without parameters.
func detectMIME(data []byte) string {
	return mediaType(mimetype.Detect(data).String())
}

// multipartFields returns the body as an ordered field list. Struct bodies
// must be flat maps of scalars and are ordered by key.
func multipartFields(b *Body) ([]FormField, error) {
	if b.Kind() == BodyFields {
		return b.Fields(), nil
	}
	tree, err := toTree(b.Value())
	if err != nil {
		return nil, NewEncodingError("flatten multipart body", err)
	}
	m, ok := tree.(map[string]any)
	if !ok {
		return nil, NewEncodingError("request body must be an associative collection", nil)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]FormField, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any, []any:
			return nil, NewEncodingError("multipart field \""+k+"\" must be a scalar value", nil)
		case nil:
			fields = append(fields, TextField(k, ""))
		default:
			fields = append(fields, TextField(k, formScalar(v)))
		}
	}
	return fields, nil
}

// newBoundary hashes a random UUID with the nanosecond clock.
func newBoundary() string {
	sum := md5.Sum([]byte(uuid.NewString() + strconv.FormatInt(time.Now().UnixNano(), 10)))
	return boundaryPrefix + hex.EncodeToString(sum[:])
}
