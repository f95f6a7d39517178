package httpclient

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FieldKind identifies what a FormField carries.
type FieldKind int

const (
	// FieldText is a plain scalar form value.
	FieldText FieldKind = iota + 1
	// FieldFile is a file upload.
	FieldFile
	// FieldPart is a FormPart with its own headers.
	FieldPart
)

// FormField is one named entry of a fields body.
type FormField struct {
	Name string
	Kind FieldKind
	// Value is set for FieldText.
	Value string
	// File is set for FieldFile.
	File *FilePart
	// Part is set for FieldPart.
	Part *FormPart
}

// TextField returns a scalar field.
func TextField(name, value string) FormField {
	return FormField{Name: name, Kind: FieldText, Value: value}
}

// FileField returns a file upload field.
func FileField(name string, file *FilePart) FormField {
	return FormField{Name: name, Kind: FieldFile, File: file}
}

// PartField returns a field carrying a FormPart.
func PartField(name string, part *FormPart) FormField {
	return FormField{Name: name, Kind: FieldPart, Part: part}
}

// FilePart is a file-like value uploaded in a multipart body.
type FilePart struct {
	// Filename is the name reported to the server. Only its base name is sent.
	Filename string
	// Data is the file content.
	Data []byte
}

// OpenFile reads the file at path into a FilePart.
func OpenFile(path string) (*FilePart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read file part: %w", err)
	}
	return &FilePart{Filename: filepath.Base(path), Data: data}, nil
}

// NewFilePart drains r into a FilePart named name.
func NewFilePart(name string, r io.Reader) (*FilePart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read file part: %w", err)
	}
	return &FilePart{Filename: name, Data: data}, nil
}

// FormPart is a multipart sub-value with its own headers, e.g. a JSON
// document declared with "Content-Type: application/json".
type FormPart struct {
	body    *Body
	headers Headers
}

// NewFormPart creates a FormPart. The header map is copied.
func NewFormPart(body *Body, headers map[string]string) *FormPart {
	return &FormPart{body: body, headers: Headers(headers).Clone()}
}

// Body returns the part's inner value.
func (p *FormPart) Body() *Body { return p.body }

// Headers returns the part's declared headers.
func (p *FormPart) Headers() Headers { return p.headers }
