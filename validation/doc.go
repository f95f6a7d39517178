// Package validation validates configuration structs using go-playground
// validator tags and reports failures field by field.
//
// Field names in messages follow the yaml tag, falling back to snake_case.
package validation
