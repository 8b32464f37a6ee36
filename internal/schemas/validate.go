// Package schemas validates generated documents against JSON Schema.
package schemas

import (
	"fmt"
	"os"
	"strings"
	"sync"

	schemafiles "github.com/jonathan/algomentor/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one failed constraint. Field is a dotted path, "(root)" for
// the document itself.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every constraint a document failed.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("%s: %d schema violation(s): %s", e.Schema, len(e.Errors), strings.Join(msgs, "; "))
}

// Fields lists the failing field paths in order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		fields[i] = fe.Field
	}
	return fields
}

// LoadError reports a schema that is missing or does not compile.
type LoadError struct {
	Schema string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Schema, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Schema is a compiled JSON Schema.
type Schema struct {
	name     string
	text     string
	compiled *gojsonschema.Schema
}

// Compile parses and compiles a schema document.
func Compile(name string, data []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}
	return &Schema{name: name, text: string(data), compiled: compiled}, nil
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string { return s.name }

// Text returns the schema source, for inclusion in prompts.
func (s *Schema) Text() string { return s.text }

// Validate checks doc. Constraint failures are a *ValidationError; a doc
// that is not JSON gets a plain error.
func (s *Schema) Validate(doc []byte) error {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%s: failed to load document: %w", s.name, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{Schema: s.name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, re := range result.Errors() {
		field := re.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: re.Description()})
	}
	return verr
}

// ValidateFile checks the document stored at path.
func (s *Schema) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.Validate(data)
}

var embedded sync.Map // file name -> func() (*Schema, error)

// Embedded returns a schema from the schemas directory, compiled on first
// use.
func Embedded(file string) (*Schema, error) {
	load, _ := embedded.LoadOrStore(file, sync.OnceValues(func() (*Schema, error) {
		data, err := schemafiles.Files.ReadFile(file)
		if err != nil {
			return nil, &LoadError{Schema: file, Cause: err}
		}
		return Compile(file, data)
	}))
	return load.(func() (*Schema, error))()
}

// DailyFeedbackSchema returns the daily feedback schema text.
func DailyFeedbackSchema() (string, error) {
	s, err := Embedded(schemafiles.DailyFeedbackFile)
	if err != nil {
		return "", err
	}
	return s.Text(), nil
}

// ValidateDailyFeedback checks a daily feedback document.
func ValidateDailyFeedback(doc string) error {
	s, err := Embedded(schemafiles.DailyFeedbackFile)
	if err != nil {
		return err
	}
	return s.Validate([]byte(doc))
}

// ValidateDailyFeedbackFile checks a saved daily feedback report.
func ValidateDailyFeedbackFile(path string) error {
	s, err := Embedded(schemafiles.DailyFeedbackFile)
	if err != nil {
		return err
	}
	return s.ValidateFile(path)
}
