package hypermedia

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a JSON Schema served inside a control and used to validate
// request bodies sent to that control.
type Schema struct {
	name     string
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

var (
	AccountSchema = mustSchema("add-account", map[string]any{
		"type":     "object",
		"required": []string{"accountname", "api_public", "api_secret"},
		"properties": map[string]any{
			"accountname": map[string]any{"type": "string", "minLength": 1, "description": "Display name"},
			"api_public":  map[string]any{"type": "string", "minLength": 1, "pattern": "^[A-Za-z0-9_-]+$", "description": "Venue API key"},
			"api_secret":  map[string]any{"type": "string", "minLength": 1, "description": "Venue API secret"},
		},
	})

	OrderSchema = mustSchema("add-order", map[string]any{
		"type":     "object",
		"required": []string{"symbol", "size", "price", "side"},
		"properties": map[string]any{
			"symbol": map[string]any{"type": "string", "minLength": 1, "description": "Instrument, e.g. XBTUSD"},
			"size":   map[string]any{"type": "integer", "minimum": 1, "description": "Contracts"},
			"price":  map[string]any{"type": "number", "exclusiveMinimum": 0, "description": "Limit price"},
			"side":   map[string]any{"type": "string", "enum": []string{"Buy", "Sell"}, "description": "Buy or Sell"},
		},
	})

	LeverageSchema = mustSchema("edit-position", map[string]any{
		"type":     "object",
		"required": []string{"leverage"},
		"properties": map[string]any{
			"leverage": map[string]any{"type": "number", "minimum": 0, "description": "0 selects cross margin"},
		},
	})
)

func mustSchema(name string, def map[string]any) *Schema {
	raw, err := json.Marshal(def)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &Schema{
		name:     name,
		raw:      raw,
		compiled: jsonschema.MustCompileString(name+".json", string(raw)),
	}
}

// MarshalJSON serves the schema exactly as it was compiled.
func (s *Schema) MarshalJSON() ([]byte, error) { return s.raw, nil }

// ErrInvalidJSON is returned when a body is not a JSON document.
var ErrInvalidJSON = errors.New("invalid JSON document")

// SchemaError lists every violation found in a body.
type SchemaError struct {
	Schema     string
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("document does not match %s schema: %s", e.Schema, strings.Join(e.Violations, "; "))
}

// Validate checks an already decoded JSON value. Numbers must be
// json.Number or float64.
func (s *Schema) Validate(v any) error {
	err := s.compiled.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate %s: %w", s.name, err)
	}
	violations := leafMessages(ve, nil)
	sort.Strings(violations)
	return &SchemaError{Schema: s.name, Violations: violations}
}

func leafMessages(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, loc+": "+ve.Message)
	}
	for _, c := range ve.Causes {
		out = leafMessages(c, out)
	}
	return out
}

// Decode parses body, validates it against s and then unmarshals it into
// dst. Nothing is written to dst unless the body is valid.
func (s *Schema) Decode(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}
	if err := s.Validate(doc); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}
