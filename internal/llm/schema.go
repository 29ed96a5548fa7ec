package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name is kebab-case and keys the compiled form, e.g.
	// "pronunciation-feedback". Two schemas must not share a name.
	Name        string
	Description string
	Definition  map[string]any
}

var compiled = struct {
	sync.Mutex
	byName map[string]*jsonschema.Schema
}{byName: make(map[string]*jsonschema.Schema)}

// Check validates raw against the schema. A nil schema accepts anything.
// Failures are *ErrInvalidResponse.
func (s *Schema) Check(raw json.RawMessage) error {
	if s == nil {
		return nil
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return invalid(raw, "invalid JSON: %w", err)
	}
	sch, err := s.compile()
	if err != nil {
		return invalid(raw, "compile schema %q: %w", s.Name, err)
	}
	if err := sch.Validate(doc); err != nil {
		return invalid(raw, "schema validation failed: %w", err)
	}
	return nil
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	compiled.Lock()
	defer compiled.Unlock()
	if sch, ok := compiled.byName[s.Name]; ok {
		return sch, nil
	}

	def, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, err
	}
	url := "schema://" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiled.byName[s.Name] = sch
	return sch, nil
}
