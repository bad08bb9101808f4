// Package control validates and decodes the HTTP request bodies for
// control() and set_pipeline() against literal JSON Schema documents,
// before pkg/httpapi hands the parsed request to pkg/bridge.
package control

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates JSON payloads against JSON Schema documents. It
// caches compiled schemas keyed by their raw bytes, since the two
// schemas this package defines are static and reused on every request.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewValidator creates a Validator with an empty compiled-schema cache.
func NewValidator() *Validator {
	return &Validator{cache: make(map[string]*jsonschema.Schema)}
}

// Validate validates payload against the given JSON Schema document.
func (v *Validator) Validate(schemaDoc string, payload map[string]any) error {
	compiled, err := v.compile(schemaDoc)
	if err != nil {
		return fmt.Errorf("control: compile schema: %w", err)
	}
	return compiled.Validate(payload)
}

func (v *Validator) compile(schemaDoc string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	if s, ok := v.cache[schemaDoc]; ok {
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.cache[schemaDoc]; ok {
		return s, nil
	}

	var schemaMap any
	if err := json.Unmarshal([]byte(schemaDoc), &schemaMap); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	const resourceURL = "mem://control/schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceURL, schemaMap); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	v.cache[schemaDoc] = compiled
	return compiled, nil
}
