package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://gridfactory.dev/schemas/"

// Schema file names.
const (
	SchemaHello   = "hello.schema.json"
	SchemaWelcome = "welcome.schema.json"
	SchemaCmd     = "cmd.schema.json"
	SchemaAck     = "ack.schema.json"
	SchemaFrame   = "frame.schema.json"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		schemasErr = err
		return
	}
	c := jsonschema.NewCompiler()
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), bytes.NewReader(b)); err != nil {
			schemasErr = fmt.Errorf("%s: %w", e.Name(), err)
			return
		}
	}
	out := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		s, err := c.Compile(schemaBaseURL + e.Name())
		if err != nil {
			schemasErr = fmt.Errorf("%s: %w", e.Name(), err)
			return
		}
		out[e.Name()] = s
	}
	schemas = out
}

// Schema returns a compiled embedded schema by file name.
func Schema(name string) (*jsonschema.Schema, error) {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return nil, schemasErr
	}
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// Validate checks a raw JSON message against the named schema.
func Validate(name string, raw []byte) error {
	s, err := Schema(name)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
