package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:generate go run ../../cmd/schema --output schema.json

//go:embed schema.json
var embeddedSchema []byte

var compiledSchema = sync.OnceValues(func() (*validator.Schema, error) {
	return validator.CompileString("schema.json", string(embeddedSchema))
})

// GenerateSchema generates a JSON schema for the Config struct.
// Fields without omitempty are reported as required.
func GenerateSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{}
	return r.Reflect(&Config{})
}

// verifySchema validates the config, as its JSON form, against the embedded schema
func verifySchema(cfg *Config) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile embedded schema: %w", err)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return sch.Validate(doc)
}

// CheckEmbeddedSchema reports whether the embedded schema still describes Config:
// same definitions, same properties and same required keys as a freshly generated one.
func CheckEmbeddedSchema() error {
	generated, err := json.Marshal(GenerateSchema())
	if err != nil {
		return fmt.Errorf("marshal generated schema: %w", err)
	}
	want, err := schemaShape(generated)
	if err != nil {
		return fmt.Errorf("generated schema: %w", err)
	}
	have, err := schemaShape(embeddedSchema)
	if err != nil {
		return fmt.Errorf("embedded schema: %w", err)
	}
	if !reflect.DeepEqual(want, have) {
		return fmt.Errorf("embedded schema is out of date, run go generate ./pkg/config")
	}
	return nil
}

type defShape struct {
	Properties []string
	Required   []string
}

// schemaShape extracts sorted property and required names per definition
func schemaShape(data []byte) (map[string]defShape, error) {
	var doc struct {
		Defs map[string]struct {
			Properties map[string]json.RawMessage `json:"properties"`
			Required   []string                   `json:"required"`
		} `json:"$defs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	res := make(map[string]defShape, len(doc.Defs))
	for name, def := range doc.Defs {
		props := make([]string, 0, len(def.Properties))
		for p := range def.Properties {
			props = append(props, p)
		}
		slices.Sort(props)
		required := slices.Clone(def.Required)
		slices.Sort(required)
		res[name] = defShape{Properties: props, Required: required}
	}
	return res, nil
}
