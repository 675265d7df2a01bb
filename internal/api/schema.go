package api

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	submitSchemaID = "https://swarmer.internal/schemas/submit.schema.json"
	resultSchemaID = "https://swarmer.internal/schemas/result.schema.json"
)

// schemas holds the compiled JSON Schemas request bodies are validated
// against, the Go equivalent of api/schema.py's schema_dict — compiled
// once at startup instead of loaded from disk per request.
type schemas struct {
	submit *jsonschema.Schema
	result *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()

	for _, name := range []string{"submit.schema.json", "result.schema.json"} {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded schema %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded schema %s: %w", name, err)
		}
		id := submitSchemaID
		if name == "result.schema.json" {
			id = resultSchemaID
		}
		if err := compiler.AddResource(id, doc); err != nil {
			return nil, fmt.Errorf("failed to register schema %s: %w", name, err)
		}
	}

	submit, err := compiler.Compile(submitSchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile submit schema: %w", err)
	}
	result, err := compiler.Compile(resultSchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile result schema: %w", err)
	}

	return &schemas{submit: submit, result: result}, nil
}
