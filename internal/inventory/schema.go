package inventory

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	scenariosSchema      = "scenarios.json"
	requirementSetSchema = "requirement-set.json"
)

// schemas holds the compiled response schemas of the inventory service.
type schemas struct {
	scenarios      *jsonschema.Schema
	requirementSet *jsonschema.Schema
}

func loadSchemas() (*schemas, error) {
	scenarios, err := compileSchema(scenariosSchema)
	if err != nil {
		return nil, err
	}
	reqSet, err := compileSchema(requirementSetSchema)
	if err != nil {
		return nil, err
	}
	return &schemas{scenarios: scenarios, requirementSet: reqSet}, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", name, err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("failed to add resource %s: %w", name, err)
	}

	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// validateBody checks a raw JSON response against a compiled schema.
func validateBody(schema *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
