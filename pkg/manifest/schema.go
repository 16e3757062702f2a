package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ckit-sh/ckit/pkg/errors"
)

//go:embed schema/manifest.schema.json
var manifestSchemaJSON []byte

// schemaID is a synthetic URI for the embedded schema resource.
const schemaID = "inmemory://manifest.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaID, bytes.NewReader(manifestSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(schemaID)
	})
	if schemaErr != nil {
		return nil, errors.Wrap(schemaErr, errors.ErrInternal, "embedded manifest schema is unusable")
	}
	return schema, nil
}

// validateDocument checks raw manifest JSON against the embedded schema.
// It accepts both current multi-kit documents and legacy single-kit ones.
func validateDocument(data []byte) error {
	compiled, err := compiledSchema()
	if err != nil {
		return err
	}

	// The validator wants plain decoded values, not raw bytes.
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.Wrap(err, errors.ErrManifestSchema, "manifest is not valid JSON")
	}

	if err := compiled.Validate(payload); err != nil {
		return errors.Wrap(err, errors.ErrManifestSchema, "manifest failed schema validation")
	}
	return nil
}
