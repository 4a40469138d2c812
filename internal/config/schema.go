package config

import (
	"encoding/json"
	"fmt"

	pkgconfig "github.com/goran-ethernal/StakeIndexor/pkg/config"
	"github.com/invopop/jsonschema"
)

// GenerateSchema returns the JSON schema of the configuration file, usable by
// editors for completion and validation of YAML and JSON configs.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := r.Reflect(&pkgconfig.Config{})
	schema.Title = "StakeIndexor configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config schema: %w", err)
	}

	return data, nil
}
