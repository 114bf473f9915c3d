package source

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dbsmedya/migrion/internal/types"
)

// LoadSchema reads a target schema from a JSON file of the form:
//
//	{
//	  "schema_name": "customers",
//	  "fields": [
//	    {"name": "id", "type": "varchar", "required": true},
//	    ...
//	  ]
//	}
func LoadSchema(path string) (*types.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema types.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	if len(schema.Fields) == 0 {
		return nil, fmt.Errorf("schema %s declares no fields", path)
	}
	seen := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s has a field with no name", path)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("schema %s declares field %q twice", path, f.Name)
		}
		seen[f.Name] = true
	}

	return &schema, nil
}
