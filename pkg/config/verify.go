package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema []byte

// VerifyAgainstEmbeddedSchema checks the config against the embedded JSON schema:
// every section and field must be known to the schema and have the declared type
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema jsonschema.Schema
	if err := json.Unmarshal(embeddedSchema, &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := verifyObject(&schema, schema.Definitions, configMap, ""); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// verifyObject walks object value against the schema, following $ref into definitions
func verifyObject(schema *jsonschema.Schema, defs jsonschema.Definitions, value map[string]any, path string) error {
	schema, err := resolve(schema, defs)
	if err != nil {
		return err
	}
	if schema.Properties == nil {
		return fmt.Errorf("%s: schema has no properties", pathName(path))
	}

	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fieldPath := strings.TrimPrefix(path+"."+key, ".")
		prop, ok := schema.Properties.Get(key)
		if !ok {
			return fmt.Errorf("%s: unknown field", fieldPath)
		}
		if prop, err = resolve(prop, defs); err != nil {
			return err
		}
		if err := verifyType(prop, defs, value[key], fieldPath); err != nil {
			return err
		}
	}
	return nil
}

func verifyType(prop *jsonschema.Schema, defs jsonschema.Definitions, v any, path string) error {
	switch prop.Type {
	case "object":
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, v)
		}
		return verifyObject(prop, defs, obj, path)
	case "string":
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", path, v)
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", path, v)
		}
	case "integer", "number":
		n, ok := v.(float64)
		if !ok {
			return fmt.Errorf("%s: expected %s, got %T", path, prop.Type, v)
		}
		if prop.Type == "integer" && n != float64(int64(n)) {
			return fmt.Errorf("%s: expected integer, got %v", path, n)
		}
		if minimum, err := prop.Minimum.Float64(); err == nil && n < minimum {
			return fmt.Errorf("%s: %v is less than minimum %v", path, n, minimum)
		}
	}
	return nil
}

func resolve(schema *jsonschema.Schema, defs jsonschema.Definitions) (*jsonschema.Schema, error) {
	if schema == nil || schema.Ref == "" {
		return schema, nil
	}
	name := strings.TrimPrefix(schema.Ref, "#/$defs/")
	def, ok := defs[name]
	if !ok {
		return nil, fmt.Errorf("unresolved schema reference %s", schema.Ref)
	}
	return def, nil
}

func pathName(path string) string {
	if path == "" {
		return "config"
	}
	return path
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Server.Timeout == 0 {
		return fmt.Errorf("server.timeout is required")
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if cfg.Extraction.Enabled {
		if cfg.Extraction.Timeout == 0 {
			return fmt.Errorf("extraction.timeout is required when extraction is enabled")
		}
		if cfg.Extraction.MinTextLength < 0 {
			return fmt.Errorf("extraction.min_text_length must be non-negative")
		}
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
