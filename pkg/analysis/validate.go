package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/menta2k/agri-assistant/pkg/client"
)

// Validate checks that raw is JSON of the shape described by schema
func Validate(raw json.RawMessage, schema *client.Schema) error {
	return validateAt("$", raw, schema)
}

func validateAt(path string, raw json.RawMessage, s *client.Schema) error {
	if s == nil {
		return nil
	}
	if isNull(raw) {
		return fmt.Errorf("%s: null value", path)
	}

	switch s.Type {
	case client.TypeObject:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("%s: expected object", path)
		}
		for _, key := range s.Required {
			if _, ok := obj[key]; !ok {
				return fmt.Errorf("%s: missing required field %q", path, key)
			}
		}
		for key, prop := range s.Properties {
			v, ok := obj[key]
			if !ok {
				continue
			}
			if err := validateAt(path+"."+key, v, prop); err != nil {
				return err
			}
		}
	case client.TypeArray:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%s: expected array", path)
		}
		for i, item := range items {
			if err := validateAt(fmt.Sprintf("%s[%d]", path, i), item, s.Items); err != nil {
				return err
			}
		}
	case client.TypeString:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s: expected string", path)
		}
	case client.TypeNumber:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s: expected number", path)
		}
	case client.TypeBoolean:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s: expected boolean", path)
		}
	default:
		return fmt.Errorf("%s: unsupported schema type %q", path, s.Type)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
