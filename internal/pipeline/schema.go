// internal/pipeline/schema.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldType names the value type a schema field is coerced to.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldBool   FieldType = "bool"
	FieldList   FieldType = "list"
	FieldMap    FieldType = "map"
)

// Schema maps field names to their coercion target types.
type Schema map[string]FieldType

// SchemaError reports that the top-level input to the mapper was not
// record-shaped. It is the one fatal condition in this component.
type SchemaError struct {
	Reason string
	Cause  error
}

func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema mapping failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("schema mapping failed: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// typeOf classifies a value for schema inference.
func typeOf(value interface{}) FieldType {
	switch value.(type) {
	case bool:
		return FieldBool
	case int, int32, int64:
		return FieldInt
	case float32, float64:
		return FieldFloat
	case []interface{}, []string:
		return FieldList
	case map[string]interface{}:
		return FieldMap
	default:
		return FieldString
	}
}

// InferSchema scans every record's keys in order and records each key's
// value type the first time it is seen with a non-nil value. The result
// is the union of all fields across all records.
func InferSchema(records []map[string]interface{}) Schema {
	schema := make(Schema)
	for _, record := range records {
		for key, value := range record {
			if _, seen := schema[key]; seen {
				continue
			}
			if value == nil {
				continue
			}
			schema[key] = typeOf(value)
		}
	}
	// Keys that only ever appeared as nil still belong to the schema.
	for _, record := range records {
		for key := range record {
			if _, seen := schema[key]; !seen {
				schema[key] = FieldString
			}
		}
	}
	return schema
}

// MapRecords coerces every record to the schema, inferring one when
// schema is nil. Coercion never fails a call: a value that cannot be
// converted becomes an explicit nil for that field.
func MapRecords(records []map[string]interface{}, schema Schema) (Schema, []map[string]interface{}) {
	if schema == nil {
		schema = InferSchema(records)
	}

	mapped := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		out := make(map[string]interface{}, len(schema))
		for field, fieldType := range schema {
			out[field] = coerce(record[field], fieldType)
		}
		mapped = append(mapped, out)
	}
	return schema, mapped
}

// MapJSON parses a JSON array of records and maps it to the schema.
// A payload that is not a list of records yields a SchemaError.
func MapJSON(data []byte, schema Schema) (Schema, []map[string]interface{}, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &SchemaError{Reason: "input is not a list of records", Cause: err}
	}
	outSchema, mapped := MapRecords(raw, schema)
	return outSchema, mapped, nil
}

// coerce converts a value to the declared field type. Numeric fields
// turn falsy or absent values into their zero value; list fields wrap
// scalars; everything un-coercible becomes nil.
func coerce(value interface{}, fieldType FieldType) interface{} {
	switch fieldType {
	case FieldString:
		if value == nil {
			return nil
		}
		if s, ok := value.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", value)

	case FieldInt:
		return coerceInt(value)

	case FieldFloat:
		return coerceFloat(value)

	case FieldBool:
		if value == nil {
			return nil
		}
		return truthy(value)

	case FieldList:
		switch v := value.(type) {
		case nil:
			return nil
		case []interface{}:
			return v
		case []string:
			out := make([]interface{}, len(v))
			for i, s := range v {
				out[i] = s
			}
			return out
		default:
			return []interface{}{v}
		}

	case FieldMap:
		switch v := value.(type) {
		case nil:
			return nil
		case map[string]interface{}:
			return v
		default:
			return map[string]interface{}{}
		}

	default:
		return value
	}
}

func coerceInt(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		if strings.TrimSpace(v) == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int(f)
		}
		return nil
	default:
		return nil
	}
}

func coerceFloat(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return 0.0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1.0
		}
		return 0.0
	case string:
		if strings.TrimSpace(v) == "" {
			return 0.0
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		return nil
	default:
		return nil
	}
}

// truthy follows loose truthiness: empty strings, zero numbers and
// empty containers are false.
func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return value != nil
	}
}
