// internal/pipeline/schema_test.go
package pipeline

import (
	"errors"
	"reflect"
	"testing"
)

func TestInferSchema(t *testing.T) {
	records := []map[string]interface{}{
		{"id": "21058", "price": 279.99, "badges": []string{"new"}},
		{"id": "10276", "price": 4999.0, "stock": 3},
	}

	schema := InferSchema(records)

	expected := Schema{
		"id":     FieldString,
		"price":  FieldFloat,
		"badges": FieldList,
		"stock":  FieldInt,
	}
	if !reflect.DeepEqual(schema, expected) {
		t.Errorf("InferSchema = %v, expected %v", schema, expected)
	}
}

func TestInferSchemaFirstSeenTypeWins(t *testing.T) {
	records := []map[string]interface{}{
		{"price": 279.99},
		{"price": "4999"},
	}
	schema := InferSchema(records)
	if schema["price"] != FieldFloat {
		t.Errorf("expected first-seen float to win, got %v", schema["price"])
	}
}

func TestInferSchemaNilOnlyKeyDefaultsToString(t *testing.T) {
	records := []map[string]interface{}{
		{"description": nil},
		{"description": nil},
	}
	schema := InferSchema(records)
	if schema["description"] != FieldString {
		t.Errorf("nil-only key should default to string, got %v", schema["description"])
	}
}

func TestMapRecordsCoercion(t *testing.T) {
	schema := Schema{
		"id":     FieldString,
		"price":  FieldFloat,
		"stock":  FieldInt,
		"badges": FieldList,
		"meta":   FieldMap,
	}

	_, mapped := MapRecords([]map[string]interface{}{
		{
			"id":     21058,
			"price":  "279.99",
			"stock":  "3",
			"badges": "new",
			"meta":   "not a map",
		},
		{
			// Missing fields fall back per type.
		},
	}, schema)

	first := mapped[0]
	if first["id"] != "21058" {
		t.Errorf("int id should stringify, got %v", first["id"])
	}
	if first["price"] != 279.99 {
		t.Errorf("string price should parse, got %v", first["price"])
	}
	if first["stock"] != 3 {
		t.Errorf("string stock should parse to int, got %v", first["stock"])
	}
	if !reflect.DeepEqual(first["badges"], []interface{}{"new"}) {
		t.Errorf("scalar badge should wrap in list, got %v", first["badges"])
	}
	if !reflect.DeepEqual(first["meta"], map[string]interface{}{}) {
		t.Errorf("non-map meta should become empty map, got %v", first["meta"])
	}

	second := mapped[1]
	if second["id"] != nil {
		t.Errorf("missing string should be nil, got %v", second["id"])
	}
	if second["price"] != 0.0 {
		t.Errorf("missing float should be zero, got %v", second["price"])
	}
	if second["stock"] != 0 {
		t.Errorf("missing int should be zero, got %v", second["stock"])
	}
	if second["badges"] != nil {
		t.Errorf("missing list should be nil, got %v", second["badges"])
	}
}

func TestMapRecordsUncoercibleBecomesNil(t *testing.T) {
	schema := Schema{"price": FieldFloat}
	_, mapped := MapRecords([]map[string]interface{}{
		{"price": "not a number"},
	}, schema)

	if mapped[0]["price"] != nil {
		t.Errorf("unparsable price should be nil, got %v", mapped[0]["price"])
	}
}

func TestMapRecordsRoundTrip(t *testing.T) {
	records := []map[string]interface{}{
		{"id": "21058", "name": "Great Pyramid of Giza", "price": 279.99},
	}

	schema, mapped := MapRecords(records, nil)
	_, remapped := MapRecords(mapped, schema)

	if !reflect.DeepEqual(mapped, remapped) {
		t.Errorf("mapping already-conforming records changed them: %v vs %v", mapped, remapped)
	}
}

func TestMapJSON(t *testing.T) {
	data := []byte(`[{"id":"21058","price":279.99}]`)

	schema, mapped, err := MapJSON(data, nil)
	if err != nil {
		t.Fatalf("MapJSON failed: %v", err)
	}
	if schema["price"] != FieldFloat {
		t.Errorf("expected float price, got %v", schema["price"])
	}
	if mapped[0]["id"] != "21058" {
		t.Errorf("unexpected id: %v", mapped[0]["id"])
	}
}

func TestMapJSONRejectsNonList(t *testing.T) {
	_, _, err := MapJSON([]byte(`{"id":"21058"}`), nil)
	if err == nil {
		t.Fatal("expected error for non-list input")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Errorf("expected SchemaError, got %T", err)
	}
}
