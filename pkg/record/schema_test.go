package record

import "testing"

// TestValidateSchema verifies column order and types are checked against
// the published schema.
func TestValidateSchema(t *testing.T) {
	solve, err := Schema(SolveRecord{})
	if err != nil {
		t.Fatalf("solve schema: %v", err)
	}
	if err := validateSchema(solve, SolveRecord{}); err != nil {
		t.Fatalf("solve record: %v", err)
	}
	if err := validateSchema(solve, VerifyRecord{}); err == nil {
		t.Fatal("verify record should not match the solve schema")
	}

	type retyped struct {
		ID     string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
		Length int64  `parquet:"name=length, type=INT64"`
	}
	short := ParquetSchema{Name: "short", Fields: []ParquetField{
		{Name: "id", Type: "string"},
		{Name: "length", Type: "int32"},
	}}
	if err := validateSchema(short, retyped{}); err == nil {
		t.Fatal("int64 column should not match an int32 field")
	}
	short.Fields[1].Type = "int64"
	if err := validateSchema(short, retyped{}); err != nil {
		t.Fatalf("matching columns: %v", err)
	}
	short.Fields[0], short.Fields[1] = short.Fields[1], short.Fields[0]
	if err := validateSchema(short, retyped{}); err == nil {
		t.Fatal("reordered columns should not match")
	}
}
