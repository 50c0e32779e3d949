package record

import (
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

//go:embed schema/*.json
var schemaFS embed.FS

type ParquetSchema struct {
	Name   string         `json:"name"`
	Fields []ParquetField `json:"fields"`
}

type ParquetField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema returns the published column list for the record type of sample.
func Schema(sample any) (ParquetSchema, error) {
	var name string
	switch sample.(type) {
	case SolveRecord:
		name = "solve"
	case VerifyRecord:
		name = "verify"
	default:
		return ParquetSchema{}, fmt.Errorf("no parquet schema for %T", sample)
	}
	data, err := schemaFS.ReadFile("schema/" + name + ".json")
	if err != nil {
		return ParquetSchema{}, err
	}
	var schema ParquetSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return ParquetSchema{}, fmt.Errorf("schema %s: %w", name, err)
	}
	return schema, nil
}

// WriteParquet drains records into a snappy-compressed parquet file after
// checking the record type against its published schema.
func WriteParquet[T any](path string, records <-chan T, parallel int64) error {
	var sample T
	schema, err := Schema(sample)
	if err != nil {
		return err
	}
	if err := validateSchema(schema, sample); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(T), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for record := range records {
		if err := parquetWriter.Write(record); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// StartParquetWriter runs WriteParquet in the background and returns a
// channel that yields its error once records is closed. When writing fails
// onError is called and the remaining records are discarded, so senders
// never block on a dead writer.
func StartParquetWriter[T any](path string, records <-chan T, parallel int64, onError func()) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := WriteParquet(path, records, parallel)
		if err != nil {
			if onError != nil {
				onError()
			}
			for range records {
			}
		}
		done <- err
	}()
	return done
}

// WriteParquetSlice is WriteParquet for records already in memory.
func WriteParquetSlice[T any](path string, records []T, parallel int64) error {
	ch := make(chan T, len(records))
	for _, r := range records {
		ch <- r
	}
	close(ch)
	return WriteParquet(path, ch, parallel)
}

// ReadParquet loads every row of path.
func ReadParquet[T any](path string, parallel int64) ([]T, error) {
	absPath := path
	if !filepath.IsAbs(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			absPath = resolved
		}
	}
	fileReader, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(T), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	records := make([]T, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		if remain := num - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]T, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

// columnTypes maps published schema types to parquet physical types.
var columnTypes = map[string]string{
	"string":  "BYTE_ARRAY",
	"int32":   "INT32",
	"int64":   "INT64",
	"boolean": "BOOLEAN",
}

type column struct {
	name string
	kind string
}

// validateSchema checks that the parquet tags of sample list the schema
// columns in order with matching types.
func validateSchema(schema ParquetSchema, sample any) error {
	cols := taggedColumns(reflect.TypeOf(sample))
	if len(cols) != len(schema.Fields) {
		return fmt.Errorf("parquet schema %s: %d columns, record has %d", schema.Name, len(schema.Fields), len(cols))
	}
	for i, f := range schema.Fields {
		if cols[i].name != f.Name {
			return fmt.Errorf("parquet schema %s: column %d is %s, record has %s", schema.Name, i, f.Name, cols[i].name)
		}
		if columnTypes[f.Type] != cols[i].kind {
			return fmt.Errorf("parquet schema %s: column %s is %s, record has %s", schema.Name, f.Name, f.Type, cols[i].kind)
		}
	}
	return nil
}

func taggedColumns(rt reflect.Type) []column {
	var cols []column
	for i := 0; i < rt.NumField(); i++ {
		tag, ok := rt.Field(i).Tag.Lookup("parquet")
		if !ok {
			continue
		}
		var col column
		for _, part := range strings.Split(tag, ",") {
			key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
			switch key {
			case "name":
				col.name = value
			case "type":
				col.kind = value
			}
		}
		cols = append(cols, col)
	}
	return cols
}
