package dataset

import (
	"embed"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

//go:embed schema/*.json
var schemaFiles embed.FS

// Schema is the published column layout of one parquet file kind. Downstream readers load
// the same json files, so a row struct that drifts from them is rejected before writing.
type Schema struct {
	Name   string        `json:"name"`
	Fields []SchemaField `json:"fields"`
}

type SchemaField struct {
	Name     string `json:"name"`
	Type     any    `json:"type"`
	Nullable bool   `json:"nullable"`
}

func loadSchema(name string) (Schema, error) {
	data, err := schemaFiles.ReadFile("schema/" + name + ".json")
	if err != nil {
		return Schema{}, err
	}
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return Schema{}, fmt.Errorf("schema %s: %w", name, err)
	}
	return schema, nil
}

func validateSchema(schema Schema, sample any) error {
	schemaFields := make(map[string]bool, len(schema.Fields))
	for _, field := range schema.Fields {
		schemaFields[field.Name] = field.Nullable
	}
	structFields := structParquetFields(sample)
	missing := diffKeys(schemaFields, structFields)
	extra := diffKeys(structFields, schemaFields)
	var nullability []string
	for name, nullable := range structFields {
		if want, ok := schemaFields[name]; ok && want != nullable {
			nullability = append(nullability, name)
		}
	}
	sort.Strings(nullability)
	if len(missing) > 0 || len(extra) > 0 || len(nullability) > 0 {
		return fmt.Errorf("parquet schema %s mismatch: missing=%v extra=%v nullability=%v", schema.Name, missing, extra, nullability)
	}
	return nil
}

// structParquetFields maps each top-level parquet column of sample to whether it is nullable.
func structParquetFields(sample any) map[string]bool {
	fields := map[string]bool{}
	v := reflect.TypeOf(sample)
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		name := parseParquetName(field.Tag.Get("parquet"))
		if name != "" {
			fields[name] = field.Type.Kind() == reflect.Pointer
		}
	}
	return fields
}

func parseParquetName(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "name" {
			return kv[1]
		}
	}
	return ""
}

func diffKeys(a, b map[string]bool) []string {
	var diff []string
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	sort.Strings(diff)
	return diff
}
