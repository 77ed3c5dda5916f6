package kafka

import (
	"fmt"
	"strings"

	"github.com/hamba/avro/v2"
)

// SchemaNamespace is the Avro namespace of generated close-approach schemas.
const SchemaNamespace = "gov.nasa.jpl.cad"

// GenerateAvroSchema creates an Avro record schema for a close-approach query
// from the column labels of its response. Every field is an optional string,
// which holds any value the CAD API returns.
func GenerateAvroSchema(name string, fields []string) (avro.Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("cannot generate schema with no fields")
	}

	avroFields := make([]*avro.Field, 0, len(fields))
	for _, f := range fields {
		schema, err := avro.NewUnionSchema([]avro.Schema{
			&avro.NullSchema{},
			avro.NewPrimitiveSchema(avro.String, nil),
		})
		if err != nil {
			return nil, fmt.Errorf("creating union for %s: %w", f, err)
		}

		field, err := avro.NewField(f, schema, avro.WithDefault(nil))
		if err != nil {
			return nil, fmt.Errorf("creating field %s: %w", f, err)
		}
		avroFields = append(avroFields, field)
	}

	recordSchema, err := avro.NewRecordSchema(avroName(name), SchemaNamespace, avroFields)
	if err != nil {
		return nil, fmt.Errorf("creating record schema: %w", err)
	}

	return recordSchema, nil
}

// avroName maps a query name like "pha-next-60d" to a valid Avro name.
func avroName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "close_approach"
	}
	return b.String()
}
