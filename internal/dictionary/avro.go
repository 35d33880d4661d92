package dictionary

import (
	"encoding/json"
	"fmt"
	"os"

	goavro "github.com/linkedin/goavro/v2"

	"github.com/roach88/pansql/internal/types"
)

// loadAvroFile reads an Avro schema file (.avsc) and turns each top-level
// record into a stream.
func loadAvroFile(path, name string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	return ParseAvroSchema(string(data), name)
}

// loadAvroContainer reads the schema embedded in an Avro object container
// file (.avro).
func loadAvroContainer(path, name string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF from %s: %w", path, err)
	}
	return ParseAvroSchema(ocfr.Codec().Schema(), name)
}

// ParseAvroSchema converts an Avro schema into a dictionary. The schema is
// compiled by goavro first so that invalid schemas are rejected with its
// diagnostics. A top-level union contributes one stream per record.
func ParseAvroSchema(schema, name string) (*Dictionary, error) {
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("invalid Avro schema: %w", err)
	}
	var root any
	if err := json.Unmarshal([]byte(codec.Schema()), &root); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	var records []map[string]any
	switch v := root.(type) {
	case map[string]any:
		records = append(records, v)
	case []any:
		for _, member := range v {
			if rec, ok := member.(map[string]any); ok && rec["type"] == "record" {
				records = append(records, rec)
			}
		}
	}

	dict := &Dictionary{Name: name}
	for _, rec := range records {
		if rec["type"] != "record" {
			return nil, fmt.Errorf("Avro schema %q is not a record", str(rec, "name"))
		}
		stream := &Stream{Namespace: str(rec, "namespace"), Name: str(rec, "name")}
		fields, _ := rec["fields"].([]any)
		for _, raw := range fields {
			f, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			ft, err := avroType(f["type"])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", stream.Name, str(f, "name"), err)
			}
			stream.Fields = append(stream.Fields, &Field{Name: str(f, "name"), Type: ft})
		}
		dict.Streams = append(dict.Streams, stream)
	}
	if len(dict.Streams) == 0 {
		return nil, fmt.Errorf("Avro schema defines no records")
	}
	return dict, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func avroType(t any) (types.FieldType, error) {
	switch v := t.(type) {
	case string:
		return avroPrimitive(v)
	case []any:
		// ["null", T] is a nullable T; any other union is unstructured.
		var members []any
		nullable := false
		for _, m := range v {
			if m == "null" {
				nullable = true
				continue
			}
			members = append(members, m)
		}
		if len(members) != 1 {
			return types.Simple(types.Unstructured), nil
		}
		ft, err := avroType(members[0])
		if err != nil {
			return types.FieldType{}, err
		}
		return ft.WithNullable(nullable), nil
	case map[string]any:
		return avroComplex(v)
	}
	return types.FieldType{}, fmt.Errorf("unrecognised Avro type %v", t)
}

func avroPrimitive(name string) (types.FieldType, error) {
	switch name {
	case "boolean":
		return types.Simple(types.Boolean), nil
	case "int":
		return types.Simple(types.Int), nil
	case "long":
		return types.Simple(types.Long), nil
	case "float":
		return types.Simple(types.Single), nil
	case "double":
		return types.Simple(types.Double), nil
	case "bytes":
		return types.Simple(types.Blob), nil
	case "string":
		return types.Simple(types.Ntext), nil
	}
	// Named type references are not resolved.
	return types.Simple(types.Unstructured), nil
}

func avroComplex(m map[string]any) (types.FieldType, error) {
	typeName := str(m, "type")
	switch str(m, "logicalType") {
	case "decimal":
		precision, _ := m["precision"].(float64)
		scale, _ := m["scale"].(float64)
		return types.New(types.Decimal, false, types.CollectionNone, fmt.Sprintf("%d,%d", int(precision), int(scale)))
	case "uuid":
		return types.Simple(types.Guid), nil
	case "date":
		return types.Simple(types.Date), nil
	case "time-millis":
		return types.New(types.Time, false, types.CollectionNone, "3")
	case "time-micros":
		return types.New(types.Time, false, types.CollectionNone, "6")
	case "timestamp-millis", "timestamp-micros":
		return types.Simple(types.DateTimeTZ), nil
	case "local-timestamp-millis", "local-timestamp-micros":
		return types.Simple(types.DateTime), nil
	}

	switch typeName {
	case "array":
		item, err := avroType(m["items"])
		if err != nil {
			return types.FieldType{}, err
		}
		if item.CollectionType != types.CollectionNone {
			return types.Simple(types.Json), nil
		}
		item.CollectionType = types.CollectionArray
		return item, nil
	case "fixed":
		size, _ := m["size"].(float64)
		return types.New(types.Binary, false, types.CollectionNone, fmt.Sprint(int(size)))
	case "enum":
		return types.Simple(types.Ntext), nil
	case "record", "map":
		return types.Simple(types.Json), nil
	}
	return avroPrimitive(typeName)
}
