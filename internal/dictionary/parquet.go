package dictionary

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/roach88/pansql/internal/types"
)

// loadParquetFile reads the schema of a Parquet file as a single stream
// named after the file.
func loadParquetFile(path, name string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot read Parquet file %s: %w", path, err)
	}

	stream := &Stream{Name: name}
	for _, field := range pf.Schema().Fields() {
		stream.Fields = append(stream.Fields, &Field{Name: field.Name(), Type: parquetType(field)})
	}
	return &Dictionary{Name: name, Streams: []*Stream{stream}}, nil
}

// parquetType maps a column to the type lattice. Groups (nested structs,
// maps) become json.
func parquetType(field parquet.Field) types.FieldType {
	var ft types.FieldType
	if field.Leaf() {
		ft = parquetLeafType(field.Type())
	} else {
		ft = types.Simple(types.Json)
	}
	ft.Nullable = field.Optional()
	if field.Repeated() {
		ft.CollectionType = types.CollectionArray
	}
	return ft
}

func parquetLeafType(t parquet.Type) types.FieldType {
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil, lt.Enum != nil:
			return types.Simple(types.Ntext)
		case lt.UUID != nil:
			return types.Simple(types.Guid)
		case lt.Json != nil:
			return types.Simple(types.Json)
		case lt.Date != nil:
			return types.Simple(types.Date)
		case lt.Decimal != nil:
			return types.FieldType{Type: types.Decimal, Info: fmt.Sprintf("%d,%d", lt.Decimal.Precision, lt.Decimal.Scale)}
		case lt.Timestamp != nil:
			if lt.Timestamp.IsAdjustedToUTC {
				return types.Simple(types.DateTimeTZ)
			}
			return types.Simple(types.DateTime)
		case lt.Time != nil:
			return types.FieldType{Type: types.Time, Info: "6"}
		case lt.Integer != nil:
			switch lt.Integer.BitWidth {
			case 8:
				if !lt.Integer.IsSigned {
					return types.Simple(types.Byte)
				}
				return types.Simple(types.Short)
			case 16:
				return types.Simple(types.Short)
			case 32:
				return types.Simple(types.Int)
			}
			return types.Simple(types.Long)
		}
	}
	switch t.Kind() {
	case parquet.Boolean:
		return types.Simple(types.Boolean)
	case parquet.Int32:
		return types.Simple(types.Int)
	case parquet.Int64:
		return types.Simple(types.Long)
	case parquet.Int96:
		return types.Simple(types.DateTime)
	case parquet.Float:
		return types.Simple(types.Single)
	case parquet.Double:
		return types.Simple(types.Double)
	case parquet.FixedLenByteArray:
		return types.FieldType{Type: types.Binary, Info: fmt.Sprint(t.Length())}
	}
	return types.Simple(types.Blob)
}
