package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pansql/internal/types"
)

const salesYAML = `name: sales
streams:
  - namespace: dbo
    name: Orders
    fields:
      - name: id
        type: int
        primaryKey: true
      - name: total
        type: decimal(10,2)?
      - name: tags
        type: nvarchar(20)[]
  - name: Customers
    fields:
      - name: id
        type: bigint
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return dir
}

func fieldType(t *testing.T, s *Stream, name string) string {
	t.Helper()
	f, ok := s.Field(name)
	require.True(t, ok, "field %s", name)
	return f.Type.String()
}

func TestFileLoader_YAML(t *testing.T) {
	dir := writeFile(t, "sales.pansync", salesYAML)

	dict, err := FileLoader{BasePath: dir}.Load("sales.pansync")
	require.NoError(t, err)
	assert.Equal(t, "sales", dict.Name)
	require.Len(t, dict.Streams, 2)

	orders, ok := dict.Stream("dbo.orders")
	require.True(t, ok)
	assert.Same(t, orders, dict.Streams[0])
	bare, ok := dict.Stream("Orders")
	require.True(t, ok)
	assert.Same(t, orders, bare)

	assert.Equal(t, "int", fieldType(t, orders, "ID"))
	assert.Equal(t, "decimal(10,2)?", fieldType(t, orders, "total"))
	assert.Equal(t, "nvarchar(20)[]", fieldType(t, orders, "tags"))
	assert.True(t, orders.Fields[0].PrimaryKey)

	customers, _ := dict.Stream("Customers")
	assert.Equal(t, "long", fieldType(t, customers, "id"))
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte("name: x\nstreams:\n  - name: A\n    fields:\n      - name: a\n        type: decimal\n"))
	assert.ErrorContains(t, err, "requires a precision")

	_, err = ParseYAML([]byte("name: x\nstreamz: []\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestDictionary_Validate(t *testing.T) {
	dup := &Dictionary{Streams: []*Stream{
		{Name: "A", Fields: []*Field{{Name: "x", Type: types.Simple(types.Int)}, {Name: "X", Type: types.Simple(types.Int)}}},
	}}
	assert.ErrorContains(t, dup.Validate(), "field X is defined twice")

	twice := &Dictionary{Streams: []*Stream{{Name: "A"}, {Name: "a"}}}
	assert.ErrorContains(t, twice.Validate(), "defined twice")
}

func TestMarshalYAML(t *testing.T) {
	dict, err := ParseYAML([]byte(salesYAML))
	require.NoError(t, err)
	out, err := MarshalYAML(dict)
	require.NoError(t, err)
	assert.Contains(t, string(out), "type: decimal(10,2)?")

	again, err := ParseYAML(out)
	require.NoError(t, err)
	assert.Equal(t, dict, again)
}

const ordersSchema = `{
  "type": "record",
  "name": "Orders",
  "namespace": "shop",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "note", "type": ["null", "string"], "default": null},
    {"name": "amount", "type": {"type": "bytes", "logicalType": "decimal", "precision": 12, "scale": 2}},
    {"name": "placed", "type": {"type": "long", "logicalType": "timestamp-millis"}},
    {"name": "ref", "type": {"type": "string", "logicalType": "uuid"}},
    {"name": "lines", "type": {"type": "array", "items": "int"}},
    {"name": "hash", "type": {"type": "fixed", "name": "md5", "size": 16}}
  ]
}`

func TestFileLoader_AvroSchema(t *testing.T) {
	dir := writeFile(t, "orders.avsc", ordersSchema)

	dict, err := FileLoader{BasePath: dir}.Load("orders.avsc")
	require.NoError(t, err)
	assert.Equal(t, "orders", dict.Name)

	s, ok := dict.Stream("shop.Orders")
	require.True(t, ok)
	assert.Equal(t, "long", fieldType(t, s, "id"))
	assert.Equal(t, "ntext?", fieldType(t, s, "note"))
	assert.Equal(t, "decimal(12,2)", fieldType(t, s, "amount"))
	assert.Equal(t, "datetimetz", fieldType(t, s, "placed"))
	assert.Equal(t, "guid", fieldType(t, s, "ref"))
	assert.Equal(t, "int[]", fieldType(t, s, "lines"))
	assert.Equal(t, "binary(16)", fieldType(t, s, "hash"))
}

func TestParseAvroSchema_Invalid(t *testing.T) {
	_, err := ParseAvroSchema(`{"type": "record", "name": "X", "fields": [{"name": "a", "type": "nope"}]}`, "x")
	assert.ErrorContains(t, err, "invalid Avro schema")

	_, err = ParseAvroSchema(`"string"`, "x")
	assert.Error(t, err)
}

func TestFileLoader_AvroContainer(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "events.avro"))
	require.NoError(t, err)
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:      f,
		Schema: `{"type": "record", "name": "Event", "fields": [{"name": "kind", "type": "string"}, {"name": "n", "type": "int"}]}`,
	})
	require.NoError(t, err)
	require.NoError(t, w.Append([]map[string]any{{"kind": "click", "n": int32(1)}}))
	require.NoError(t, f.Close())

	dict, err := FileLoader{BasePath: dir}.Load("events.avro")
	require.NoError(t, err)
	s, ok := dict.Stream("Event")
	require.True(t, ok)
	assert.Equal(t, "ntext", fieldType(t, s, "kind"))
	assert.Equal(t, "int", fieldType(t, s, "n"))
}

type visit struct {
	Page  string   `parquet:"page"`
	Hits  int32    `parquet:"hits"`
	Score *float64 `parquet:"score,optional"`
	Tags  []string `parquet:"tags"`
	Ok    bool     `parquet:"ok"`
}

func TestFileLoader_Parquet(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "visits.parquet"))
	require.NoError(t, err)
	w := parquet.NewWriter(f)
	score := 0.5
	require.NoError(t, w.Write(visit{Page: "/", Hits: 3, Score: &score, Tags: []string{"a"}, Ok: true}))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	dict, err := FileLoader{BasePath: dir}.Load("visits.parquet")
	require.NoError(t, err)
	s, ok := dict.Stream("visits")
	require.True(t, ok)
	assert.Equal(t, "ntext", fieldType(t, s, "page"))
	assert.Equal(t, "int", fieldType(t, s, "hits"))
	assert.Equal(t, "double?", fieldType(t, s, "score"))
	assert.Equal(t, "ntext[]", fieldType(t, s, "tags"))
	assert.Equal(t, "boolean", fieldType(t, s, "ok"))
}

func TestFileLoader_Errors(t *testing.T) {
	_, err := FileLoader{BasePath: t.TempDir()}.Load("missing.pansync")
	assert.Error(t, err)

	_, err = FileLoader{}.Load("dict.csv")
	assert.ErrorContains(t, err, "unsupported dictionary format")
}

func TestMapLoader(t *testing.T) {
	d := &Dictionary{Name: "d"}
	loader := MapLoader{"d.pansync": d}
	got, err := loader.Load("d.pansync")
	require.NoError(t, err)
	assert.Same(t, d, got)

	_, err = loader.Load("other")
	assert.Error(t, err)
}
