package intrinsics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	assert.Equal(t, int32(-1), Sign(-5))
	assert.Equal(t, int32(0), Sign(int64(0)))
	assert.Equal(t, int32(1), Sign(uint8(7)))
	assert.Equal(t, int32(-1), SignFloat32(-0.5))
	assert.Equal(t, int32(1), SignFloat64(3))
	assert.Equal(t, int32(-1), SignDecimal(MustDecimal("-2.50")))
}

func TestPower(t *testing.T) {
	assert.Equal(t, 1024, Power(2, 10))
	assert.Equal(t, int32(1), Power(int32(7), 0))
	assert.Equal(t, 0, Power(2, -1))
	assert.Equal(t, -1, Power(-1, -3))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.3, RoundFloat64(2.25, 1))
	assert.Equal(t, 2.5, RoundFloat64(2.59, 1, 1))
	assert.Equal(t, 1300, RoundInt(1250, -2))
	assert.Equal(t, int64(42), RoundInt(int64(42), 1))
	assert.Equal(t, "2.6", RoundDecimal(MustDecimal("2.55"), 1).String())
	assert.Equal(t, "2.5", RoundDecimal(MustDecimal("2.59"), 1, 1).String())
}

func TestDecimalArithmetic(t *testing.T) {
	a := MustDecimal("1.10")
	b := MustDecimal("2.20")
	assert.Equal(t, "3.30", AddDecimal(a, b).String())
	assert.Equal(t, "1.10", a.String(), "operands are not modified")
	assert.Equal(t, 0, MulDecimal(a, DecimalFromInt(2)).Cmp(b))
	assert.Equal(t, 0, SqrtDecimal(MustDecimal("9")).Cmp(DecimalFromInt(3)))
	assert.Equal(t, "2", FloorDecimal(MustDecimal("2.7")).String())
	assert.Equal(t, "3", CeilingDecimal(MustDecimal("2.1")).String())
	assert.InDelta(t, 3.0, LogDecimal(MustDecimal("8"), MustDecimal("2")).Float64(), 1e-9)

	_, err := ParseDecimal("abc")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "order 7 of bob", Format("order {0} of {1}", 7, "bob"))
	assert.Equal(t, "{0} {2}", Format("{{0}} {2}", "x"))
	assert.Equal(t, "2.5", Format("{0}", MustDecimal("2.5")))
	var missing *string
	assert.Equal(t, "[]", Format("[{0}]", missing))
}

func TestText(t *testing.T) {
	assert.Equal(t, "ab1", Concat("a", "b", 1))
	assert.Equal(t, "x  ", LTrim("  x  "))
	assert.Equal(t, "  x", RTrim("  x  "))
	assert.Equal(t, int32(5), Len("héllo"))
	assert.Equal(t, "ell", Substring("hello", 2, 3))
	assert.Equal(t, "he", Substring("hello", 0, 3))
	assert.Equal(t, "", Substring("hello", 9, 3))
}

func TestDateParts(t *testing.T) {
	d := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, Year(&d))
	assert.Equal(t, int32(2024), *Year(&d))
	assert.Equal(t, int32(3), *Month(&d))
	assert.Equal(t, int32(9), *Day(&d))
	assert.Nil(t, Year(nil))
}

func TestNullable(t *testing.T) {
	p := Ptr(int32(5))
	assert.Equal(t, int32(5), Value(p))
	assert.Equal(t, int32(0), Value[int32](nil))
}

func TestApply(t *testing.T) {
	add := func(a int32, b int64) int64 { return int64(a) + b }
	assert.Equal(t, int64(7), *Apply2(Ptr(int32(3)), Ptr(int64(4)), add))
	assert.Nil(t, Apply2(nil, Ptr(int64(4)), add))

	widened := Apply(Ptr(int32(2)), func(v int32) float64 { return float64(v) })
	assert.Equal(t, 2.0, *widened)
	assert.Nil(t, Apply((*int32)(nil), func(v int32) float64 { return float64(v) }))
}

func TestCredentials(t *testing.T) {
	t.Setenv("PANSQL_TEST_CONN", "Server=db;User=sa")
	v, err := CredentialsFromEnv("PANSQL_TEST_CONN")
	require.NoError(t, err)
	assert.Equal(t, "Server=db;User=sa", v)

	_, err = CredentialsFromEnv("PANSQL_TEST_MISSING_CONN")
	assert.ErrorContains(t, err, "is not set")

	path := filepath.Join(t.TempDir(), "conn.txt")
	require.NoError(t, os.WriteFile(path, []byte("  dsn  \n"), 0o600))
	v, err = CredentialsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dsn", v)
}

func TestAnalyzeOptions_Selected(t *testing.T) {
	all := AnalyzeOptions{}
	assert.True(t, all.Selected("dbo.Orders"))

	only := AnalyzeOptions{Include: []string{"dbo.Orders"}}
	assert.True(t, only.Selected("DBO.orders"))
	assert.False(t, only.Selected("dbo.Customers"))

	except := AnalyzeOptions{Exclude: []string{"dbo.Audit"}}
	assert.False(t, except.Selected("dbo.audit"))
	assert.True(t, except.Selected("dbo.Orders"))
}

func TestRecord(t *testing.T) {
	type orders struct {
		Id    int32
		Total *float64
		Note  *string
		Price *Decimal
		note  string
	}
	rec := orders{Id: 7, Total: Ptr(2.5), Price: Ptr(MustDecimal("1.50")), note: "hidden"}

	assert.Equal(t, "{Id:7 Total:2.5 Note:NULL Price:1.50}", Record(rec))
	assert.Equal(t, "{Id:7 Total:2.5 Note:NULL Price:1.50}", Record(&rec))
	assert.Equal(t, "42", Record(42))
}
