package filter

import (
	"testing"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/paulmach/orb"
)

// filterOf and exprOf unwrap factory results, failing the test on error.
func filterOf(t *testing.T) func(Filter, error) Filter {
	return func(f Filter, err error) Filter {
		t.Helper()
		if err != nil {
			t.Fatalf("create filter: %v", err)
		}
		return f
	}
}

func exprOf(t *testing.T) func(Expression, error) Expression {
	return func(x Expression, err error) Expression {
		t.Helper()
		if err != nil {
			t.Fatalf("create expression: %v", err)
		}
		return x
	}
}

func TestEncodeComparisonOperators(t *testing.T) {
	fac := testFactory()
	mf := filterOf(t)
	tests := []struct {
		op       FilterType
		expected string
	}{
		{FilterCompareEqual, "col = 42"},
		{FilterCompareNotEqual, "col <> 42"},
		{FilterCompareLessThan, "col < 42"},
		{FilterCompareGreaterThan, "col > 42"},
		{FilterCompareLessThanOrEqual, "col <= 42"},
		{FilterCompareGreaterThanOrEqual, "col >= 42"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			f := mf(fac.CreateCompare(tt.op, attr(t, fac, "col"), lit(t, fac, 42)))

			enc := NewDuckDBEncoder(nil)
			sql := enc.Encode(f)

			if sql != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, sql)
			}
		})
	}
}

func TestEncodeLeaves(t *testing.T) {
	fac := testFactory()
	mf, mx := filterOf(t), exprOf(t)
	triangle := orb.Polygon{{{0, 0}, {10, 0}, {0, 10}, {0, 0}}}

	tests := []struct {
		name     string
		filter   Filter
		expected string
	}{
		{"all", All, "TRUE"},
		{"none", None, "FALSE"},
		{"string literal", mf(fac.CreateCompare(FilterCompareEqual, attr(t, fac, "name"), lit(t, fac, "O'Hare"))), "name = 'O''Hare'"},
		{"double literal", mf(fac.CreateCompare(FilterCompareLessThan, attr(t, fac, "area"), lit(t, fac, 2.0))), "area < 2.0"},
		{"between", mf(fac.CreateBetween(lit(t, fac, 1), attr(t, fac, "rank"), lit(t, fac, 10))), "rank BETWEEN 1 AND 10"},
		{"is null", mf(fac.CreateNull(attr(t, fac, "note"))), "note IS NULL"},
		{"reserved word", mf(fac.CreateNull(attr(t, fac, "select"))), `"select" IS NULL`},
		{"nested path", mf(fac.CreateNull(attr(t, fac, "address/lines[2]"))), "address.lines[2] IS NULL"},
		{"dashed name", mf(fac.CreateNull(attr(t, fac, "first-name"))), `"first-name" IS NULL`},
		{"like", mf(fac.CreateLike(attr(t, fac, "name"), "B%_", '%', '_', '\\')), `CAST(name AS VARCHAR) LIKE 'B%_' ESCAPE '\'`},
		{"like custom wildcards", mf(fac.CreateLike(attr(t, fac, "name"), "a*100%.!*", '*', '.', '!')), `CAST(name AS VARCHAR) LIKE 'a%100\%_*' ESCAPE '\'`},
		{"math", mf(fac.CreateCompare(FilterCompareGreaterThan,
			mx(fac.CreateMath(TypeMathDivide, attr(t, fac, "pop"), attr(t, fac, "area"))), lit(t, fac, 100))), "(pop / area) > 100"},
		{"min max", mf(fac.CreateCompare(FilterCompareEqual,
			mx(fac.CreateFunction("min", attr(t, fac, "a"), lit(t, fac, 3))),
			mx(fac.CreateFunction("MAX", attr(t, fac, "b"), lit(t, fac, 1))))), "LEAST(a, 3) = GREATEST(b, 1)"},
		{"intersects", mf(fac.CreateGeometry(FilterGeometryIntersects, attr(t, fac, "geom"), lit(t, fac, triangle))),
			"ST_Intersects(geom, ST_GeomFromText('POLYGON((0 0,10 0,0 10,0 0))'))"},
		{"bbox", mf(fac.CreateGeometry(FilterGeometryBBox, attr(t, fac, "geom"), lit(t, fac, orb.Point{1, 2}))),
			"ST_Intersects_Extent(geom, ST_GeomFromText('POINT(1 2)'))"},
		{"dwithin", mf(fac.CreateGeometryDistance(FilterGeometryDWithin, attr(t, fac, "geom"), lit(t, fac, orb.Point{1, 2}), 10)),
			"ST_DWithin(geom, ST_GeomFromText('POINT(1 2)'), 10.0)"},
		{"beyond", mf(fac.CreateGeometryDistance(FilterGeometryBeyond, attr(t, fac, "geom"), lit(t, fac, orb.Point{1, 2}), 2.5)),
			"ST_Distance(geom, ST_GeomFromText('POINT(1 2)')) > 2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewDuckDBEncoder(nil)
			sql := enc.Encode(tt.filter)

			if sql != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, sql)
			}
		})
	}
}

func TestEncodeStringLikeSkipsCast(t *testing.T) {
	fac := testFactory()
	mf := filterOf(t)
	name, err := fac.CreateAttribute(feature.Schema{"name": feature.KindString}, "name")
	if err != nil {
		t.Fatal(err)
	}
	f := mf(fac.CreateLike(name, `100\%`, '%', '_', '\\'))

	sql := NewDuckDBEncoder(nil).Encode(f)
	expected := `name LIKE '100\%' ESCAPE '\'`
	if sql != expected {
		t.Errorf("expected '%s', got '%s'", expected, sql)
	}
}

func TestEncodeColumnMapping(t *testing.T) {
	fac := testFactory()
	mf := filterOf(t)
	f := And(
		mf(fac.CreateCompare(FilterCompareEqual, attr(t, fac, "user_id"), lit(t, fac, 7))),
		mf(fac.CreateCompare(FilterCompareEqual, attr(t, fac, "full_name"), lit(t, fac, "Ada Lovelace"))),
	)

	enc := NewDuckDBEncoder(&EncoderOptions{
		ColumnMapping: map[string]string{
			"user_id":   "uid",
			"full_name": "ignored",
		},
		ColumnExpressions: map[string]string{
			"full_name": "CONCAT(first_name, ' ', last_name)",
		},
	})
	sql := enc.Encode(f)

	expected := "(uid = 7 AND CONCAT(first_name, ' ', last_name) = 'Ada Lovelace')"
	if sql != expected {
		t.Errorf("expected '%s', got '%s'", expected, sql)
	}
}

func TestEncodeFID(t *testing.T) {
	fac := testFactory()
	mf := filterOf(t)
	f := mf(fac.CreateFID("a", "b'c"))

	if sql := NewDuckDBEncoder(nil).Encode(f); sql != "" {
		t.Errorf("expected FID without id column to be unsupported, got '%s'", sql)
	}

	sql := NewDuckDBEncoder(&EncoderOptions{IDColumn: "fid"}).Encode(f)
	expected := "fid IN ('a', 'b''c')"
	if sql != expected {
		t.Errorf("expected '%s', got '%s'", expected, sql)
	}

	empty := mf(fac.CreateFID())
	if sql := NewDuckDBEncoder(&EncoderOptions{IDColumn: "fid"}).Encode(empty); sql != "FALSE" {
		t.Errorf("expected 'FALSE', got '%s'", sql)
	}
}

func TestEncodeWKBGeometry(t *testing.T) {
	fac := testFactory()
	mf := filterOf(t)
	f := mf(fac.CreateGeometry(FilterGeometryContains, attr(t, fac, "geom"), lit(t, fac, orb.Point{1, 2})))

	enc := NewDuckDBEncoder(&EncoderOptions{WKBGeometry: true})
	sql := enc.Encode(f)
	expected := "ST_Contains(ST_GeomFromWKB(geom), ST_GeomFromText('POINT(1 2)'))"
	if sql != expected {
		t.Errorf("expected '%s', got '%s'", expected, sql)
	}
}

func TestEncodeFunctionMapping(t *testing.T) {
	reg := NewFunctionRegistry()
	if err := reg.Register(Function{
		Name: "abs", MinArgs: 1, MaxArgs: 1,
		Call: func(args []Value) (Value, error) { return args[0], nil },
	}); err != nil {
		t.Fatal(err)
	}
	fac := NewFactory(FactoryOptions{Functions: reg})
	mf, mx := filterOf(t), exprOf(t)
	f := mf(fac.CreateCompare(FilterCompareLessThan,
		mx(fac.CreateFunction("abs", attr(t, fac, "delta"))), lit(t, fac, 5)))

	if sql := NewDuckDBEncoder(nil).Encode(f); sql != "" {
		t.Errorf("expected unmapped function to be unsupported, got '%s'", sql)
	}

	sql := NewDuckDBEncoder(&EncoderOptions{FunctionMapping: map[string]string{"abs": "abs"}}).Encode(f)
	if sql != "abs(delta) < 5" {
		t.Errorf("expected 'abs(delta) < 5', got '%s'", sql)
	}
}

func TestEncodeUnsupportedPolarity(t *testing.T) {
	fac := testFactory()
	mf := filterOf(t)
	supported := mf(fac.CreateCompare(FilterCompareEqual, attr(t, fac, "a"), lit(t, fac, 1)))
	other := mf(fac.CreateCompare(FilterCompareEqual, attr(t, fac, "b"), lit(t, fac, 2)))
	// A computed LIKE pattern cannot be encoded.
	unsupported := mf(fac.CreateLikeExpression(attr(t, fac, "name"), attr(t, fac, "pattern"), '%', '_', '\\'))

	tests := []struct {
		name     string
		filter   Filter
		expected string
	}{
		{"and drops child", And(supported, unsupported), "a = 1"},
		{"and keeps rest", And(And(supported, unsupported), other), "(a = 1 AND b = 2)"},
		{"or bails", Or(supported, unsupported), ""},
		{"or inside and", And(Or(supported, unsupported), other), "b = 2"},
		{"not of supported", Not(supported), "NOT COALESCE(a = 1, FALSE)"},
		{"not of unsupported", Not(unsupported), ""},
		{"not of and bails", Not(And(supported, unsupported)), ""},
		{"not of or drops child", Not(Or(supported, unsupported)), "NOT COALESCE(a = 1, FALSE)"},
		{"double negation restores", mf(fac.CreateLogic(FilterLogicNot, mf(fac.CreateLogic(FilterLogicNot, And(supported, unsupported))))),
			"NOT COALESCE(NOT COALESCE(a = 1, FALSE), FALSE)"},
		{"all unsupported", And(unsupported, unsupported), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewDuckDBEncoder(nil)
			sql := enc.Encode(tt.filter)

			if sql != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, sql)
			}
		})
	}
}

func TestEncodeFilters(t *testing.T) {
	fac := testFactory()
	mf := filterOf(t)
	a := mf(fac.CreateCompare(FilterCompareEqual, attr(t, fac, "a"), lit(t, fac, 1)))
	b := mf(fac.CreateCompare(FilterCompareGreaterThan, attr(t, fac, "b"), lit(t, fac, 2)))
	unsupported := mf(fac.CreateLikeExpression(attr(t, fac, "name"), attr(t, fac, "pattern"), '%', '_', '\\'))

	enc := NewDuckDBEncoder(nil)

	if sql := enc.EncodeFilters(nil); sql != "" {
		t.Errorf("expected empty string, got '%s'", sql)
	}
	if sql := enc.EncodeFilters([]Filter{unsupported}); sql != "" {
		t.Errorf("expected empty string, got '%s'", sql)
	}
	if sql := enc.EncodeFilters([]Filter{a, unsupported}); sql != "a = 1" {
		t.Errorf("expected 'a = 1', got '%s'", sql)
	}
	expected := "(a = 1) AND (b > 2)"
	if sql := enc.EncodeFilters([]Filter{a, b}); sql != expected {
		t.Errorf("expected '%s', got '%s'", expected, sql)
	}
}

func TestTranslateLike(t *testing.T) {
	tests := []struct {
		pattern  string
		expected string
	}{
		{"abc", "abc"},
		{"a%b_c", "a%b_c"},
		{`a\%b`, `a\%b`},
		{`a\\b`, `a\\b`},
		{`ab\`, `ab\\`},
	}

	for _, tt := range tests {
		got := translateLike(tt.pattern, '%', '_', '\\')
		if got != tt.expected {
			t.Errorf("translateLike(%q): expected %q, got %q", tt.pattern, tt.expected, got)
		}
	}

	if got := translateLike("50%*", '*', '?', '!'); got != `50\%%` {
		t.Errorf("expected %q, got %q", `50\%%`, got)
	}
}
