package filter

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/geometry"
)

// DuckDBEncoder encodes filters to DuckDB SQL syntax. Spatial predicates
// use functions of the DuckDB spatial extension.
//
// Unsupported sub-trees are handled by polarity. Outside NOT, an AND drops
// unsupported children and an OR with any unsupported child is dropped as a
// whole. Inside NOT the two rules swap, so the encoded condition never
// selects fewer rows than the filter matches.
//
// A DuckDBEncoder is not safe for concurrent use.
type DuckDBEncoder struct {
	opts    *EncoderOptions
	logger  *slog.Logger
	negated bool
	out     string
}

var (
	_ Encoder = (*DuckDBEncoder)(nil)
	_ Visitor = (*DuckDBEncoder)(nil)
)

// NewDuckDBEncoder creates a new DuckDB SQL encoder.
// If opts is nil, default options are used.
func NewDuckDBEncoder(opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDBEncoder{opts: opts, logger: logger}
}

// EncodeFilters converts all filters to a WHERE clause body.
// Returns the condition portion without "WHERE" keyword.
// Returns empty string if no filters can be encoded.
func (e *DuckDBEncoder) EncodeFilters(filters []Filter) string {
	var parts []string
	for _, f := range filters {
		encoded := e.Encode(f)
		if encoded != "" {
			parts = append(parts, encoded)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	if len(parts) == 1 {
		return parts[0]
	}

	return "(" + strings.Join(parts, ") AND (") + ")"
}

// Encode converts a single filter to SQL.
// Returns empty string if the filter is unsupported.
func (e *DuckDBEncoder) Encode(f Filter) string {
	if f == nil {
		return ""
	}
	e.negated = false
	return e.encode(f)
}

// encode visits n and returns its SQL, empty when unsupported.
func (e *DuckDBEncoder) encode(n Node) string {
	saved := e.out
	e.out = ""
	n.Accept(e)
	result := e.out
	e.out = saved
	return result
}

func (e *DuckDBEncoder) VisitFilter(f Filter) {
	switch f.Type() {
	case FilterAll:
		e.out = "TRUE"
	case FilterNone:
		e.out = "FALSE"
	default:
		e.logger.Warn("duckdb encoder: unexpected filter", "type", f.Type())
	}
}

// VisitCompare encodes a binary comparison.
func (e *DuckDBEncoder) VisitCompare(c *CompareFilter) {
	left := e.encode(c.left)
	right := e.encode(c.right)

	if left == "" || right == "" {
		return
	}

	switch c.op {
	case FilterCompareEqual:
		e.out = left + " = " + right
	case FilterCompareNotEqual:
		e.out = left + " <> " + right
	case FilterCompareLessThan:
		e.out = left + " < " + right
	case FilterCompareGreaterThan:
		e.out = left + " > " + right
	case FilterCompareLessThanOrEqual:
		e.out = left + " <= " + right
	case FilterCompareGreaterThanOrEqual:
		e.out = left + " >= " + right
	}
}

// VisitBetween encodes an inclusive range test.
func (e *DuckDBEncoder) VisitBetween(b *BetweenFilter) {
	middle := e.encode(b.middle)
	lower := e.encode(b.lower)
	upper := e.encode(b.upper)

	if middle == "" || lower == "" || upper == "" {
		return
	}

	e.out = middle + " BETWEEN " + lower + " AND " + upper
}

// VisitLike encodes a LIKE filter with a literal pattern. Patterns computed
// per record are unsupported.
func (e *DuckDBEncoder) VisitLike(l *LikeFilter) {
	pattern, ok := l.LiteralPattern()
	if !ok {
		e.logger.Debug("duckdb encoder: LIKE with computed pattern is not encodable")
		return
	}
	value := e.encode(l.value)
	if value == "" {
		return
	}
	switch l.value.Type() {
	case TypeAttributeString, TypeLiteralString:
	default:
		value = "CAST(" + value + " AS VARCHAR)"
	}

	e.out = value + " LIKE " + quoteLiteral(translateLike(pattern, l.wildcardMulti, l.wildcardSingle, l.escape)) + ` ESCAPE '\'`
}

// translateLike rewrites a pattern to SQL wildcards with backslash as the
// escape character.
func translateLike(pattern string, multi, single, escape rune) string {
	var sb strings.Builder
	literal := func(r rune) {
		switch r {
		case '%', '_', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case escape != 0 && r == escape:
			if i+1 < len(runes) {
				i++
				r = runes[i]
			}
			literal(r)
		case r == multi:
			sb.WriteByte('%')
		case r == single:
			sb.WriteByte('_')
		default:
			literal(r)
		}
	}
	return sb.String()
}

// VisitNull encodes an IS NULL test.
func (e *DuckDBEncoder) VisitNull(n *NullFilter) {
	value := e.encode(n.value)
	if value == "" {
		return
	}
	e.out = value + " IS NULL"
}

var spatialFunctions = map[FilterType]string{
	FilterGeometryBBox:       "ST_Intersects_Extent",
	FilterGeometryEquals:     "ST_Equals",
	FilterGeometryDisjoint:   "ST_Disjoint",
	FilterGeometryIntersects: "ST_Intersects",
	FilterGeometryTouches:    "ST_Touches",
	FilterGeometryCrosses:    "ST_Crosses",
	FilterGeometryWithin:     "ST_Within",
	FilterGeometryContains:   "ST_Contains",
	FilterGeometryOverlaps:   "ST_Overlaps",
}

// encodeGeometry encodes a geometry operand, wrapping WKB columns.
func (e *DuckDBEncoder) encodeGeometry(x Expression) string {
	sql := e.encode(x)
	if sql == "" {
		return ""
	}
	a, ok := x.(*AttributeExpression)
	if !ok || !e.opts.WKBGeometry {
		return sql
	}
	if _, custom := e.opts.ColumnExpressions[a.path]; custom {
		return sql
	}
	return "ST_GeomFromWKB(" + sql + ")"
}

// VisitGeometry encodes a spatial predicate.
func (e *DuckDBEncoder) VisitGeometry(g *GeometryFilter) {
	fn, ok := spatialFunctions[g.op]
	if !ok {
		return
	}
	left := e.encodeGeometry(g.left)
	right := e.encodeGeometry(g.right)
	if left == "" || right == "" {
		return
	}
	e.out = fn + "(" + left + ", " + right + ")"
}

// VisitGeometryDistance encodes DWITHIN and BEYOND.
func (e *DuckDBEncoder) VisitGeometryDistance(g *GeometryDistanceFilter) {
	left := e.encodeGeometry(g.left)
	right := e.encodeGeometry(g.right)
	if left == "" || right == "" {
		return
	}
	d := formatDouble(g.distance)
	if g.op == FilterGeometryBeyond {
		e.out = "ST_Distance(" + left + ", " + right + ") > " + d
		return
	}
	e.out = "ST_DWithin(" + left + ", " + right + ", " + d + ")"
}

// VisitFID encodes an identifier set as IN over the id column.
func (e *DuckDBEncoder) VisitFID(f *FIDFilter) {
	if e.opts.IDColumn == "" {
		e.logger.Debug("duckdb encoder: FID filter without id column")
		return
	}
	if len(f.ids) == 0 {
		e.out = "FALSE"
		return
	}
	values := make([]string, len(f.ids))
	for i, id := range f.ids {
		values[i] = quoteLiteral(id)
	}
	e.out = quoteIdentifier(e.opts.IDColumn) + " IN (" + strings.Join(values, ", ") + ")"
}

// VisitLogic encodes AND, OR and NOT.
func (e *DuckDBEncoder) VisitLogic(l *LogicFilter) {
	if l.op == FilterLogicNot {
		e.negated = !e.negated
		child := e.encode(l.children[0])
		e.negated = !e.negated
		if child == "" {
			return
		}
		// Comparisons with NULL are false, not unknown.
		e.out = "NOT COALESCE(" + child + ", FALSE)"
		return
	}

	var parts []string
	for _, child := range l.children {
		encoded := e.encode(child)
		if encoded != "" {
			parts = append(parts, encoded)
		}
	}

	// Dropping a child widens AND and narrows OR. Under NOT the effect
	// is reversed.
	widening := (l.op == FilterLogicAnd) != e.negated
	if len(parts) != len(l.children) {
		if !widening {
			e.logger.Debug("duckdb encoder: dropping logic filter with unsupported child",
				"type", l.op, "negated", e.negated)
			return
		}
		e.logger.Debug("duckdb encoder: dropping unsupported children",
			"type", l.op, "dropped", len(l.children)-len(parts))
	}

	if len(parts) == 0 {
		return
	}

	if len(parts) == 1 {
		e.out = parts[0]
		return
	}

	op := " AND "
	if l.op == FilterLogicOr {
		op = " OR "
	}

	e.out = "(" + strings.Join(parts, op) + ")"
}

// VisitAttribute encodes an attribute reference as a column.
func (e *DuckDBEncoder) VisitAttribute(a *AttributeExpression) {
	// Check for expression mapping first (takes precedence)
	if e.opts.ColumnExpressions != nil {
		if expr, ok := e.opts.ColumnExpressions[a.path]; ok {
			e.out = expr
			return
		}
	}

	// Check for name mapping
	if e.opts.ColumnMapping != nil {
		if mapped, ok := e.opts.ColumnMapping[a.path]; ok {
			e.out = quoteIdentifier(mapped)
			return
		}
	}

	p, err := feature.ParsePath(a.path)
	if err != nil {
		return
	}
	e.out = quotePath(p)
}

func (e *DuckDBEncoder) VisitExpression(x Expression) {
	e.logger.Warn("duckdb encoder: unexpected expression", "type", x.Type())
}

// VisitLiteral encodes a constant value.
func (e *DuckDBEncoder) VisitLiteral(l *LiteralExpression) {
	v := l.value
	switch v.Kind {
	case feature.KindInteger:
		i, _ := v.Int()
		e.out = strconv.FormatInt(i, 10)
	case feature.KindDouble:
		f, _ := v.Float()
		e.out = formatDouble(f)
	case feature.KindString:
		e.out = quoteLiteral(v.String())
	case feature.KindGeometry:
		g, _ := v.Geometry()
		e.out = "ST_GeomFromText(" + quoteLiteral(geometry.FormatWKT(g)) + ")"
	}
}

// VisitMath encodes an arithmetic operation. DuckDB's / is a floating
// point division, matching evaluation.
func (e *DuckDBEncoder) VisitMath(m *MathExpression) {
	left := e.encode(m.left)
	right := e.encode(m.right)
	if left == "" || right == "" {
		return
	}
	e.out = "(" + left + " " + mathOperators[m.op] + " " + right + ")"
}

// VisitFunction encodes a function call through FunctionMapping.
func (e *DuckDBEncoder) VisitFunction(fn *FunctionExpression) {
	name, ok := e.sqlFunction(fn.name)
	if !ok {
		e.logger.Debug("duckdb encoder: function not mapped", "name", fn.name)
		return
	}

	args := make([]string, len(fn.args))
	for i, a := range fn.args {
		encoded := e.encode(a)
		if encoded == "" {
			return
		}
		args[i] = encoded
	}
	e.out = name + "(" + strings.Join(args, ", ") + ")"
}

func (e *DuckDBEncoder) sqlFunction(name string) (string, bool) {
	name = strings.ToLower(name)
	if mapped, ok := e.opts.FunctionMapping[name]; ok {
		return mapped, true
	}
	switch name {
	case "min":
		return "LEAST", true
	case "max":
		return "GREATEST", true
	}
	return "", false
}

// formatDouble renders a float as a DuckDB DOUBLE literal.
func formatDouble(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
