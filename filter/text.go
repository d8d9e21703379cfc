package filter

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/geometry"
)

// Format renders a filter or expression as CQL-like text.
func Format(n Node) string {
	if n == nil {
		return "<nil>"
	}
	e := &TextEncoder{}
	n.Accept(e)
	return e.String()
}

// TextEncoder renders the nodes it visits as CQL-like text.
type TextEncoder struct {
	sb     strings.Builder
	parent int
}

// String returns the text written so far.
func (e *TextEncoder) String() string {
	return e.sb.String()
}

func logicPrecedence(op FilterType) int {
	switch op {
	case FilterLogicNot:
		return 3
	case FilterLogicAnd:
		return 2
	case FilterLogicOr:
		return 1
	default:
		return 0
	}
}

var compareOperators = map[FilterType]string{
	FilterCompareEqual:              "=",
	FilterCompareNotEqual:           "<>",
	FilterCompareLessThan:           "<",
	FilterCompareGreaterThan:        ">",
	FilterCompareLessThanOrEqual:    "<=",
	FilterCompareGreaterThanOrEqual: ">=",
}

var mathOperators = map[ExpressionType]string{
	TypeMathAdd:      "+",
	TypeMathSubtract: "-",
	TypeMathMultiply: "*",
	TypeMathDivide:   "/",
}

// spatialName returns the CQL function name of a spatial operator.
func spatialName(op FilterType) string {
	return strings.TrimPrefix(string(op), "GEOMETRY_")
}

func (e *TextEncoder) child(n Node, precedence int) {
	saved := e.parent
	e.parent = precedence
	n.Accept(e)
	e.parent = saved
}

func (e *TextEncoder) VisitFilter(f Filter) {
	switch f.Type() {
	case FilterAll:
		e.sb.WriteString("INCLUDE")
	case FilterNone:
		e.sb.WriteString("EXCLUDE")
	default:
		slog.Warn("text encoder: unexpected filter", "type", f.Type())
	}
}

func (e *TextEncoder) VisitCompare(f *CompareFilter) {
	e.child(f.left, 0)
	e.sb.WriteString(" " + compareOperators[f.op] + " ")
	e.child(f.right, 0)
}

func (e *TextEncoder) VisitBetween(f *BetweenFilter) {
	e.child(f.middle, 0)
	e.sb.WriteString(" BETWEEN ")
	e.child(f.lower, 0)
	e.sb.WriteString(" AND ")
	e.child(f.upper, 0)
}

func (e *TextEncoder) VisitLike(f *LikeFilter) {
	e.child(f.value, 0)
	e.sb.WriteString(" LIKE ")
	e.child(f.pattern, 0)
}

func (e *TextEncoder) VisitNull(f *NullFilter) {
	e.child(f.value, 0)
	e.sb.WriteString(" IS NULL")
}

func (e *TextEncoder) VisitGeometry(f *GeometryFilter) {
	e.sb.WriteString(spatialName(f.op) + "(")
	e.child(f.left, 0)
	e.sb.WriteString(", ")
	e.child(f.right, 0)
	e.sb.WriteString(")")
}

func (e *TextEncoder) VisitGeometryDistance(f *GeometryDistanceFilter) {
	e.sb.WriteString(spatialName(f.op) + "(")
	e.child(f.left, 0)
	e.sb.WriteString(", ")
	e.child(f.right, 0)
	e.sb.WriteString(", " + strconv.FormatFloat(f.distance, 'f', -1, 64) + ")")
}

func (e *TextEncoder) VisitFID(f *FIDFilter) {
	e.sb.WriteString("IN (")
	for i, id := range f.ids {
		if i > 0 {
			e.sb.WriteString(", ")
		}
		e.sb.WriteString(quoteText(id))
	}
	e.sb.WriteString(")")
}

func (e *TextEncoder) VisitLogic(f *LogicFilter) {
	p := logicPrecedence(f.op)
	if f.op == FilterLogicNot {
		e.sb.WriteString("NOT (")
		e.child(f.children[0], 0)
		e.sb.WriteString(")")
		return
	}

	wrap := e.parent > p
	if wrap {
		e.sb.WriteString("(")
	}
	sep := " AND "
	if f.op == FilterLogicOr {
		sep = " OR "
	}
	for i, c := range f.children {
		if i > 0 {
			e.sb.WriteString(sep)
		}
		e.child(c, p)
	}
	if wrap {
		e.sb.WriteString(")")
	}
}

func (e *TextEncoder) VisitAttribute(a *AttributeExpression) {
	e.sb.WriteString(a.path)
}

func (e *TextEncoder) VisitExpression(x Expression) {
	slog.Warn("text encoder: unexpected expression", "type", x.Type())
}

func (e *TextEncoder) VisitLiteral(l *LiteralExpression) {
	v := l.value
	switch v.Kind {
	case feature.KindString:
		e.sb.WriteString(quoteText(v.String()))
	case feature.KindGeometry:
		g, _ := v.Geometry()
		e.sb.WriteString(geometry.FormatWKT(g))
	default:
		e.sb.WriteString(v.String())
	}
}

func (e *TextEncoder) VisitMath(m *MathExpression) {
	e.sb.WriteString("(")
	e.child(m.left, 0)
	e.sb.WriteString(" " + mathOperators[m.op] + " ")
	e.child(m.right, 0)
	e.sb.WriteString(")")
}

func (e *TextEncoder) VisitFunction(fn *FunctionExpression) {
	e.sb.WriteString(fn.name + "(")
	for i, a := range fn.args {
		if i > 0 {
			e.sb.WriteString(", ")
		}
		e.child(a, 0)
	}
	e.sb.WriteString(")")
}

func quoteText(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
