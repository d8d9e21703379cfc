package filter

import (
	"log/slog"
	"regexp"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/geometry"
)

// FilterType tags the concrete kind of a filter.
type FilterType string

const (
	// Sentinels
	FilterAll  FilterType = "ALL"
	FilterNone FilterType = "NONE"

	// Logic
	FilterLogicAnd FilterType = "LOGIC_AND"
	FilterLogicOr  FilterType = "LOGIC_OR"
	FilterLogicNot FilterType = "LOGIC_NOT"

	// Comparison
	FilterCompareEqual              FilterType = "COMPARE_EQUALS"
	FilterCompareNotEqual           FilterType = "COMPARE_NOT_EQUALS"
	FilterCompareLessThan           FilterType = "COMPARE_LESS_THAN"
	FilterCompareGreaterThan        FilterType = "COMPARE_GREATER_THAN"
	FilterCompareLessThanOrEqual    FilterType = "COMPARE_LESS_THAN_EQUAL"
	FilterCompareGreaterThanOrEqual FilterType = "COMPARE_GREATER_THAN_EQUAL"
	FilterBetween                   FilterType = "BETWEEN"

	FilterLike FilterType = "LIKE"
	FilterNull FilterType = "NULL"
	FilterFID  FilterType = "FID"

	// Spatial
	FilterGeometryBBox       FilterType = "GEOMETRY_BBOX"
	FilterGeometryEquals     FilterType = "GEOMETRY_EQUALS"
	FilterGeometryDisjoint   FilterType = "GEOMETRY_DISJOINT"
	FilterGeometryIntersects FilterType = "GEOMETRY_INTERSECTS"
	FilterGeometryTouches    FilterType = "GEOMETRY_TOUCHES"
	FilterGeometryCrosses    FilterType = "GEOMETRY_CROSSES"
	FilterGeometryWithin     FilterType = "GEOMETRY_WITHIN"
	FilterGeometryContains   FilterType = "GEOMETRY_CONTAINS"
	FilterGeometryOverlaps   FilterType = "GEOMETRY_OVERLAPS"
	FilterGeometryDWithin    FilterType = "GEOMETRY_DWITHIN"
	FilterGeometryBeyond     FilterType = "GEOMETRY_BEYOND"
)

// IsLogicFilter returns true for AND, OR and NOT.
func IsLogicFilter(t FilterType) bool {
	switch t {
	case FilterLogicAnd, FilterLogicOr, FilterLogicNot:
		return true
	}
	return false
}

// IsCompareFilter returns true for binary comparisons and BETWEEN.
func IsCompareFilter(t FilterType) bool {
	switch t {
	case FilterCompareEqual, FilterCompareNotEqual, FilterBetween:
		return true
	}
	return IsMathFilter(t)
}

// IsMathFilter returns true for the ordering comparisons, which only accept
// numeric operands.
func IsMathFilter(t FilterType) bool {
	switch t {
	case FilterCompareLessThan, FilterCompareGreaterThan,
		FilterCompareLessThanOrEqual, FilterCompareGreaterThanOrEqual:
		return true
	}
	return false
}

// IsGeometryFilter returns true for every spatial operator, distance
// operators included.
func IsGeometryFilter(t FilterType) bool {
	switch t {
	case FilterGeometryBBox, FilterGeometryEquals, FilterGeometryDisjoint,
		FilterGeometryIntersects, FilterGeometryTouches, FilterGeometryCrosses,
		FilterGeometryWithin, FilterGeometryContains, FilterGeometryOverlaps:
		return true
	}
	return IsGeometryDistanceFilter(t)
}

// IsGeometryDistanceFilter returns true for DWITHIN and BEYOND.
func IsGeometryDistanceFilter(t FilterType) bool {
	return t == FilterGeometryDWithin || t == FilterGeometryBeyond
}

// IsSimpleFilter returns true for every leaf filter type.
func IsSimpleFilter(t FilterType) bool {
	switch t {
	case FilterLike, FilterNull, FilterFID:
		return true
	}
	return IsCompareFilter(t) || IsGeometryFilter(t)
}

// Filter is a boolean predicate over a record.
// The set of implementations is closed; use a Visitor or a type switch to
// inspect them.
type Filter interface {
	// Type returns the filter tag.
	Type() FilterType

	// Matches evaluates the predicate against a record.
	Matches(f feature.Feature) (bool, error)

	// Accept dispatches to the Visitor method for the concrete variant.
	Accept(v Visitor)

	// String renders the filter as text.
	String() string

	// filterMarker prevents external implementation.
	filterMarker()
}

// SentinelFilter is the type of All and None.
type SentinelFilter struct {
	typ FilterType
}

var (
	// All matches every record.
	All Filter = &SentinelFilter{typ: FilterAll}

	// None matches no record.
	None Filter = &SentinelFilter{typ: FilterNone}
)

func (*SentinelFilter) filterMarker() {}

// Type returns FilterAll or FilterNone.
func (s *SentinelFilter) Type() FilterType { return s.typ }

// Matches returns true for All and false for None.
func (s *SentinelFilter) Matches(feature.Feature) (bool, error) {
	return s.typ == FilterAll, nil
}

// Accept calls v.VisitFilter.
func (s *SentinelFilter) Accept(v Visitor) { v.VisitFilter(s) }

func (s *SentinelFilter) String() string { return Format(s) }

// CompareFilter compares two expressions.
type CompareFilter struct {
	op          FilterType
	left, right Expression
}

func (*CompareFilter) filterMarker() {}

// Type returns the comparison operator.
func (c *CompareFilter) Type() FilterType { return c.op }

// Left returns the left operand.
func (c *CompareFilter) Left() Expression { return c.left }

// Right returns the right operand.
func (c *CompareFilter) Right() Expression { return c.right }

// Accept calls v.VisitCompare.
func (c *CompareFilter) Accept(v Visitor) { v.VisitCompare(c) }

func (c *CompareFilter) String() string { return Format(c) }

// BetweenFilter tests lower <= middle <= upper.
type BetweenFilter struct {
	lower, middle, upper Expression
}

func (*BetweenFilter) filterMarker() {}

// Type returns FilterBetween.
func (b *BetweenFilter) Type() FilterType { return FilterBetween }

// Lower returns the lower bound.
func (b *BetweenFilter) Lower() Expression { return b.lower }

// Middle returns the tested value.
func (b *BetweenFilter) Middle() Expression { return b.middle }

// Upper returns the upper bound.
func (b *BetweenFilter) Upper() Expression { return b.upper }

// Accept calls v.VisitBetween.
func (b *BetweenFilter) Accept(v Visitor) { v.VisitBetween(b) }

func (b *BetweenFilter) String() string { return Format(b) }

// Default LIKE wildcards.
const (
	DefaultWildcardMulti  = '%'
	DefaultWildcardSingle = '_'
	DefaultEscape         = '\\'
)

// LikeFilter matches the string form of a value against a wildcard
// pattern. Matching is anchored and case-sensitive.
type LikeFilter struct {
	value          Expression
	pattern        Expression
	wildcardMulti  rune
	wildcardSingle rune
	escape         rune

	// compiled is set when the pattern is a literal.
	compiled *regexp.Regexp
}

func (*LikeFilter) filterMarker() {}

// Type returns FilterLike.
func (l *LikeFilter) Type() FilterType { return FilterLike }

// Value returns the matched expression.
func (l *LikeFilter) Value() Expression { return l.value }

// Pattern returns the pattern expression.
func (l *LikeFilter) Pattern() Expression { return l.pattern }

// LiteralPattern returns the pattern text when the pattern is a literal.
func (l *LikeFilter) LiteralPattern() (string, bool) {
	lit, ok := l.pattern.(*LiteralExpression)
	if !ok {
		return "", false
	}
	return lit.Value().String(), true
}

// WildcardMulti returns the wildcard matching any run of characters.
func (l *LikeFilter) WildcardMulti() rune { return l.wildcardMulti }

// WildcardSingle returns the wildcard matching exactly one character.
func (l *LikeFilter) WildcardSingle() rune { return l.wildcardSingle }

// Escape returns the escape character, 0 when escaping is disabled.
func (l *LikeFilter) Escape() rune { return l.escape }

// Accept calls v.VisitLike.
func (l *LikeFilter) Accept(v Visitor) { v.VisitLike(l) }

func (l *LikeFilter) String() string { return Format(l) }

// NullFilter matches records whose value evaluates to null.
type NullFilter struct {
	value Expression
}

func (*NullFilter) filterMarker() {}

// Type returns FilterNull.
func (n *NullFilter) Type() FilterType { return FilterNull }

// Value returns the checked expression.
func (n *NullFilter) Value() Expression { return n.value }

// Accept calls v.VisitNull.
func (n *NullFilter) Accept(v Visitor) { v.VisitNull(n) }

func (n *NullFilter) String() string { return Format(n) }

// GeometryFilter applies a spatial predicate to two geometry expressions.
type GeometryFilter struct {
	op          FilterType
	left, right Expression
	relations   geometry.Relations
	logger      *slog.Logger
}

func (*GeometryFilter) filterMarker() {}

// Type returns the spatial operator.
func (g *GeometryFilter) Type() FilterType { return g.op }

// Left returns the left geometry operand.
func (g *GeometryFilter) Left() Expression { return g.left }

// Right returns the right geometry operand.
func (g *GeometryFilter) Right() Expression { return g.right }

// Accept calls v.VisitGeometry.
func (g *GeometryFilter) Accept(v Visitor) { v.VisitGeometry(g) }

func (g *GeometryFilter) String() string { return Format(g) }

// GeometryDistanceFilter tests the distance between two geometries against
// a threshold: DWITHIN is distance <= d, BEYOND is distance > d.
type GeometryDistanceFilter struct {
	op          FilterType
	left, right Expression
	distance    float64
	relations   geometry.Relations
	logger      *slog.Logger
}

func (*GeometryDistanceFilter) filterMarker() {}

// Type returns FilterGeometryDWithin or FilterGeometryBeyond.
func (g *GeometryDistanceFilter) Type() FilterType { return g.op }

// Left returns the left geometry operand.
func (g *GeometryDistanceFilter) Left() Expression { return g.left }

// Right returns the right geometry operand.
func (g *GeometryDistanceFilter) Right() Expression { return g.right }

// Distance returns the threshold.
func (g *GeometryDistanceFilter) Distance() float64 { return g.distance }

// Accept calls v.VisitGeometryDistance.
func (g *GeometryDistanceFilter) Accept(v Visitor) { v.VisitGeometryDistance(g) }

func (g *GeometryDistanceFilter) String() string { return Format(g) }

// FIDFilter matches records whose identifier is in a set.
type FIDFilter struct {
	ids []string
	set map[string]struct{}
}

func (*FIDFilter) filterMarker() {}

// Type returns FilterFID.
func (f *FIDFilter) Type() FilterType { return FilterFID }

// IDs returns the identifiers in insertion order.
func (f *FIDFilter) IDs() []string {
	return append([]string(nil), f.ids...)
}

// Accept calls v.VisitFID.
func (f *FIDFilter) Accept(v Visitor) { v.VisitFID(f) }

func (f *FIDFilter) String() string { return Format(f) }

// LogicFilter combines child filters with AND, OR or NOT.
type LogicFilter struct {
	op       FilterType
	children []Filter
}

func (*LogicFilter) filterMarker() {}

// Type returns the logic operator.
func (l *LogicFilter) Type() FilterType { return l.op }

// Children returns a copy of the child filters.
func (l *LogicFilter) Children() []Filter {
	return append([]Filter(nil), l.children...)
}

// Accept calls v.VisitLogic.
func (l *LogicFilter) Accept(v Visitor) { v.VisitLogic(l) }

func (l *LogicFilter) String() string { return Format(l) }
