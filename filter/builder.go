package filter

import (
	"log/slog"
	"math"

	"github.com/hugr-lab/geofilter/geometry"
)

// Builders assemble filters whose children are attached one at a time.
// Each mutator validates its argument immediately so that a malformed node
// is rejected before Build. Build returns an immutable filter and may only
// be called once. Builders are not safe for concurrent use.

func errBuilt[T ~string](t T) error {
	return illegal(t, "builder already built")
}

// checkOperand validates a child expression of a comparison. Ordering
// comparisons and BETWEEN only accept numeric-typed children.
func checkOperand(op FilterType, role string, e Expression) error {
	if e == nil {
		return illegal(op, "%s value is nil", role)
	}
	if (IsMathFilter(op) || op == FilterBetween) && !e.Type().IsNumeric() {
		return illegal(op, "%s value %s is not numeric", role, e.Type())
	}
	return nil
}

// CompareBuilder builds a CompareFilter.
type CompareBuilder struct {
	op          FilterType
	left, right Expression
	built       bool
}

// NewCompareBuilder creates a builder for a binary comparison.
func NewCompareBuilder(op FilterType) (*CompareBuilder, error) {
	if !IsCompareFilter(op) || op == FilterBetween {
		return nil, illegal(op, "not a binary comparison")
	}
	return &CompareBuilder{op: op}, nil
}

// AddLeftValue sets the left operand.
func (b *CompareBuilder) AddLeftValue(e Expression) error {
	if b.built {
		return errBuilt(b.op)
	}
	if err := checkOperand(b.op, "left", e); err != nil {
		return err
	}
	b.left = e
	return nil
}

// AddRightValue sets the right operand.
func (b *CompareBuilder) AddRightValue(e Expression) error {
	if b.built {
		return errBuilt(b.op)
	}
	if err := checkOperand(b.op, "right", e); err != nil {
		return err
	}
	b.right = e
	return nil
}

// Build returns the filter. Both operands are required.
func (b *CompareBuilder) Build() (*CompareFilter, error) {
	if b.built {
		return nil, errBuilt(b.op)
	}
	if b.left == nil || b.right == nil {
		return nil, illegal(b.op, "both operands are required")
	}
	b.built = true
	return &CompareFilter{op: b.op, left: b.left, right: b.right}, nil
}

// BetweenBuilder builds a BetweenFilter.
type BetweenBuilder struct {
	lower, middle, upper Expression
	built                bool
}

// NewBetweenBuilder creates an empty BETWEEN builder.
func NewBetweenBuilder() *BetweenBuilder {
	return &BetweenBuilder{}
}

func (b *BetweenBuilder) set(dst *Expression, role string, e Expression) error {
	if b.built {
		return errBuilt(FilterBetween)
	}
	if err := checkOperand(FilterBetween, role, e); err != nil {
		return err
	}
	*dst = e
	return nil
}

// AddLowerValue sets the lower bound.
func (b *BetweenBuilder) AddLowerValue(e Expression) error { return b.set(&b.lower, "lower", e) }

// AddMiddleValue sets the tested value.
func (b *BetweenBuilder) AddMiddleValue(e Expression) error { return b.set(&b.middle, "middle", e) }

// AddUpperValue sets the upper bound.
func (b *BetweenBuilder) AddUpperValue(e Expression) error { return b.set(&b.upper, "upper", e) }

// Build returns the filter. All three values are required.
func (b *BetweenBuilder) Build() (*BetweenFilter, error) {
	if b.built {
		return nil, errBuilt(FilterBetween)
	}
	if b.lower == nil || b.middle == nil || b.upper == nil {
		return nil, illegal(FilterBetween, "lower, middle and upper values are required")
	}
	b.built = true
	return &BetweenFilter{lower: b.lower, middle: b.middle, upper: b.upper}, nil
}

// LikeBuilder builds a LikeFilter.
type LikeBuilder struct {
	value   Expression
	pattern Expression
	multi   rune
	single  rune
	escape  rune
	built   bool
}

// NewLikeBuilder creates an empty LIKE builder.
func NewLikeBuilder() *LikeBuilder {
	return &LikeBuilder{}
}

// SetValue sets the matched expression. Geometry expressions are rejected.
func (b *LikeBuilder) SetValue(e Expression) error {
	if b.built {
		return errBuilt(FilterLike)
	}
	if e == nil {
		return illegal(FilterLike, "value is nil")
	}
	switch e.Type() {
	case TypeLiteralGeometry, TypeAttributeGeometry:
		return illegal(FilterLike, "value %s is a geometry", e.Type())
	}
	b.value = e
	return nil
}

// SetPattern sets a literal pattern with its wildcards. An escape of 0
// disables escaping.
func (b *LikeBuilder) SetPattern(pattern string, multi, single, escape rune) error {
	return b.SetPatternExpression(&LiteralExpression{value: StringValue(pattern)}, multi, single, escape)
}

// SetPatternExpression sets a pattern computed per record.
func (b *LikeBuilder) SetPatternExpression(e Expression, multi, single, escape rune) error {
	if b.built {
		return errBuilt(FilterLike)
	}
	if e == nil {
		return illegal(FilterLike, "pattern is nil")
	}
	if e.Type().IsLiteral() && e.Type() != TypeLiteralString {
		return illegal(FilterLike, "pattern %s is not a string", e.Type())
	}
	if err := checkWildcards(multi, single, escape); err != nil {
		return err
	}
	b.pattern, b.multi, b.single, b.escape = e, multi, single, escape
	return nil
}

// Build returns the filter. A literal pattern is compiled here.
func (b *LikeBuilder) Build() (*LikeFilter, error) {
	if b.built {
		return nil, errBuilt(FilterLike)
	}
	if b.value == nil || b.pattern == nil {
		return nil, illegal(FilterLike, "value and pattern are required")
	}
	b.built = true
	l := &LikeFilter{
		value:          b.value,
		pattern:        b.pattern,
		wildcardMulti:  b.multi,
		wildcardSingle: b.single,
		escape:         b.escape,
	}
	if p, ok := l.LiteralPattern(); ok {
		l.compiled = compileLike(p, b.multi, b.single, b.escape)
	}
	return l, nil
}

// NullBuilder builds a NullFilter.
type NullBuilder struct {
	value Expression
	built bool
}

// NewNullBuilder creates an empty IS NULL builder.
func NewNullBuilder() *NullBuilder {
	return &NullBuilder{}
}

// SetValue sets the checked expression.
func (b *NullBuilder) SetValue(e Expression) error {
	if b.built {
		return errBuilt(FilterNull)
	}
	if e == nil {
		return illegal(FilterNull, "value is nil")
	}
	b.value = e
	return nil
}

// Build returns the filter.
func (b *NullBuilder) Build() (*NullFilter, error) {
	if b.built {
		return nil, errBuilt(FilterNull)
	}
	if b.value == nil {
		return nil, illegal(FilterNull, "value is required")
	}
	b.built = true
	return &NullFilter{value: b.value}, nil
}

// GeometryBuilder builds a GeometryFilter or, for DWITHIN and BEYOND, a
// GeometryDistanceFilter.
type GeometryBuilder struct {
	op          FilterType
	left, right Expression
	distance    float64
	relations   geometry.Relations
	logger      *slog.Logger
	built       bool
}

// NewGeometryBuilder creates a builder for a spatial operator. A nil
// relations uses geometry.Default and a nil logger uses slog.Default.
func NewGeometryBuilder(op FilterType, relations geometry.Relations, logger *slog.Logger) (*GeometryBuilder, error) {
	if !IsGeometryFilter(op) {
		return nil, illegal(op, "not a spatial operator")
	}
	if relations == nil {
		relations = geometry.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeometryBuilder{op: op, relations: relations, logger: logger}, nil
}

func (b *GeometryBuilder) set(dst *Expression, role string, e Expression) error {
	if b.built {
		return errBuilt(b.op)
	}
	if e == nil {
		return illegal(b.op, "%s geometry is nil", role)
	}
	if !e.Type().IsGeometry() {
		return illegal(b.op, "%s value %s is not a geometry", role, e.Type())
	}
	*dst = e
	return nil
}

// AddLeftGeometry sets the left operand.
func (b *GeometryBuilder) AddLeftGeometry(e Expression) error { return b.set(&b.left, "left", e) }

// AddRightGeometry sets the right operand.
func (b *GeometryBuilder) AddRightGeometry(e Expression) error { return b.set(&b.right, "right", e) }

// SetDistance sets the threshold of a distance operator.
func (b *GeometryBuilder) SetDistance(d float64) error {
	if b.built {
		return errBuilt(b.op)
	}
	if !IsGeometryDistanceFilter(b.op) {
		return illegal(b.op, "operator takes no distance")
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return illegal(b.op, "invalid distance %v", d)
	}
	b.distance = d
	return nil
}

// Build returns a *GeometryFilter or a *GeometryDistanceFilter.
func (b *GeometryBuilder) Build() (Filter, error) {
	if b.built {
		return nil, errBuilt(b.op)
	}
	if b.left == nil || b.right == nil {
		return nil, illegal(b.op, "both geometries are required")
	}
	b.built = true
	if IsGeometryDistanceFilter(b.op) {
		return &GeometryDistanceFilter{
			op:        b.op,
			left:      b.left,
			right:     b.right,
			distance:  b.distance,
			relations: b.relations,
			logger:    b.logger,
		}, nil
	}
	return &GeometryFilter{
		op:        b.op,
		left:      b.left,
		right:     b.right,
		relations: b.relations,
		logger:    b.logger,
	}, nil
}

// FIDBuilder builds a FIDFilter.
type FIDBuilder struct {
	ids   []string
	set   map[string]struct{}
	built bool
}

// NewFIDBuilder creates an empty identifier set builder.
func NewFIDBuilder() *FIDBuilder {
	return &FIDBuilder{set: make(map[string]struct{})}
}

// AddFID adds an identifier. Duplicates are ignored.
func (b *FIDBuilder) AddFID(id string) error {
	if b.built {
		return errBuilt(FilterFID)
	}
	if id == "" {
		return illegal(FilterFID, "empty feature id")
	}
	if _, ok := b.set[id]; ok {
		return nil
	}
	b.set[id] = struct{}{}
	b.ids = append(b.ids, id)
	return nil
}

// Build returns the filter. An empty set matches nothing.
func (b *FIDBuilder) Build() (*FIDFilter, error) {
	if b.built {
		return nil, errBuilt(FilterFID)
	}
	b.built = true
	return &FIDFilter{ids: b.ids, set: b.set}, nil
}

// LogicBuilder builds a LogicFilter.
type LogicBuilder struct {
	op       FilterType
	children []Filter
	built    bool
}

// NewLogicBuilder creates a builder for AND, OR or NOT.
func NewLogicBuilder(op FilterType) (*LogicBuilder, error) {
	if !IsLogicFilter(op) {
		return nil, illegal(op, "not a logic operator")
	}
	return &LogicBuilder{op: op}, nil
}

// AddFilter appends a child. NOT accepts exactly one.
func (b *LogicBuilder) AddFilter(f Filter) error {
	if b.built {
		return errBuilt(b.op)
	}
	if f == nil {
		return illegal(b.op, "child filter is nil")
	}
	if b.op == FilterLogicNot && len(b.children) == 1 {
		return illegal(b.op, "NOT takes exactly one child")
	}
	b.children = append(b.children, f)
	return nil
}

// Build returns the filter. AND and OR need at least one child, NOT exactly
// one.
func (b *LogicBuilder) Build() (*LogicFilter, error) {
	if b.built {
		return nil, errBuilt(b.op)
	}
	switch {
	case b.op == FilterLogicNot && len(b.children) != 1:
		return nil, illegal(b.op, "NOT takes exactly one child, got %d", len(b.children))
	case len(b.children) == 0:
		return nil, illegal(b.op, "at least one child is required")
	}
	b.built = true
	return &LogicFilter{op: b.op, children: b.children}, nil
}
