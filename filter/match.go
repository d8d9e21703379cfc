package filter

import (
	"cmp"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/internal/recovery"
)

// Matches evaluates both operands and compares them. A null operand makes
// the comparison false.
func (c *CompareFilter) Matches(f feature.Feature) (bool, error) {
	lv, err := c.left.Evaluate(f)
	if err != nil {
		return false, err
	}
	rv, err := c.right.Evaluate(f)
	if err != nil {
		return false, err
	}
	if lv.IsNull || rv.IsNull {
		return false, nil
	}

	switch c.op {
	case FilterCompareEqual, FilterCompareNotEqual:
		eq, err := valuesEqual(lv, rv)
		if err != nil {
			return false, err
		}
		return eq == (c.op == FilterCompareEqual), nil
	}

	n, err := compareNumeric(lv, rv)
	if err != nil {
		return false, err
	}
	switch c.op {
	case FilterCompareLessThan:
		return n < 0, nil
	case FilterCompareGreaterThan:
		return n > 0, nil
	case FilterCompareLessThanOrEqual:
		return n <= 0, nil
	case FilterCompareGreaterThanOrEqual:
		return n >= 0, nil
	default:
		return false, illegal(c.op, "not a comparison operator")
	}
}

// valuesEqual implements equality across kinds. Geometries compare
// structurally, a string on either side compares lexically, booleans
// compare with booleans and everything else compares numerically.
func valuesEqual(l, r Value) (bool, error) {
	lk, rk := l.Kind, r.Kind
	switch {
	case lk == feature.KindGeometry || rk == feature.KindGeometry:
		lg, lok := l.Geometry()
		rg, rok := r.Geometry()
		if !lok || !rok {
			return false, mismatch("cannot compare %s with %s", lk, rk)
		}
		return orb.Equal(lg, rg), nil
	case lk == feature.KindString || rk == feature.KindString:
		return l.String() == r.String(), nil
	case lk == feature.KindBoolean && rk == feature.KindBoolean:
		return l.Data == r.Data, nil
	case lk == feature.KindBoolean || rk == feature.KindBoolean:
		return false, mismatch("cannot compare %s with %s", lk, rk)
	}
	n, err := compareNumeric(l, r)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// compareNumeric orders two numeric values. Two integers compare exactly;
// otherwise both sides are widened to double.
func compareNumeric(l, r Value) (int, error) {
	if !l.IsNumeric() {
		return 0, mismatch("%s is not numeric", l.Kind)
	}
	if !r.IsNumeric() {
		return 0, mismatch("%s is not numeric", r.Kind)
	}
	if li, ok := l.Int(); ok {
		if ri, ok := r.Int(); ok {
			return cmp.Compare(li, ri), nil
		}
	}
	lf, _ := l.Float()
	rf, _ := r.Float()
	return cmp.Compare(lf, rf), nil
}

// Matches evaluates lower <= middle <= upper, inclusive on both ends.
func (b *BetweenFilter) Matches(f feature.Feature) (bool, error) {
	lo, err := b.lower.Evaluate(f)
	if err != nil {
		return false, err
	}
	v, err := b.middle.Evaluate(f)
	if err != nil {
		return false, err
	}
	hi, err := b.upper.Evaluate(f)
	if err != nil {
		return false, err
	}
	if lo.IsNull || v.IsNull || hi.IsNull {
		return false, nil
	}

	n, err := compareNumeric(lo, v)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	n, err = compareNumeric(v, hi)
	if err != nil {
		return false, err
	}
	return n <= 0, nil
}

// Matches returns true when the value evaluates to null. Evaluation errors,
// including unknown attributes, are returned.
func (n *NullFilter) Matches(f feature.Feature) (bool, error) {
	v, err := n.value.Evaluate(f)
	if err != nil {
		return false, err
	}
	return v.IsNull, nil
}

// Matches returns true when the record identifier is in the set.
func (fid *FIDFilter) Matches(f feature.Feature) (bool, error) {
	_, ok := fid.set[f.ID()]
	return ok, nil
}

// Matches combines the children. AND and OR short-circuit left to right;
// the first child error stops evaluation.
func (l *LogicFilter) Matches(f feature.Feature) (bool, error) {
	switch l.op {
	case FilterLogicAnd:
		for _, c := range l.children {
			ok, err := c.Matches(f)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case FilterLogicOr:
		for _, c := range l.children {
			ok, err := c.Matches(f)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case FilterLogicNot:
		ok, err := l.children[0].Matches(f)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, illegal(l.op, "not a logic operator")
	}
}

// geometryOperands evaluates two geometry expressions. ok is false when
// either side is null.
func geometryOperands(f feature.Feature, op FilterType, left, right Expression) (a, b orb.Geometry, ok bool, err error) {
	lv, err := left.Evaluate(f)
	if err != nil {
		return nil, nil, false, err
	}
	rv, err := right.Evaluate(f)
	if err != nil {
		return nil, nil, false, err
	}
	if lv.IsNull || rv.IsNull {
		return nil, nil, false, nil
	}
	a, lok := lv.Geometry()
	b, rok := rv.Geometry()
	if !lok || !rok {
		return nil, nil, false, mismatch("%s needs geometry operands, got %s and %s", op, lv.Kind, rv.Kind)
	}
	return a, b, true, nil
}

// Matches evaluates both geometries and applies the spatial predicate.
// A null geometry does not match.
func (g *GeometryFilter) Matches(f feature.Feature) (bool, error) {
	a, b, ok, err := geometryOperands(f, g.op, g.left, g.right)
	if err != nil || !ok {
		return false, err
	}

	rel := g.relations
	return recovery.RecoverToValue(g.logger, string(g.op), func() (bool, error) {
		switch g.op {
		case FilterGeometryBBox:
			return rel.BoundsIntersect(a, b)
		case FilterGeometryEquals:
			return rel.Equals(a, b)
		case FilterGeometryDisjoint:
			return rel.Disjoint(a, b)
		case FilterGeometryIntersects:
			return rel.Intersects(a, b)
		case FilterGeometryTouches:
			return rel.Touches(a, b)
		case FilterGeometryCrosses:
			return rel.Crosses(a, b)
		case FilterGeometryWithin:
			return rel.Within(a, b)
		case FilterGeometryContains:
			return rel.Contains(a, b)
		case FilterGeometryOverlaps:
			return rel.Overlaps(a, b)
		default:
			return false, illegal(g.op, "not a spatial operator")
		}
	})
}

// Matches computes the distance between the geometries and checks it
// against the threshold. A null geometry does not match.
func (g *GeometryDistanceFilter) Matches(f feature.Feature) (bool, error) {
	a, b, ok, err := geometryOperands(f, g.op, g.left, g.right)
	if err != nil || !ok {
		return false, err
	}

	d, err := recovery.RecoverToValue(g.logger, string(g.op), func() (float64, error) {
		return g.relations.Distance(a, b)
	})
	if err != nil {
		return false, err
	}
	if g.op == FilterGeometryBeyond {
		return d > g.distance, nil
	}
	return d <= g.distance, nil
}
