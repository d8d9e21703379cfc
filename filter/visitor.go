package filter

// Visitor receives one call per concrete filter or expression variant.
//
// Accept never recurses: a visitor that needs to descend must call Accept
// on each child itself. Forgetting to do so silently truncates the
// traversal. Visitors that only need to see every node can use Walk
// instead.
type Visitor interface {
	// VisitFilter receives the All and None sentinels. Any other filter
	// reaching it is a programming error; implementations should log it
	// and do nothing.
	VisitFilter(f Filter)
	VisitBetween(f *BetweenFilter)
	VisitCompare(f *CompareFilter)
	VisitGeometry(f *GeometryFilter)
	VisitGeometryDistance(f *GeometryDistanceFilter)
	VisitLike(f *LikeFilter)
	VisitLogic(f *LogicFilter)
	VisitNull(f *NullFilter)
	VisitFID(f *FIDFilter)

	VisitAttribute(e *AttributeExpression)
	// VisitExpression is the fallback for expressions with no dedicated
	// method. Implementations should log it and do nothing.
	VisitExpression(e Expression)
	VisitLiteral(e *LiteralExpression)
	VisitMath(e *MathExpression)
	VisitFunction(e *FunctionExpression)
}

// Node is a filter or an expression.
type Node interface {
	Accept(v Visitor)
	String() string
}

// Children returns the direct children of a node in evaluation order.
func Children(n Node) []Node {
	switch t := n.(type) {
	case *LogicFilter:
		out := make([]Node, len(t.children))
		for i, c := range t.children {
			out[i] = c
		}
		return out
	case *CompareFilter:
		return []Node{t.left, t.right}
	case *BetweenFilter:
		return []Node{t.lower, t.middle, t.upper}
	case *LikeFilter:
		return []Node{t.value, t.pattern}
	case *NullFilter:
		return []Node{t.value}
	case *GeometryFilter:
		return []Node{t.left, t.right}
	case *GeometryDistanceFilter:
		return []Node{t.left, t.right}
	case *MathExpression:
		return []Node{t.left, t.right}
	case *FunctionExpression:
		out := make([]Node, len(t.args))
		for i, a := range t.args {
			out[i] = a
		}
		return out
	default:
		return nil
	}
}

// Walk traverses the tree rooted at n in pre-order. When fn returns false
// the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}
