package filter

import (
	"log/slog"
)

// AttributeExtractor collects the attribute paths referenced by a tree.
// Paths are kept in first-seen order without duplicates.
type AttributeExtractor struct {
	seen  map[string]struct{}
	paths []string
}

// NewAttributeExtractor creates an empty extractor.
func NewAttributeExtractor() *AttributeExtractor {
	return &AttributeExtractor{seen: make(map[string]struct{})}
}

// AttributeNames returns every attribute path referenced under n.
func AttributeNames(n Node) []string {
	x := NewAttributeExtractor()
	n.Accept(x)
	return x.Paths()
}

// Paths returns the collected paths.
func (x *AttributeExtractor) Paths() []string {
	return append([]string(nil), x.paths...)
}

func (x *AttributeExtractor) visitAll(nodes ...Node) {
	for _, n := range nodes {
		n.Accept(x)
	}
}

func (x *AttributeExtractor) VisitFilter(f Filter) {
	if f != All && f != None {
		slog.Debug("attribute extractor: unexpected filter", "type", f.Type())
	}
}

func (x *AttributeExtractor) VisitBetween(f *BetweenFilter) {
	x.visitAll(f.lower, f.middle, f.upper)
}

func (x *AttributeExtractor) VisitCompare(f *CompareFilter) {
	x.visitAll(f.left, f.right)
}

func (x *AttributeExtractor) VisitGeometry(f *GeometryFilter) {
	x.visitAll(f.left, f.right)
}

func (x *AttributeExtractor) VisitGeometryDistance(f *GeometryDistanceFilter) {
	x.visitAll(f.left, f.right)
}

func (x *AttributeExtractor) VisitLike(f *LikeFilter) {
	x.visitAll(f.value, f.pattern)
}

func (x *AttributeExtractor) VisitLogic(f *LogicFilter) {
	for _, c := range f.children {
		c.Accept(x)
	}
}

func (x *AttributeExtractor) VisitNull(f *NullFilter) {
	f.value.Accept(x)
}

func (x *AttributeExtractor) VisitFID(*FIDFilter) {}

func (x *AttributeExtractor) VisitAttribute(e *AttributeExpression) {
	if _, ok := x.seen[e.path]; ok {
		return
	}
	x.seen[e.path] = struct{}{}
	x.paths = append(x.paths, e.path)
}

func (x *AttributeExtractor) VisitExpression(e Expression) {
	slog.Debug("attribute extractor: unexpected expression", "type", e.Type())
}

func (x *AttributeExtractor) VisitLiteral(*LiteralExpression) {}

func (x *AttributeExtractor) VisitMath(e *MathExpression) {
	x.visitAll(e.left, e.right)
}

func (x *AttributeExtractor) VisitFunction(e *FunctionExpression) {
	for _, a := range e.args {
		a.Accept(x)
	}
}
