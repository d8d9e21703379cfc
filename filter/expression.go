package filter

import (
	"fmt"
	"log/slog"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/internal/recovery"
)

// ExpressionType tags the concrete kind of an expression.
type ExpressionType string

const (
	// Literals
	TypeLiteralDouble   ExpressionType = "LITERAL_DOUBLE"
	TypeLiteralInteger  ExpressionType = "LITERAL_INTEGER"
	TypeLiteralString   ExpressionType = "LITERAL_STRING"
	TypeLiteralGeometry ExpressionType = "LITERAL_GEOMETRY"

	// Arithmetic
	TypeMathAdd      ExpressionType = "MATH_ADD"
	TypeMathSubtract ExpressionType = "MATH_SUBTRACT"
	TypeMathMultiply ExpressionType = "MATH_MULTIPLY"
	TypeMathDivide   ExpressionType = "MATH_DIVIDE"

	// Attribute references, tagged by declared kind
	TypeAttributeDouble     ExpressionType = "ATTRIBUTE_DOUBLE"
	TypeAttributeInteger    ExpressionType = "ATTRIBUTE_INTEGER"
	TypeAttributeString     ExpressionType = "ATTRIBUTE_STRING"
	TypeAttributeBoolean    ExpressionType = "ATTRIBUTE_BOOLEAN"
	TypeAttributeGeometry   ExpressionType = "ATTRIBUTE_GEOMETRY"
	TypeAttributeUndeclared ExpressionType = "ATTRIBUTE_UNDECLARED"

	TypeFunction ExpressionType = "FUNCTION"
)

// IsLiteral returns true for literal tags.
func (t ExpressionType) IsLiteral() bool {
	switch t {
	case TypeLiteralDouble, TypeLiteralInteger, TypeLiteralString, TypeLiteralGeometry:
		return true
	}
	return false
}

// IsMath returns true for arithmetic tags.
func (t ExpressionType) IsMath() bool {
	switch t {
	case TypeMathAdd, TypeMathSubtract, TypeMathMultiply, TypeMathDivide:
		return true
	}
	return false
}

// IsAttribute returns true for attribute reference tags.
func (t ExpressionType) IsAttribute() bool {
	switch t {
	case TypeAttributeDouble, TypeAttributeInteger, TypeAttributeString,
		TypeAttributeBoolean, TypeAttributeGeometry, TypeAttributeUndeclared:
		return true
	}
	return false
}

// IsNumeric returns true for tags whose evaluation may yield a number:
// numeric literals and attributes, undeclared attributes, arithmetic and
// function calls. Math comparators and BETWEEN only accept these children.
func (t ExpressionType) IsNumeric() bool {
	switch t {
	case TypeLiteralDouble, TypeLiteralInteger,
		TypeAttributeDouble, TypeAttributeInteger, TypeAttributeUndeclared,
		TypeFunction:
		return true
	}
	return t.IsMath()
}

// IsGeometry returns true for tags whose evaluation may yield a geometry.
func (t ExpressionType) IsGeometry() bool {
	switch t {
	case TypeLiteralGeometry, TypeAttributeGeometry, TypeAttributeUndeclared, TypeFunction:
		return true
	}
	return false
}

// Expression is a typed scalar/geometry computation over a record.
// The set of implementations is closed; use a Visitor or a type switch to
// inspect them.
type Expression interface {
	// Type returns the expression tag, derived from the concrete variant.
	Type() ExpressionType

	// Evaluate computes the expression against a record.
	Evaluate(f feature.Feature) (Value, error)

	// Accept dispatches to the Visitor method for the concrete variant.
	Accept(v Visitor)

	// String renders the expression as text.
	String() string

	// expressionMarker prevents external implementation.
	expressionMarker()
}

// LiteralExpression is a constant of kind double, integer, string or
// geometry.
type LiteralExpression struct {
	value Value
}

func (*LiteralExpression) expressionMarker() {}

// Value returns the literal value.
func (e *LiteralExpression) Value() Value { return e.value }

// Type returns the literal tag matching the value kind.
func (e *LiteralExpression) Type() ExpressionType {
	switch e.value.Kind {
	case feature.KindInteger:
		return TypeLiteralInteger
	case feature.KindDouble:
		return TypeLiteralDouble
	case feature.KindGeometry:
		return TypeLiteralGeometry
	default:
		return TypeLiteralString
	}
}

// Evaluate returns the literal value.
func (e *LiteralExpression) Evaluate(feature.Feature) (Value, error) {
	return e.value, nil
}

// Accept calls v.VisitLiteral.
func (e *LiteralExpression) Accept(v Visitor) { v.VisitLiteral(e) }

func (e *LiteralExpression) String() string { return Format(e) }

// AttributeExpression reads a named attribute from the record.
type AttributeExpression struct {
	path     string
	declared feature.Kind
	schema   feature.Schema
}

func (*AttributeExpression) expressionMarker() {}

// Path returns the attribute path.
func (e *AttributeExpression) Path() string { return e.path }

// DeclaredKind returns the kind bound from the schema, KindUndeclared when
// created without one.
func (e *AttributeExpression) DeclaredKind() feature.Kind { return e.declared }

// Type returns the attribute tag matching the declared kind.
func (e *AttributeExpression) Type() ExpressionType {
	switch e.declared {
	case feature.KindInteger:
		return TypeAttributeInteger
	case feature.KindDouble:
		return TypeAttributeDouble
	case feature.KindString:
		return TypeAttributeString
	case feature.KindBoolean:
		return TypeAttributeBoolean
	case feature.KindGeometry:
		return TypeAttributeGeometry
	default:
		return TypeAttributeUndeclared
	}
}

// SetPath rebinds the attribute path. The path is validated against the
// path grammar and, when the expression was bound to a schema, resolved
// again. On failure the expression is left unchanged. SetPath must not be
// called once the expression is shared with evaluating goroutines.
func (e *AttributeExpression) SetPath(path string) error {
	declared, err := resolveAttribute(e.schema, path)
	if err != nil {
		return err
	}
	e.path, e.declared = path, declared
	return nil
}

// resolveAttribute validates path and looks up its declared kind.
func resolveAttribute(schema feature.Schema, path string) (feature.Kind, error) {
	if err := feature.ValidatePath(path); err != nil {
		return "", illegal(TypeAttributeUndeclared, "%v", err)
	}
	if schema == nil {
		return feature.KindUndeclared, nil
	}
	kind, ok := schema.Lookup(path)
	if !ok {
		return "", illegal(TypeAttributeUndeclared, "attribute %q not in schema", path)
	}
	if kind == "" {
		kind = feature.KindUndeclared
	}
	return kind, nil
}

// Evaluate reads the attribute and checks it against the declared kind.
// Integer values satisfy a double declaration and are widened.
func (e *AttributeExpression) Evaluate(f feature.Feature) (Value, error) {
	raw, err := f.Attribute(e.path)
	if err != nil {
		return Value{}, err
	}
	v, err := NewValue(raw)
	if err != nil {
		return Value{}, fmt.Errorf("attribute %s: %w", e.path, err)
	}
	if v.IsNull || !e.declared.IsDeclared() || v.Kind == e.declared {
		return v, nil
	}
	if e.declared == feature.KindDouble && v.Kind == feature.KindInteger {
		fv, _ := v.Float()
		return DoubleValue(fv), nil
	}
	return Value{}, mismatch("attribute %s declared %s, got %s", e.path, e.declared, v.Kind)
}

// Accept calls v.VisitAttribute.
func (e *AttributeExpression) Accept(v Visitor) { v.VisitAttribute(e) }

func (e *AttributeExpression) String() string { return Format(e) }

// MathExpression is a binary arithmetic operation. Operands are widened to
// double and the result is always a double.
type MathExpression struct {
	op          ExpressionType
	left, right Expression
}

func (*MathExpression) expressionMarker() {}

// Type returns the arithmetic tag.
func (e *MathExpression) Type() ExpressionType { return e.op }

// Left returns the left operand.
func (e *MathExpression) Left() Expression { return e.left }

// Right returns the right operand.
func (e *MathExpression) Right() Expression { return e.right }

// Evaluate computes the operation. A null operand yields null.
func (e *MathExpression) Evaluate(f feature.Feature) (Value, error) {
	lv, err := e.left.Evaluate(f)
	if err != nil {
		return Value{}, err
	}
	rv, err := e.right.Evaluate(f)
	if err != nil {
		return Value{}, err
	}
	if lv.IsNull || rv.IsNull {
		return NullValue, nil
	}

	l, ok := lv.Float()
	if !ok {
		return Value{}, mismatch("%s operand %s is not numeric", e.op, lv.Kind)
	}
	r, ok := rv.Float()
	if !ok {
		return Value{}, mismatch("%s operand %s is not numeric", e.op, rv.Kind)
	}

	switch e.op {
	case TypeMathAdd:
		return DoubleValue(l + r), nil
	case TypeMathSubtract:
		return DoubleValue(l - r), nil
	case TypeMathMultiply:
		return DoubleValue(l * r), nil
	case TypeMathDivide:
		if r == 0 {
			return Value{}, ErrDivisionByZero
		}
		return DoubleValue(l / r), nil
	default:
		return Value{}, illegal(e.op, "not an arithmetic operator")
	}
}

// Accept calls v.VisitMath.
func (e *MathExpression) Accept(v Visitor) { v.VisitMath(e) }

func (e *MathExpression) String() string { return Format(e) }

// FunctionExpression calls a named function from a FunctionRegistry.
// The function is looked up at evaluation time.
type FunctionExpression struct {
	name     string
	args     []Expression
	registry *FunctionRegistry
	logger   *slog.Logger
}

func (*FunctionExpression) expressionMarker() {}

// Type returns TypeFunction.
func (e *FunctionExpression) Type() ExpressionType { return TypeFunction }

// Name returns the function name.
func (e *FunctionExpression) Name() string { return e.name }

// Args returns a copy of the argument expressions.
func (e *FunctionExpression) Args() []Expression {
	return append([]Expression(nil), e.args...)
}

// Evaluate looks up the function, checks the arity, evaluates the arguments
// left to right and invokes the function body.
func (e *FunctionExpression) Evaluate(f feature.Feature) (Value, error) {
	fn, ok := e.registry.Lookup(e.name)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownFunction, e.name)
	}
	if err := fn.checkArity(len(e.args)); err != nil {
		return Value{}, err
	}

	args := make([]Value, len(e.args))
	for i, arg := range e.args {
		v, err := arg.Evaluate(f)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	return recovery.RecoverToValue(e.logger, "function "+e.name, func() (Value, error) {
		return fn.Call(args)
	})
}

// Accept calls v.VisitFunction.
func (e *FunctionExpression) Accept(v Visitor) { v.VisitFunction(e) }

func (e *FunctionExpression) String() string { return Format(e) }
