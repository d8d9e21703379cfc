package filter

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/geometry"
)

// Factory creates validated filters and expressions. A Create call either
// returns a complete node or an error wrapping ErrIllegalConstruction;
// partially built nodes never escape.
type Factory interface {
	CreateLiteral(v any) (*LiteralExpression, error)
	// CreateAttribute binds path against schema. A nil schema defers the
	// type check to evaluation.
	CreateAttribute(schema feature.Schema, path string) (*AttributeExpression, error)
	CreateMath(op ExpressionType, left, right Expression) (*MathExpression, error)
	CreateFunction(name string, args ...Expression) (*FunctionExpression, error)

	CreateCompare(op FilterType, left, right Expression) (*CompareFilter, error)
	CreateBetween(lower, middle, upper Expression) (*BetweenFilter, error)
	CreateLike(value Expression, pattern string, multi, single, escape rune) (*LikeFilter, error)
	CreateLikeExpression(value, pattern Expression, multi, single, escape rune) (*LikeFilter, error)
	CreateNull(value Expression) (*NullFilter, error)
	CreateGeometry(op FilterType, left, right Expression) (*GeometryFilter, error)
	CreateGeometryDistance(op FilterType, left, right Expression, distance float64) (*GeometryDistanceFilter, error)
	CreateFID(ids ...string) (*FIDFilter, error)
	CreateLogic(op FilterType, children ...Filter) (*LogicFilter, error)
}

// FactoryOptions configures a StandardFactory.
type FactoryOptions struct {
	// Geometry answers spatial predicates.
	// OPTIONAL: defaults to geometry.Default().
	Geometry geometry.Relations

	// Functions resolves function names.
	// OPTIONAL: defaults to DefaultFunctions().
	Functions *FunctionRegistry

	// Logger receives recovered panics and encoder diagnostics.
	// OPTIONAL: defaults to slog.Default().
	Logger *slog.Logger
}

// StandardFactory is the default Factory implementation.
// Safe for concurrent use.
type StandardFactory struct {
	geometry  geometry.Relations
	functions *FunctionRegistry
	logger    *slog.Logger
}

var _ Factory = (*StandardFactory)(nil)

// NewFactory creates a StandardFactory.
func NewFactory(opts FactoryOptions) *StandardFactory {
	if opts.Geometry == nil {
		opts.Geometry = geometry.Default()
	}
	if opts.Functions == nil {
		opts.Functions = DefaultFunctions()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &StandardFactory{
		geometry:  opts.Geometry,
		functions: opts.Functions,
		logger:    opts.Logger,
	}
}

// Functions returns the registry used to validate and evaluate functions.
func (sf *StandardFactory) Functions() *FunctionRegistry {
	return sf.functions
}

// CreateLiteral wraps an integer, double, string or geometry. Geometries are
// validated.
func (sf *StandardFactory) CreateLiteral(v any) (*LiteralExpression, error) {
	val, err := NewValue(v)
	if err != nil {
		return nil, illegal(TypeLiteralString, "%v", err)
	}
	if val.IsNull {
		return nil, illegal(TypeLiteralString, "literal cannot be null")
	}
	switch val.Kind {
	case feature.KindInteger, feature.KindDouble, feature.KindString:
	case feature.KindGeometry:
		g, _ := val.Geometry()
		if err := geometry.Validate(g); err != nil {
			return nil, illegal(TypeLiteralGeometry, "%v", err)
		}
	default:
		return nil, illegal(TypeLiteralString, "unsupported literal kind %s", val.Kind)
	}
	return &LiteralExpression{value: val}, nil
}

// CreateAttribute creates an attribute reference.
func (sf *StandardFactory) CreateAttribute(schema feature.Schema, path string) (*AttributeExpression, error) {
	declared, err := resolveAttribute(schema, path)
	if err != nil {
		return nil, err
	}
	return &AttributeExpression{path: path, declared: declared, schema: schema}, nil
}

// CreateMath creates an arithmetic expression over numeric-typed operands.
func (sf *StandardFactory) CreateMath(op ExpressionType, left, right Expression) (*MathExpression, error) {
	if !op.IsMath() {
		return nil, illegal(op, "not an arithmetic operator")
	}
	for _, e := range []Expression{left, right} {
		if e == nil {
			return nil, illegal(op, "operand is nil")
		}
		if !e.Type().IsNumeric() {
			return nil, illegal(op, "operand %s is not numeric", e.Type())
		}
	}
	return &MathExpression{op: op, left: left, right: right}, nil
}

// CreateFunction creates a function call. The name must be registered and
// accept len(args) arguments.
func (sf *StandardFactory) CreateFunction(name string, args ...Expression) (*FunctionExpression, error) {
	fn, ok := sf.functions.Lookup(name)
	if !ok {
		return nil, illegal(TypeFunction, "%v: %s", ErrUnknownFunction, name)
	}
	if err := fn.checkArity(len(args)); err != nil {
		return nil, illegal(TypeFunction, "%v", err)
	}
	for i, a := range args {
		if a == nil {
			return nil, illegal(TypeFunction, "%s argument %d is nil", name, i+1)
		}
	}
	return &FunctionExpression{
		name:     name,
		args:     slices.Clone(args),
		registry: sf.functions,
		logger:   sf.logger,
	}, nil
}

// CreateCompare creates a binary comparison.
func (sf *StandardFactory) CreateCompare(op FilterType, left, right Expression) (*CompareFilter, error) {
	b, err := NewCompareBuilder(op)
	if err != nil {
		return nil, err
	}
	if err := b.AddLeftValue(left); err != nil {
		return nil, err
	}
	if err := b.AddRightValue(right); err != nil {
		return nil, err
	}
	return b.Build()
}

// CreateBetween creates an inclusive range test.
func (sf *StandardFactory) CreateBetween(lower, middle, upper Expression) (*BetweenFilter, error) {
	b := NewBetweenBuilder()
	if err := b.AddLowerValue(lower); err != nil {
		return nil, err
	}
	if err := b.AddMiddleValue(middle); err != nil {
		return nil, err
	}
	if err := b.AddUpperValue(upper); err != nil {
		return nil, err
	}
	return b.Build()
}

// CreateLike creates a LIKE filter with a literal pattern.
func (sf *StandardFactory) CreateLike(value Expression, pattern string, multi, single, escape rune) (*LikeFilter, error) {
	b := NewLikeBuilder()
	if err := b.SetValue(value); err != nil {
		return nil, err
	}
	if err := b.SetPattern(pattern, multi, single, escape); err != nil {
		return nil, err
	}
	return b.Build()
}

// CreateLikeExpression creates a LIKE filter whose pattern is evaluated per
// record.
func (sf *StandardFactory) CreateLikeExpression(value, pattern Expression, multi, single, escape rune) (*LikeFilter, error) {
	b := NewLikeBuilder()
	if err := b.SetValue(value); err != nil {
		return nil, err
	}
	if err := b.SetPatternExpression(pattern, multi, single, escape); err != nil {
		return nil, err
	}
	return b.Build()
}

// CreateNull creates an IS NULL filter.
func (sf *StandardFactory) CreateNull(value Expression) (*NullFilter, error) {
	b := NewNullBuilder()
	if err := b.SetValue(value); err != nil {
		return nil, err
	}
	return b.Build()
}

func (sf *StandardFactory) geometryBuilder(op FilterType, left, right Expression) (*GeometryBuilder, error) {
	b, err := NewGeometryBuilder(op, sf.geometry, sf.logger)
	if err != nil {
		return nil, err
	}
	if err := b.AddLeftGeometry(left); err != nil {
		return nil, err
	}
	if err := b.AddRightGeometry(right); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateGeometry creates a spatial relation filter.
func (sf *StandardFactory) CreateGeometry(op FilterType, left, right Expression) (*GeometryFilter, error) {
	if IsGeometryDistanceFilter(op) {
		return nil, illegal(op, "use CreateGeometryDistance")
	}
	b, err := sf.geometryBuilder(op, left, right)
	if err != nil {
		return nil, err
	}
	f, err := b.Build()
	if err != nil {
		return nil, err
	}
	return f.(*GeometryFilter), nil
}

// CreateGeometryDistance creates a DWITHIN or BEYOND filter.
func (sf *StandardFactory) CreateGeometryDistance(op FilterType, left, right Expression, distance float64) (*GeometryDistanceFilter, error) {
	if !IsGeometryDistanceFilter(op) {
		return nil, illegal(op, "not a distance operator")
	}
	b, err := sf.geometryBuilder(op, left, right)
	if err != nil {
		return nil, err
	}
	if err := b.SetDistance(distance); err != nil {
		return nil, err
	}
	f, err := b.Build()
	if err != nil {
		return nil, err
	}
	return f.(*GeometryDistanceFilter), nil
}

// CreateFID creates an identifier set filter.
func (sf *StandardFactory) CreateFID(ids ...string) (*FIDFilter, error) {
	b := NewFIDBuilder()
	for _, id := range ids {
		if err := b.AddFID(id); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// CreateLogic creates an AND, OR or NOT filter.
func (sf *StandardFactory) CreateLogic(op FilterType, children ...Filter) (*LogicFilter, error) {
	b, err := NewLogicBuilder(op)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if err := b.AddFilter(c); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// FactoryEnvVar names the environment variable that selects the default
// factory implementation.
const FactoryEnvVar = "GEOFILTER_FACTORY"

// DefaultFactoryName is the registry key of the StandardFactory.
const DefaultFactoryName = "default"

// FactoryConstructor creates a Factory instance.
type FactoryConstructor func() Factory

type factoryRegistry struct {
	mu       sync.Mutex
	ctors    map[string]FactoryConstructor
	instance Factory
}

var factories = &factoryRegistry{
	ctors: map[string]FactoryConstructor{
		DefaultFactoryName: func() Factory { return NewFactory(FactoryOptions{}) },
	},
}

// RegisterFactory adds a named factory implementation to the registry.
// Registering an existing name replaces it; the default instance, if
// already created, is kept until ResetDefaultFactory.
func RegisterFactory(name string, ctor FactoryConstructor) error {
	if name == "" {
		return fmt.Errorf("factory name cannot be empty")
	}
	if ctor == nil {
		return fmt.Errorf("factory %s has nil constructor", name)
	}
	factories.mu.Lock()
	defer factories.mu.Unlock()
	factories.ctors[name] = ctor
	return nil
}

// NewNamedFactory creates a fresh instance of a registered factory.
func NewNamedFactory(name string) (Factory, error) {
	factories.mu.Lock()
	ctor, ok := factories.ctors[name]
	factories.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("factory %q is not registered", name)
	}
	return ctor(), nil
}

// DefaultFactory returns the process-wide factory. It is created on first
// use from the implementation named by GEOFILTER_FACTORY, falling back to
// the standard factory when the variable is unset or names an unknown
// implementation.
func DefaultFactory() Factory {
	factories.mu.Lock()
	defer factories.mu.Unlock()
	if factories.instance != nil {
		return factories.instance
	}

	name := os.Getenv(FactoryEnvVar)
	if name == "" {
		name = DefaultFactoryName
	}
	ctor, ok := factories.ctors[name]
	if !ok {
		slog.Warn("Unknown filter factory, using default",
			"env", FactoryEnvVar,
			"name", name,
		)
		ctor = factories.ctors[DefaultFactoryName]
	}
	factories.instance = ctor()
	return factories.instance
}

// ResetDefaultFactory drops the cached default instance so the next
// DefaultFactory call re-reads the environment.
func ResetDefaultFactory() {
	factories.mu.Lock()
	defer factories.mu.Unlock()
	factories.instance = nil
}
