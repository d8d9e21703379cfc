package feature

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Kind identifies the declared scalar kind of an attribute.
type Kind string

const (
	KindUndeclared Kind = "UNDECLARED"
	KindInteger    Kind = "INTEGER"
	KindDouble     Kind = "DOUBLE"
	KindString     Kind = "STRING"
	KindBoolean    Kind = "BOOLEAN"
	KindGeometry   Kind = "GEOMETRY"
)

// IsNumeric returns true for integer and double kinds.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindDouble
}

// IsDeclared returns true if the kind is known ahead of evaluation.
func (k Kind) IsDeclared() bool {
	return k != "" && k != KindUndeclared
}

// Schema maps attribute paths to their declared kinds.
type Schema map[string]Kind

// Lookup returns the declared kind for path.
func (s Schema) Lookup(path string) (Kind, bool) {
	if s == nil {
		return KindUndeclared, false
	}
	k, ok := s[path]
	return k, ok
}

// SchemaFromArrow derives a Schema from an Arrow schema. Struct fields are
// flattened into "/" separated paths. Columns of types the engine cannot
// compare are declared as KindUndeclared.
func SchemaFromArrow(schema *arrow.Schema) Schema {
	out := Schema{}
	if schema == nil {
		return out
	}
	for _, field := range schema.Fields() {
		addArrowField(out, "", field)
	}
	return out
}

func addArrowField(out Schema, prefix string, field arrow.Field) {
	path := field.Name
	if prefix != "" {
		path = prefix + "/" + field.Name
	}
	if st, ok := field.Type.(*arrow.StructType); ok {
		for _, child := range st.Fields() {
			addArrowField(out, path, child)
		}
		return
	}
	out[path] = arrowKind(field)
}

// arrowKind maps an Arrow field to a declared kind.
func arrowKind(field arrow.Field) Kind {
	if IsGeometryField(field) {
		return KindGeometry
	}
	switch field.Type.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return KindInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return KindDouble
	case arrow.STRING, arrow.LARGE_STRING:
		return KindString
	case arrow.BOOL:
		return KindBoolean
	default:
		return KindUndeclared
	}
}
