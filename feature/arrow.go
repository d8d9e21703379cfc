package feature

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/geofilter/geometry"
)

// ArrowFeature is a Feature view of one row of an Arrow record batch.
// Top-level columns are addressed by name and struct fields by "/" paths.
// Geometry columns are decoded from WKB on access.
type ArrowFeature struct {
	rec   arrow.RecordBatch
	row   int
	idCol int
}

// NewArrowFeature creates a view of row in rec. The feature ID is read from
// idColumn when given, otherwise from the rowid column, otherwise it is the
// row number.
func NewArrowFeature(rec arrow.RecordBatch, row int, idColumn string) *ArrowFeature {
	return &ArrowFeature{rec: rec, row: row, idCol: idColumnIndex(rec.Schema(), idColumn)}
}

// ArrowFeatures returns a view for every row of rec.
func ArrowFeatures(rec arrow.RecordBatch, idColumn string) []Feature {
	idCol := idColumnIndex(rec.Schema(), idColumn)
	out := make([]Feature, rec.NumRows())
	for i := range out {
		out[i] = &ArrowFeature{rec: rec, row: i, idCol: idCol}
	}
	return out
}

func idColumnIndex(schema *arrow.Schema, name string) int {
	if name != "" {
		if idx := schema.FieldIndices(name); len(idx) > 0 {
			return idx[0]
		}
	}
	return FindRowIDColumn(schema)
}

// Row returns the row index of the feature.
func (f *ArrowFeature) Row() int {
	return f.row
}

// ID returns the feature identifier.
func (f *ArrowFeature) ID() string {
	if f.idCol < 0 {
		return strconv.Itoa(f.row)
	}
	v, err := arrowValue(f.rec.Schema().Field(f.idCol), f.rec.Column(f.idCol), f.row)
	if err != nil || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprint(id)
	}
}

// Attribute resolves path against the record columns.
func (f *ArrowFeature) Attribute(path string) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAttribute, err)
	}

	schema := f.rec.Schema()
	idx := schema.FieldIndices(p[0].Name)
	if len(idx) == 0 || p[0].Index > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
	}
	field, col := schema.Field(idx[0]), f.rec.Column(idx[0])

	for _, seg := range p[1:] {
		st, ok := col.(*array.Struct)
		if !ok || seg.Index > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
		}
		if st.IsNull(f.row) {
			return nil, nil
		}
		i, ok := st.DataType().(*arrow.StructType).FieldIdx(seg.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
		}
		field, col = st.DataType().(*arrow.StructType).Field(i), st.Field(i)
	}

	return arrowValue(field, col, f.row)
}

// arrowValue converts a single cell to the Go value the engine works with.
func arrowValue(field arrow.Field, col arrow.Array, row int) (any, error) {
	if col.IsNull(row) {
		return nil, nil
	}

	switch a := col.(type) {
	case *GeometryArray:
		return decodeGeometryCell(a.Storage(), row)
	case array.ExtensionArray:
		if a.ExtensionType().ExtensionName() == GeometryExtensionName {
			return decodeGeometryCell(a.Storage(), row)
		}
		return arrowValue(arrow.Field{Name: field.Name, Type: a.Storage().DataType()}, a.Storage(), row)
	case *array.Int8:
		return int64(a.Value(row)), nil
	case *array.Int16:
		return int64(a.Value(row)), nil
	case *array.Int32:
		return int64(a.Value(row)), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Uint8:
		return int64(a.Value(row)), nil
	case *array.Uint16:
		return int64(a.Value(row)), nil
	case *array.Uint32:
		return int64(a.Value(row)), nil
	case *array.Uint64:
		return int64(a.Value(row)), nil
	case *array.Float16:
		return float64(a.Value(row).Float32()), nil
	case *array.Float32:
		return float64(a.Value(row)), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.String:
		return a.Value(row), nil
	case *array.LargeString:
		return a.Value(row), nil
	case *array.Boolean:
		return a.Value(row), nil
	case *array.Binary, *array.LargeBinary:
		if IsGeometryField(field) {
			return decodeGeometryCell(a, row)
		}
		return binaryValue(a, row), nil
	default:
		return col.ValueStr(row), nil
	}
}

func binaryValue(col arrow.Array, row int) []byte {
	switch b := col.(type) {
	case *array.Binary:
		return b.Value(row)
	case *array.LargeBinary:
		return b.Value(row)
	default:
		return nil
	}
}

func decodeGeometryCell(storage arrow.Array, row int) (any, error) {
	data := binaryValue(storage, row)
	if data == nil {
		return nil, fmt.Errorf("geometry column has unexpected storage %s", storage.DataType())
	}
	geom, err := geometry.DecodeWKB(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}
	return geom, nil
}
