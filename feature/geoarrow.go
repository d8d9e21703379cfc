package feature

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// GeometryExtensionName is the Arrow extension name of WKB geometry columns.
const GeometryExtensionName = "geoarrow.wkb"

// GeometryExtensionType is the Arrow extension type for WKB encoded
// geometries stored in Binary or LargeBinary columns.
type GeometryExtensionType struct {
	arrow.ExtensionBase
}

// GeometryArray is the array type backing GeometryExtensionType columns.
type GeometryArray struct {
	array.ExtensionArrayBase
}

// NewGeometryExtensionType creates a geometry extension type over Binary.
func NewGeometryExtensionType() *GeometryExtensionType {
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{Storage: arrow.BinaryTypes.Binary},
	}
}

// ArrayType returns the Go type for geometry arrays.
func (g *GeometryExtensionType) ArrayType() reflect.Type {
	return reflect.TypeOf(GeometryArray{})
}

// ExtensionName returns the extension type identifier.
func (g *GeometryExtensionType) ExtensionName() string {
	return GeometryExtensionName
}

// String returns a string representation of the type.
func (g *GeometryExtensionType) String() string {
	return "extension<" + GeometryExtensionName + ">"
}

// Serialize returns the extension metadata (empty for plain WKB).
func (g *GeometryExtensionType) Serialize() string {
	return ""
}

// Deserialize creates a geometry extension type from metadata.
func (g *GeometryExtensionType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	if !arrow.TypeEqual(storageType, arrow.BinaryTypes.Binary) &&
		!arrow.TypeEqual(storageType, arrow.BinaryTypes.LargeBinary) {
		return nil, fmt.Errorf("invalid storage type for geometry: %s (expected Binary or LargeBinary)", storageType)
	}
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{Storage: storageType},
	}, nil
}

// ExtensionEquals checks equality with another extension type.
func (g *GeometryExtensionType) ExtensionEquals(other arrow.ExtensionType) bool {
	otherGeom, ok := other.(*GeometryExtensionType)
	if !ok {
		return false
	}
	return arrow.TypeEqual(g.StorageType(), otherGeom.StorageType())
}

// geometryMetadata is stored as JSON in the extension metadata of geometry
// fields.
type geometryMetadata struct {
	Encoding      string   `json:"encoding,omitempty"`
	GeometryTypes []string `json:"geometry_types,omitempty"`
	Edges         string   `json:"edges,omitempty"`
}

func geometryFieldMetadata(geomType string) arrow.Metadata {
	md := geometryMetadata{Encoding: "WKB", Edges: "planar"}
	if geomType != "" && geomType != "GEOMETRY" {
		md.GeometryTypes = []string{geomType}
	}
	data, _ := json.Marshal(md)
	return arrow.MetadataFrom(map[string]string{
		"ARROW:extension:name":     GeometryExtensionName,
		"ARROW:extension:metadata": string(data),
		"geometry_type":            geomType,
	})
}

// NewGeometryField creates an Arrow field with the geometry extension type.
func NewGeometryField(name string, nullable bool, geomType string) arrow.Field {
	return arrow.Field{
		Name:     name,
		Type:     NewGeometryExtensionType(),
		Nullable: nullable,
		Metadata: geometryFieldMetadata(geomType),
	}
}

// NewGeometryStorageField creates a plain Binary field tagged as geometry
// through field metadata only. This is how geometry columns arrive from
// producers that do not register the extension type.
func NewGeometryStorageField(name string, nullable bool, geomType string) arrow.Field {
	return arrow.Field{
		Name:     name,
		Type:     arrow.BinaryTypes.Binary,
		Nullable: nullable,
		Metadata: geometryFieldMetadata(geomType),
	}
}

// IsGeometryField reports whether field holds WKB geometries, either by
// extension type or by extension name metadata on a binary column.
func IsGeometryField(field arrow.Field) bool {
	if ext, ok := field.Type.(arrow.ExtensionType); ok {
		return ext.ExtensionName() == GeometryExtensionName
	}
	switch field.Type.ID() {
	case arrow.BINARY, arrow.LARGE_BINARY:
	default:
		return false
	}
	name, ok := field.Metadata.GetValue("ARROW:extension:name")
	return ok && name == GeometryExtensionName
}

// FindRowIDColumn returns the index of the rowid column in the schema or -1.
// A rowid column is named "rowid" or carries a non-empty "is_rowid" metadata
// value.
func FindRowIDColumn(schema *arrow.Schema) int {
	if schema == nil {
		return -1
	}

	for i := 0; i < schema.NumFields(); i++ {
		field := schema.Field(i)
		if field.Name == "rowid" {
			return i
		}
		if md := field.Metadata; md.Len() > 0 {
			if idx := md.FindKey("is_rowid"); idx >= 0 && md.Values()[idx] != "" {
				return i
			}
		}
	}
	return -1
}

func init() {
	_ = arrow.RegisterExtensionType(NewGeometryExtensionType())
}
