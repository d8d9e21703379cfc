package filter

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/hugr-lab/geofilter/feature"
)

// Encoder converts filters to SQL strings.
// Implementations handle dialect-specific syntax.
//
// Encoding may widen: a sub-tree the dialect cannot express is dropped
// where that only admits more rows, so the encoded condition selects a
// superset of the records the filter matches. Callers that need exact
// results apply Matches to the rows the query returns.
type Encoder interface {
	// Encode converts a single filter to SQL.
	// Returns empty string if the filter cannot be encoded at all.
	Encode(f Filter) string

	// EncodeFilters converts filters to a WHERE clause body joined by AND.
	// Returns the condition portion without "WHERE" keyword.
	// Returns empty string if no filters can be encoded.
	EncodeFilters(filters []Filter) string
}

// EncoderOptions configures encoding behavior.
type EncoderOptions struct {
	// ColumnMapping maps attribute paths to target column names.
	// Paths not in the map are encoded segment by segment.
	ColumnMapping map[string]string

	// ColumnExpressions maps attribute paths to SQL expressions.
	// Takes precedence over ColumnMapping.
	// Use for computed columns or complex transformations.
	ColumnExpressions map[string]string

	// FunctionMapping maps function names to SQL function names.
	// min and max map to LEAST and GREATEST unless overridden.
	// Unmapped functions are not encodable.
	FunctionMapping map[string]string

	// IDColumn is the column holding the feature id.
	// OPTIONAL: FID filters are not encodable without it.
	IDColumn string

	// WKBGeometry wraps geometry attributes in ST_GeomFromWKB, for tables
	// that store geometries as WKB blobs.
	WKBGeometry bool

	// Logger receives debug records about dropped sub-trees.
	// OPTIONAL: defaults to slog.Default().
	Logger *slog.Logger
}

// escapeString escapes single quotes in a string value for SQL.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns a SQL string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// quoteIdentifier returns a quoted identifier if needed.
// DuckDB uses double quotes for identifiers.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

// quotePath renders an attribute path as a column reference. Segments of a
// nested path become struct field accesses and indexes stay 1-based.
func quotePath(p feature.Path) string {
	var sb strings.Builder
	for i, seg := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(quoteIdentifier(seg.Name))
		if seg.Index > 0 {
			sb.WriteString("[")
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteString("]")
		}
	}
	return sb.String()
}

// needsQuoting returns true if the identifier needs quoting.
func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}

	// Check first character (must be letter or underscore)
	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}

	// Check remaining characters (letters, digits, or underscore)
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	// Check for reserved words (simplified list)
	upper := strings.ToUpper(name)
	switch upper {
	case "SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "NULL", "TRUE", "FALSE",
		"INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER", "TABLE", "INDEX",
		"JOIN", "LEFT", "RIGHT", "INNER", "OUTER", "ON", "AS", "IN", "IS", "LIKE",
		"BETWEEN", "EXISTS", "CASE", "WHEN", "THEN", "ELSE", "END", "ORDER", "BY",
		"GROUP", "HAVING", "LIMIT", "OFFSET", "UNION", "EXCEPT", "INTERSECT",
		"ALL", "DISTINCT", "VALUES", "SET", "INTO", "PRIMARY", "KEY", "FOREIGN",
		"REFERENCES", "CONSTRAINT", "DEFAULT", "CHECK", "UNIQUE", "ASC", "DESC",
		"NULLS", "FIRST", "LAST", "CAST", "INTERVAL", "DATE", "TIME", "TIMESTAMP",
		"ESCAPE", "GEOMETRY":
		return true
	}

	return false
}

// isLetter returns true if c is an ASCII letter.
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isDigit returns true if c is an ASCII digit.
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
