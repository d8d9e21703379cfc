package filter

import (
	"database/sql"
	"slices"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugr-lab/geofilter/feature"
)

// openDuckDB opens an in-memory DuckDB loaded with the cities table.
func openDuckDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("DuckDB not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE cities (
		id VARCHAR, pop INTEGER, area DOUBLE, name VARCHAR, note VARCHAR)`)
	require.NoError(t, err)

	for _, c := range cityRows {
		_, err := db.Exec("INSERT INTO cities VALUES (?, ?, ?, ?, ?)",
			c.id, c.pop, c.area, c.name, c.note)
		require.NoError(t, err)
	}
	return db
}

type cityRow struct {
	id   string
	pop  any
	area float64
	name any
	note any
}

var cityRows = []cityRow{
	{"a", 1500, 10.0, "Berlin", nil},
	{"b", nil, 2.0, "Bonn", "capital once"},
	{"c", 300, 1.5, "Cologne", nil},
	{"d", 90000, 100.0, "b_ston", "x"},
	{"e", 1000, 0.5, nil, nil},
}

func cityFeatures() []feature.Feature {
	out := make([]feature.Feature, len(cityRows))
	for i, c := range cityRows {
		out[i] = rec(c.id, map[string]any{
			"pop": c.pop, "area": c.area, "name": c.name, "note": c.note,
		})
	}
	return out
}

// TestDuckDBAgreesWithMatches runs encoded filters against DuckDB and checks
// the selected rows are the rows Matches accepts.
func TestDuckDBAgreesWithMatches(t *testing.T) {
	db := openDuckDB(t)
	fac := testFactory()
	mf, mx := filterOf(t), exprOf(t)

	popGT := mf(fac.CreateCompare(FilterCompareGreaterThan, attr(t, fac, "pop"), lit(t, fac, 1000)))
	likeB := mf(fac.CreateLike(attr(t, fac, "name"), "B%", '%', '_', '\\'))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"greater than", popGT, []string{"a", "d"}},
		{"equals string", mf(fac.CreateCompare(FilterCompareEqual, attr(t, fac, "name"), lit(t, fac, "Bonn"))), []string{"b"}},
		{"between", mf(fac.CreateBetween(lit(t, fac, 300), attr(t, fac, "pop"), lit(t, fac, 1500))), []string{"a", "c", "e"}},
		{"like", likeB, []string{"a", "b"}},
		{"like escaped", mf(fac.CreateLike(attr(t, fac, "name"), `b\_%`, '%', '_', '\\')), []string{"d"}},
		{"is null", mf(fac.CreateNull(attr(t, fac, "note"))), []string{"a", "c", "e"}},
		{"not over null", Not(popGT), []string{"b", "c", "e"}},
		{"or", Or(
			mf(fac.CreateCompare(FilterCompareLessThan, attr(t, fac, "pop"), lit(t, fac, 500))),
			mf(fac.CreateCompare(FilterCompareGreaterThanOrEqual, attr(t, fac, "area"), lit(t, fac, 100.0))),
		), []string{"c", "d"}},
		{"not of and", Not(And(popGT, likeB)), []string{"b", "c", "d", "e"}},
		{"fid", mf(fac.CreateFID("a", "c", "zz")), []string{"a", "c"}},
		{"math", mf(fac.CreateCompare(FilterCompareGreaterThan,
			mx(fac.CreateMath(TypeMathDivide, attr(t, fac, "pop"), attr(t, fac, "area"))), lit(t, fac, 100))),
			[]string{"a", "c", "d", "e"}},
	}

	enc := NewDuckDBEncoder(&EncoderOptions{IDColumn: "id"})
	records := cityFeatures()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where := enc.Encode(tt.filter)
			require.NotEmpty(t, where)

			rows, err := db.Query("SELECT id FROM cities WHERE " + where + " ORDER BY id")
			require.NoError(t, err, where)
			defer rows.Close()

			var selected []string
			for rows.Next() {
				var id string
				require.NoError(t, rows.Scan(&id))
				selected = append(selected, id)
			}
			require.NoError(t, rows.Err())

			kept, err := Retain(records, tt.filter)
			require.NoError(t, err)
			matched := ids(kept)
			slices.Sort(matched)

			assert.Equal(t, tt.want, matched)
			assert.Equal(t, matched, selected, where)
		})
	}
}
